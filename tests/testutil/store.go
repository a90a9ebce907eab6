package testutil

import (
	"testing"

	"github.com/nhle/seminar-digest/internal/model"
	"github.com/nhle/seminar-digest/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", nil)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SampleEvent returns a fully populated event starting at timeBegin.
func SampleEvent(timeBegin string) model.Event {
	return model.Event{
		Sender:       "seminar@mails.tsinghua.edu.cn",
		Title:        "Quantum Computing Frontiers",
		TimeBegin:    timeBegin,
		TimeEnd:      timeBegin + " end",
		Position:     "FIT 1-315",
		Abstract:     "An overview of recent results.",
		SpeakerName:  "Li Wei",
		SpeakerTitle: "Professor, Peking University",
	}
}
