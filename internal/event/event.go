// Package event decodes and validates the event records returned by the
// generation step.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/seminar-digest/internal/logging"
	"github.com/nhle/seminar-digest/internal/model"
)

// FieldPolicy decides what happens to a record with missing or
// non-string fields.
type FieldPolicy string

const (
	// PolicyDefault substitutes "" for bad fields and logs a warning.
	PolicyDefault FieldPolicy = "default"
	// PolicyReject fails the whole parse on the first bad record.
	PolicyReject FieldPolicy = "reject"
)

// ParsePolicy maps a configuration value to a FieldPolicy.
func ParsePolicy(s string) (FieldPolicy, error) {
	switch p := FieldPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDefault, PolicyReject:
		return p, nil
	case "":
		return PolicyDefault, nil
	default:
		return "", fmt.Errorf("unknown field policy %q", s)
	}
}

// Fields lists the string fields every record carries, in output order.
var Fields = []string{
	"sender",
	"event",
	"time_begin",
	"time_end",
	"position",
	"abstract",
	"speaker_name",
	"speaker_title",
}

// ErrNotArray is returned when the generation output is valid JSON but not
// an array of records.
var ErrNotArray = errors.New("generation output is not a JSON array")

// MalformedEventError describes a record whose fields are missing or not
// strings.
type MalformedEventError struct {
	Index   int
	Missing []string
	Invalid []string
}

func (e *MalformedEventError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "non-string "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("event %d malformed: %s", e.Index, strings.Join(parts, "; "))
}

// Parser decodes generation output into events.
type Parser struct {
	Policy FieldPolicy
	Logger *zap.Logger
}

// Parse decodes data with the given policy and no logger.
func Parse(data []byte, policy FieldPolicy) ([]model.Event, error) {
	return Parser{Policy: policy}.Parse(data)
}

// Parse accepts a JSON array of event objects, optionally wrapped in a
// markdown code fence.
func (p Parser) Parse(data []byte) ([]model.Event, error) {
	logger := logging.OrNop(p.Logger)

	body := StripFence(data)
	if len(body) == 0 || body[0] != '[' {
		return nil, fmt.Errorf("decoding events: %w", ErrNotArray)
	}

	var records []map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}

	events := make([]model.Event, 0, len(records))
	for i, rec := range records {
		values, bad := decodeRecord(i, rec)
		if bad != nil {
			if p.Policy == PolicyReject {
				return nil, bad
			}
			logger.Warn("malformed event, using empty values",
				zap.Int("index", i),
				zap.Strings("missing", bad.Missing),
				zap.Strings("invalid", bad.Invalid),
			)
		}

		events = append(events, model.Event{
			Sender:       values["sender"],
			Title:        values["event"],
			TimeBegin:    values["time_begin"],
			TimeEnd:      values["time_end"],
			Position:     values["position"],
			Abstract:     values["abstract"],
			SpeakerName:  values["speaker_name"],
			SpeakerTitle: values["speaker_title"],
		})
	}

	return events, nil
}

// decodeRecord extracts the string fields of rec. A non-nil error lists
// every field that was absent, null or not a string.
func decodeRecord(index int, rec map[string]json.RawMessage) (map[string]string, *MalformedEventError) {
	if rec == nil {
		return map[string]string{}, &MalformedEventError{Index: index, Invalid: []string{"<record>"}}
	}

	values := make(map[string]string, len(Fields))
	var bad MalformedEventError

	for _, f := range Fields {
		raw, ok := rec[f]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			bad.Missing = append(bad.Missing, f)
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			bad.Invalid = append(bad.Invalid, f)
			continue
		}
		values[f] = s
	}

	if len(bad.Missing) == 0 && len(bad.Invalid) == 0 {
		return values, nil
	}
	bad.Index = index
	return values, &bad
}

// StripFence removes surrounding whitespace and a markdown code fence
// (``` or ```json) around the payload, if present.
func StripFence(data []byte) []byte {
	body := bytes.TrimSpace(data)
	if !bytes.HasPrefix(body, []byte("```")) {
		return body
	}

	body = body[3:]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = bytes.TrimPrefix(body, []byte("json"))
	}
	body = bytes.TrimSpace(body)
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}
