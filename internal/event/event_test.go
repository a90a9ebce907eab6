package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/seminar-digest/internal/model"
)

const twoEvents = `[
  {"sender": "a@mails.tsinghua.edu.cn", "event": "量子计算前沿", "time_begin": "2024年05月20日 14时00分",
   "time_end": "2024年05月20日 16时00分", "position": "FIT 1-315", "abstract": "概要",
   "speaker_name": "王明", "speaker_title": "北京大学教授"},
  {"sender": "b@mail.tsinghua.edu.cn", "event": "Systems Seminar", "time_begin": "2024-05-21 09:30",
   "time_end": "2024-05-21 11:00", "position": "10-103", "abstract": "LSM trees",
   "speaker_name": "", "speaker_title": ""}
]`

func TestParse_Valid(t *testing.T) {
	events, err := Parse([]byte(twoEvents), PolicyReject)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, model.Event{
		Sender:       "a@mails.tsinghua.edu.cn",
		Title:        "量子计算前沿",
		TimeBegin:    "2024年05月20日 14时00分",
		TimeEnd:      "2024年05月20日 16时00分",
		Position:     "FIT 1-315",
		Abstract:     "概要",
		SpeakerName:  "王明",
		SpeakerTitle: "北京大学教授",
	}, events[0])
	assert.Equal(t, "Systems Seminar", events[1].Title)
}

func TestParse_Fenced(t *testing.T) {
	for name, in := range map[string]string{
		"json fence":  "```json\n" + twoEvents + "\n```",
		"plain fence": "```\n" + twoEvents + "\n```\n",
		"padded":      "\n\n  " + twoEvents + "  \n",
	} {
		t.Run(name, func(t *testing.T) {
			events, err := Parse([]byte(in), PolicyDefault)
			require.NoError(t, err)
			assert.Len(t, events, 2)
		})
	}
}

func TestParse_EmptyArray(t *testing.T) {
	events, err := Parse([]byte("[]"), PolicyReject)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParse_NotArray(t *testing.T) {
	for _, in := range []string{"", `{"event": "x"}`, "No events today.", `"[]"`} {
		_, err := Parse([]byte(in), PolicyDefault)
		assert.ErrorIs(t, err, ErrNotArray, "input %q", in)
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`[{"event": "x",]`), PolicyDefault)
	require.Error(t, err)
}

const malformed = `[
  {"sender": "a@mails.tsinghua.edu.cn", "event": null, "time_begin": "2024-05-20",
   "time_end": "2024-05-20", "position": 315, "abstract": "x"}
]`

func TestParse_RejectPolicy(t *testing.T) {
	_, err := Parse([]byte(malformed), PolicyReject)

	var bad *MalformedEventError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 0, bad.Index)
	assert.Equal(t, []string{"event", "speaker_name", "speaker_title"}, bad.Missing)
	assert.Equal(t, []string{"position"}, bad.Invalid)
	assert.Contains(t, err.Error(), "event 0 malformed")
}

func TestParse_DefaultPolicy(t *testing.T) {
	events, err := Parse([]byte(malformed), PolicyDefault)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "a@mails.tsinghua.edu.cn", e.Sender)
	assert.Equal(t, "", e.Title)
	assert.Equal(t, "", e.Position)
	assert.Equal(t, "x", e.Abstract)
	assert.Equal(t, "", e.SpeakerName)
}

func TestParse_NullRecord(t *testing.T) {
	_, err := Parse([]byte(`[null]`), PolicyReject)
	var bad *MalformedEventError
	require.ErrorAs(t, err, &bad)

	events, err := Parse([]byte(`[null]`), PolicyDefault)
	require.NoError(t, err)
	assert.Equal(t, []model.Event{{}}, events)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyDefault, p)

	p, err = ParsePolicy(" Reject ")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "[]", string(StripFence([]byte("```json\n[]\n```"))))
	assert.Equal(t, "[]", string(StripFence([]byte("```json[]```"))))
	assert.Equal(t, "[1]", string(StripFence([]byte(" [1] "))))
}
