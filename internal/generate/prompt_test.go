package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/seminar-digest/internal/model"
)

func TestFormatMessages(t *testing.T) {
	msgs := []model.Message{
		{Sender: "a@mails.tsinghua.edu.cn", Subject: `Talk: "Go"`, Body: "line one\r\nline two"},
		{Sender: "b@mail.tsinghua.edu.cn", Subject: "讲座", Body: ""},
	}

	want := `mails = {{sender: "a@mails.tsinghua.edu.cn", subject: "Talk: 'Go'", body: "line one  line two"}, ` +
		`{sender: "b@mail.tsinghua.edu.cn", subject: "讲座", body: ""}}`
	assert.Equal(t, want, FormatMessages(msgs))
}

func TestFormatMessages_Empty(t *testing.T) {
	assert.Equal(t, "mails = {}", FormatMessages(nil))
}

func TestBuildPrompt(t *testing.T) {
	msgs := []model.Message{{Sender: "a@x", Subject: "s", Body: "b"}}

	got := BuildPrompt("input = {emails_input}\nsummarize", msgs)
	assert.Equal(t, `input = mails = {{sender: "a@x", subject: "s", body: "b"}}`+"\nsummarize", got)

	got = BuildPrompt("summarize", msgs)
	assert.Equal(t, `input = mails = {{sender: "a@x", subject: "s", body: "b"}}`+"\nsummarize", got)
}
