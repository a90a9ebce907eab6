package generate

import (
	"strings"

	"github.com/nhle/seminar-digest/internal/model"
)

// InputPlaceholder marks where the formatted messages go in a prompt
// template.
const InputPlaceholder = "{emails_input}"

var promptCleaner = strings.NewReplacer(`"`, "'", "\n", " ", "\r", " ")

// FormatMessages renders messages as
// mails = {{sender: "...", subject: "...", body: "..."}, ...}
// with double quotes turned into single quotes and line breaks into spaces.
func FormatMessages(msgs []model.Message) string {
	var sb strings.Builder
	sb.WriteString("mails = {")
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(`{sender: "`)
		sb.WriteString(promptCleaner.Replace(m.Sender))
		sb.WriteString(`", subject: "`)
		sb.WriteString(promptCleaner.Replace(m.Subject))
		sb.WriteString(`", body: "`)
		sb.WriteString(promptCleaner.Replace(m.Body))
		sb.WriteString(`"}`)
	}
	sb.WriteString("}")
	return sb.String()
}

// BuildPrompt substitutes the formatted messages into template. A template
// without the placeholder gets the messages prepended as an input line.
func BuildPrompt(template string, msgs []model.Message) string {
	input := FormatMessages(msgs)
	if !strings.Contains(template, InputPlaceholder) {
		return "input = " + input + "\n" + template
	}
	return strings.ReplaceAll(template, InputPlaceholder, input)
}
