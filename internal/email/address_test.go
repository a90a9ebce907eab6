package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "display name", input: "John Doe <john@example.com>", want: "john@example.com"},
		{name: "bare", input: "no-brackets@example.com", want: "no-brackets@example.com"},
		{name: "spaces", input: "  spaced@example.com  ", want: "spaced@example.com"},
		{name: "case folded", input: `"Office" <Office@Mails.Tsinghua.EDU.cn>`, want: "office@mails.tsinghua.edu.cn"},
		{name: "inner spaces", input: "Name < padded@example.com >", want: "padded@example.com"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAddress(tt.input))
		})
	}
}

func TestSenderFilter(t *testing.T) {
	f := NewSenderFilter(nil)

	assert.True(t, f.Allows("someone@mail.tsinghua.edu.cn"))
	assert.True(t, f.Allows("someone@mails.tsinghua.edu.cn"))
	assert.False(t, f.Allows("someone@example.com"))
	assert.False(t, f.Allows(""))
}

func TestSenderFilterCustom(t *testing.T) {
	f := NewSenderFilter([]string{" PKU.edu.cn ", ""})

	assert.True(t, f.Allows("a@pku.edu.cn"))
	assert.False(t, f.Allows("someone@mail.tsinghua.edu.cn"))
}
