package email

import (
	"bytes"
	"fmt"
	"mime"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func init() {
	// Chinese mailers still send GBK and GB18030 bodies and headers.
	charset.RegisterEncoding("gbk", simplifiedchinese.GBK)
	charset.RegisterEncoding("gb2312", simplifiedchinese.GBK)
	charset.RegisterEncoding("gb18030", simplifiedchinese.GB18030)
}

// wordDecoder decodes RFC 2047 encoded words in any registered charset.
var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// ParseMessage parses a raw RFC 5322 message into its normalized sender,
// decoded subject and body part tree.
func ParseMessage(raw []byte, maxDepth int) (*ParsedMessage, error) {
	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("reading message: %w", err)
	}

	h := mail.Header{Header: e.Header}

	from, err := h.Text("From")
	if err != nil {
		from = h.Get("From")
	}

	subject, err := h.Subject()
	if err != nil {
		subject = h.Get("Subject")
	}

	parts, err := BuildPartTree(e, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("walking body parts: %w", err)
	}

	return &ParsedMessage{
		Sender:  NormalizeAddress(from),
		Subject: subject,
		Parts:   parts,
	}, nil
}
