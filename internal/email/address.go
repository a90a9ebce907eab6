package email

import "strings"

// DefaultAllowedSenders are the institutional mail domains kept by default.
var DefaultAllowedSenders = []string{"mail.tsinghua", "mails.tsinghua"}

// NormalizeAddress reduces a From header value to a bare, lower-cased
// address: the text after the last '<' up to the following '>', trimmed.
// Values without angle brackets are only trimmed and lower-cased.
func NormalizeAddress(s string) string {
	if i := strings.LastIndex(s, "<"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ">"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// SenderFilter keeps senders whose normalized address contains one of the
// allowed substrings.
type SenderFilter struct {
	allowed []string
}

// NewSenderFilter builds a filter. An empty list selects
// DefaultAllowedSenders.
func NewSenderFilter(allowed []string) SenderFilter {
	var cleaned []string
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		cleaned = DefaultAllowedSenders
	}
	return SenderFilter{allowed: cleaned}
}

// Allows reports whether the normalized sender passes the filter.
func (f SenderFilter) Allows(sender string) bool {
	for _, a := range f.allowed {
		if strings.Contains(sender, a) {
			return true
		}
	}
	return false
}
