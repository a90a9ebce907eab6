package email

import (
	"errors"
	"fmt"
)

// Query describes one retrieval run against a mailbox.
type Query struct {
	Address  string
	Password string
	Host     string

	// LookbackDays selects messages received on or after today minus this
	// many days. The server compares dates only, not times.
	LookbackDays int
}

// ParsedMessage is a raw message reduced to its sender, subject and body
// part tree.
type ParsedMessage struct {
	Sender  string
	Subject string
	Parts   *PartTree
}

// Stage names the step of the IMAP session that failed.
type Stage string

const (
	StageDial   Stage = "dial"
	StageLogin  Stage = "login"
	StageSelect Stage = "select"
	StageSearch Stage = "search"
	StageFetch  Stage = "fetch"
)

// ConnectionError indicates the mail server could not be reached, refused
// the credentials, or broke the session. The whole retrieval fails.
type ConnectionError struct {
	Host  string
	Stage Stage
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("imap %s %s: %v", e.Stage, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err (or any error in its chain) is a
// ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// MessageParseError is reported for a single message that could not be
// parsed. Retrieval skips such messages and carries on.
type MessageParseError struct {
	UID uint32
	Err error
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("parsing message UID %d: %v", e.UID, e.Err)
}

func (e *MessageParseError) Unwrap() error { return e.Err }
