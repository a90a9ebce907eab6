package model

// Message is a single invitation email pulled from the mailbox, reduced to
// the fields the generation prompt needs.
type Message struct {
	// Sender is the bare, lower-cased address without display name.
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Event is one announced seminar or activity. The same struct is used for
// records decoded from the generation output and for persisted rows.
type Event struct {
	ID           int64  `db:"id" json:"id,omitempty"`
	Sender       string `db:"sender" json:"sender"`
	Title        string `db:"event" json:"event"`
	TimeBegin    string `db:"time_begin" json:"time_begin"`
	TimeEnd      string `db:"time_end" json:"time_end"`
	Position     string `db:"position" json:"position"`
	Abstract     string `db:"abstract" json:"abstract"`
	SpeakerName  string `db:"speaker_name" json:"speaker_name"`
	SpeakerTitle string `db:"speaker_title" json:"speaker_title"`

	// Revision counts how many times the row has been updated in place.
	// Rows are identified by (Sender, Position, TimeBegin, TimeEnd); Title
	// is overwritten on update.
	Revision int `db:"revision" json:"-"`
}
