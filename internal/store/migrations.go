package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id            INTEGER PRIMARY KEY,
	sender        TEXT NOT NULL,
	event         TEXT NOT NULL,
	time_begin    TEXT NOT NULL,
	time_end      TEXT NOT NULL,
	position      TEXT NOT NULL,
	abstract      TEXT NOT NULL,
	speaker_name  TEXT NOT NULL DEFAULT '',
	speaker_title TEXT NOT NULL DEFAULT ''
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		// Collapse rows written before the identity key was enforced,
		// keeping the most recently inserted row of each key.
		version: 2,
		sql: `
ALTER TABLE events ADD COLUMN revision INTEGER NOT NULL DEFAULT 0;

DELETE FROM events WHERE id NOT IN (
	SELECT MAX(id) FROM events
	GROUP BY sender, position, time_begin, time_end
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_events_identity
	ON events(sender, position, time_begin, time_end);

CREATE INDEX IF NOT EXISTS idx_events_time_begin ON events(time_begin);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

// speakerColumns were added to the events table after its first release.
// Databases created back then lack them and get them added on open.
var speakerColumns = []string{"speaker_name", "speaker_title"}
