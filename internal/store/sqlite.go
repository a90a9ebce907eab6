package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nhle/seminar-digest/internal/logging"
	"github.com/nhle/seminar-digest/internal/model"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("event not found")

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creating
// its parent directory, enables WAL mode for file databases, and runs any
// pending schema migrations.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, ioErr("open", errors.New("empty database path"))
	}

	inMemory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
	if !inMemory && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, ioErr("open", fmt.Errorf("creating database directory: %w", err))
		}
	}

	dsn := dbPath
	if !inMemory && !strings.Contains(dsn, "?") {
		// Writers take the lock at BEGIN and wait on busy_timeout, rather
		// than failing to upgrade a read snapshot mid-transaction.
		dsn += "?_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, ioErr("open", fmt.Errorf("opening sqlite db: %w", err))
	}

	// One connection keeps in-memory databases alive across statements and
	// serializes writers within this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, ioErr("open", fmt.Errorf("%s: %w", p, err))
		}
	}

	s := &SQLiteStore{db: db, logger: logging.OrNop(logger)}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, ioErr("migrate", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order, each in its own transaction.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Beginx()
		if err != nil {
			return fmt.Errorf("beginning migration v%d: %w", m.version, err)
		}
		before, err := countRows(tx, m.version)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if m.version == 1 {
			if err := addMissingColumns(tx); err != nil {
				tx.Rollback()
				return err
			}
		}
		after, err := countRows(tx, m.version)
		if err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", m.version, err)
		}

		if removed := before - after; removed > 0 {
			s.logger.Warn("collapsed duplicate events",
				zap.Int("version", m.version),
				zap.Int("removed", removed),
				zap.Int("kept", after),
			)
		}

		s.logger.Debug("applied migration", zap.Int("version", m.version))
	}

	return nil
}

// countRows returns the number of events before or after a migration. The
// events table only exists from v1 on, so earlier counts are zero.
func countRows(tx *sqlx.Tx, version int) (int, error) {
	if version < 2 {
		return 0, nil
	}
	var n int
	if err := tx.Get(&n, "SELECT COUNT(*) FROM events"); err != nil {
		return 0, fmt.Errorf("counting events for migration v%d: %w", version, err)
	}
	return n, nil
}

// addMissingColumns brings an events table created by an earlier release
// up to the v1 column set.
func addMissingColumns(tx *sqlx.Tx) error {
	var cols []string
	if err := tx.Select(&cols, "SELECT name FROM pragma_table_info('events')"); err != nil {
		return fmt.Errorf("inspecting events table: %w", err)
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}

	for _, c := range speakerColumns {
		if have[c] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE events ADD COLUMN %s TEXT NOT NULL DEFAULT ''", c)
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("adding column %s: %w", c, err)
		}
	}
	return nil
}

// upsertEventQuery inserts an event or, when a row with the same identity
// key exists, overwrites its descriptive fields in the same statement.
// revision is 0 for a fresh row and incremented on every update.
const upsertEventQuery = `
	INSERT INTO events (
		sender, event, time_begin, time_end, position,
		abstract, speaker_name, speaker_title
	) VALUES (
		:sender, :event, :time_begin, :time_end, :position,
		:abstract, :speaker_name, :speaker_title
	)
	ON CONFLICT (sender, position, time_begin, time_end) DO UPDATE SET
		event         = excluded.event,
		abstract      = excluded.abstract,
		speaker_name  = excluded.speaker_name,
		speaker_title = excluded.speaker_title,
		revision      = events.revision + 1
	RETURNING id, revision`

// Upsert writes a batch of events in one transaction.
func (s *SQLiteStore) Upsert(
	ctx context.Context,
	events []model.Event,
) (UpsertResult, error) {
	var result UpsertResult
	if len(events) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, ioErr("upsert", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertEventQuery)
	if err != nil {
		return result, ioErr("upsert", fmt.Errorf("preparing upsert statement: %w", err))
	}
	defer stmt.Close()

	for i, e := range events {
		var id int64
		var revision int
		if err := stmt.QueryRowxContext(ctx, e).Scan(&id, &revision); err != nil {
			return UpsertResult{}, ioErr("upsert", fmt.Errorf("upserting event %d (%q): %w", i, e.Title, err))
		}

		if revision == 0 {
			result.Inserted++
		} else {
			result.Updated++
		}

		s.logger.Debug("upserted event",
			zap.Int64("id", id),
			zap.Int("revision", revision),
			zap.String("sender", e.Sender),
			zap.String("time_begin", e.TimeBegin),
		)
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, ioErr("upsert", fmt.Errorf("committing: %w", err))
	}

	return result, nil
}

const selectEventColumns = `
	SELECT id, sender, event, time_begin, time_end, position,
		abstract, speaker_name, speaker_title, revision
	FROM events`

// SearchByTimeBegin returns events whose time_begin contains substring.
// instr is used instead of LIKE, which folds ASCII case and treats % and _
// as wildcards.
func (s *SQLiteStore) SearchByTimeBegin(
	ctx context.Context,
	substring string,
) ([]model.Event, error) {
	query := selectEventColumns
	var args []interface{}
	if substring != "" {
		query += " WHERE instr(time_begin, ?) > 0"
		args = append(args, substring)
	}
	query += " ORDER BY time_begin ASC, id ASC"

	var events []model.Event
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, ioErr("search", fmt.Errorf("searching time_begin %q: %w", substring, err))
	}

	return events, nil
}

// GetEvent retrieves a single event by its id.
func (s *SQLiteStore) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	err := s.db.GetContext(ctx, &e, selectEventColumns+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, ioErr("get", fmt.Errorf("getting event %d: %w", id, err))
	}
	return &e, nil
}

// CountEvents returns the number of stored events.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM events"); err != nil {
		return 0, ioErr("count", err)
	}
	return n, nil
}
