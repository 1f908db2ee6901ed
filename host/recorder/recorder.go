// Package recorder stores board telemetry in SQLite and summarises it
package recorder

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sesboard/host/logx"
	"sesboard/protocol"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store is a telemetry database
type Store struct {
	db  *sql.DB
	log logx.Logger
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" keeps it in RAM.
func Open(path string, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("recorder: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: writers serialize and :memory: stays a single database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	s := &Store{db: db, log: log, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("recorder: schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a Status or Event; other messages are ignored
func (s *Store) Record(ctx context.Context, msg protocol.Message) error {
	at := s.now().UnixMilli()
	switch m := msg.(type) {
	case *protocol.Status:
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO status(at, board_time, state, duty, motor_on, recent_centi_hz, median_centi_hz, temp_deci_c, joystick, buttons)
			 VALUES(?,?,?,?,?,?,?,?,?,?)`,
			at, m.Time, m.State, m.Duty, m.MotorOn, m.RecentCentiHz, m.MedianCentiHz, m.TempDeciC, m.Joystick, m.Buttons,
		)
		return err
	case *protocol.Event:
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO events(at, board_time, kind, value) VALUES(?,?,?,?)`,
			at, m.Time, uint8(m.Kind), m.Value,
		)
		return err
	}
	return nil
}

// Sink returns a message handler that records and logs failures
func (s *Store) Sink(ctx context.Context) func(protocol.Message) {
	return func(msg protocol.Message) {
		if err := s.Record(ctx, msg); err != nil {
			s.log.Warn("record failed", logx.Err(err))
		}
	}
}

// Prune deletes rows older than retention and returns how many went
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().Add(-retention).UnixMilli()
	var total int64
	for _, table := range []string{"status", "events"} {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE at < ?", cutoff)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Sample is one stored status row
type Sample struct {
	At            time.Time
	State         uint8
	Duty          uint8
	MotorOn       bool
	MedianCentiHz uint32
	TempDeciC     int32
}

// Samples returns the status rows recorded at or after since, oldest first
func (s *Store) Samples(ctx context.Context, since time.Time) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, state, duty, motor_on, median_centi_hz, temp_deci_c FROM status WHERE at >= ? ORDER BY at, id`,
		since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			at   int64
			smp  Sample
			motr int64
		)
		if err := rows.Scan(&at, &smp.State, &smp.Duty, &motr, &smp.MedianCentiHz, &smp.TempDeciC); err != nil {
			return nil, err
		}
		smp.At = time.UnixMilli(at)
		smp.MotorOn = motr != 0
		out = append(out, smp)
	}
	return out, rows.Err()
}

// EventCounts returns the number of stored events per kind since since
func (s *Store) EventCounts(ctx context.Context, since time.Time) (map[protocol.EventKind]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM events WHERE at >= ? GROUP BY kind`, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[protocol.EventKind]int)
	for rows.Next() {
		var kind, n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[protocol.EventKind(kind)] = n
	}
	return out, rows.Err()
}
