package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/rollcall/internal/core"
)

// SQLite is a core.Store backed by an embedded SQLite database.
// Timestamps are stored as RFC 3339 text in UTC.
type SQLite struct {
	db *sql.DB
}

var _ core.Store = (*SQLite)(nil)

const sqliteTimeLayout = time.RFC3339Nano

// NewSQLite opens (or creates) the database at path. path may be a file
// name or a "file:" URI; ":memory:" opens a private in-memory database.
func NewSQLite(ctx context.Context, path string, migrate bool) (*SQLite, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps a ":memory:" database on one connection.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if migrate {
		if err := s.migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping verifies the database is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(core.DateLayout, s)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqlErr.Error(), "UNIQUE")
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEvent(row scanner) (core.Event, error) {
	var (
		e                      core.Event
		id, start, end, create string
	)
	if err := row.Scan(&id, &e.Title, &e.Location, &start, &end, &create); err != nil {
		return core.Event{}, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return core.Event{}, fmt.Errorf("event id %q: %w", id, err)
	}
	if e.StartTime, err = parseTime(start); err != nil {
		return core.Event{}, err
	}
	if e.EndTime, err = parseTime(end); err != nil {
		return core.Event{}, err
	}
	if e.CreatedAt, err = parseTime(create); err != nil {
		return core.Event{}, err
	}
	return e, nil
}

// ListEvents returns every event in start order.
func (s *SQLite) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		e, err := scanSQLiteEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent loads one event.
func (s *SQLite) GetEvent(ctx context.Context, id uuid.UUID) (core.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id.String())
	e, err := scanSQLiteEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Event{}, fmt.Errorf("%w: %s", core.ErrEventNotFound, id)
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CreateEvent inserts e.
func (s *SQLite) CreateEvent(ctx context.Context, e core.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, location, start_time, end_time, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Title, e.Location, formatTime(e.StartTime), formatTime(e.EndTime), formatTime(e.CreatedAt),
	)
	return err
}

// ListMembers returns the roster. Hours are summed in Go because SQLite
// has no interval arithmetic on text timestamps.
func (s *SQLite) ListMembers(ctx context.Context) ([]core.Member, error) {
	members, err := s.queryMembers(ctx, `SELECT id, name, email, role, join_date FROM members ORDER BY join_date, name`)
	if err != nil {
		return nil, err
	}
	if err := s.fillAggregates(ctx, members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetMember loads one member with attendance aggregates.
func (s *SQLite) GetMember(ctx context.Context, id uuid.UUID) (core.Member, error) {
	members, err := s.queryMembers(ctx, `SELECT id, name, email, role, join_date FROM members WHERE id = ?`, id.String())
	if err != nil {
		return core.Member{}, err
	}
	if len(members) == 0 {
		return core.Member{}, fmt.Errorf("%w: %s", core.ErrMemberNotFound, id)
	}
	if err := s.fillAggregates(ctx, members); err != nil {
		return core.Member{}, err
	}
	return members[0], nil
}

func (s *SQLite) queryMembers(ctx context.Context, query string, args ...any) ([]core.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var (
			m        core.Member
			id, join string
		)
		if err := rows.Scan(&id, &m.Name, &m.Email, &m.Role, &join); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("member id %q: %w", id, err)
		}
		if m.JoinDate, err = parseTime(join); err != nil {
			return nil, fmt.Errorf("member join date: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// fillAggregates sets Attendance and Hours on members from one join query.
func (s *SQLite) fillAggregates(ctx context.Context, members []core.Member) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.member_id, e.start_time, e.end_time
		FROM attendance a
		JOIN events e ON e.id = a.event_id`)
	if err != nil {
		return fmt.Errorf("attendance aggregates: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int, len(members))
	for i, m := range members {
		index[m.ID.String()] = i
	}

	for rows.Next() {
		var memberID, start, end string
		if err := rows.Scan(&memberID, &start, &end); err != nil {
			return fmt.Errorf("scan aggregate: %w", err)
		}
		i, ok := index[memberID]
		if !ok {
			continue
		}
		st, err := parseTime(start)
		if err != nil {
			return err
		}
		et, err := parseTime(end)
		if err != nil {
			return err
		}
		members[i].Attendance++
		members[i].Hours += et.Sub(st).Hours()
	}
	return rows.Err()
}

// CreateMember inserts m.
func (s *SQLite) CreateMember(ctx context.Context, m core.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, name, email, role, join_date) VALUES (?, ?, ?, ?, ?)`,
		m.ID.String(), m.Name, m.Email, m.Role, m.JoinDate.Format(core.DateLayout),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s already registered", core.ErrInvalidMember, m.Email)
	}
	return err
}

// MemberHistory lists the events a member attended, most recent first.
func (s *SQLite) MemberHistory(ctx context.Context, id uuid.UUID) ([]core.AttendanceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.location, e.start_time, e.end_time, e.created_at, a.checked_in_at
		FROM attendance a
		JOIN events e ON e.id = a.event_id
		WHERE a.member_id = ?
		ORDER BY a.checked_in_at DESC`, id.String())
	if err != nil {
		return nil, fmt.Errorf("member history: %w", err)
	}
	defer rows.Close()

	var history []core.AttendanceEntry
	for rows.Next() {
		var (
			eid, start, end, create, at string
			h                           core.AttendanceEntry
		)
		if err := rows.Scan(&eid, &h.Event.Title, &h.Event.Location, &start, &end, &create, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if h.Event.ID, err = uuid.Parse(eid); err != nil {
			return nil, err
		}
		if h.Event.StartTime, err = parseTime(start); err != nil {
			return nil, err
		}
		if h.Event.EndTime, err = parseTime(end); err != nil {
			return nil, err
		}
		if h.Event.CreatedAt, err = parseTime(create); err != nil {
			return nil, err
		}
		if h.CheckedInAt, err = parseTime(at); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// RecordAttendance inserts a. A repeated member/event pair returns
// core.ErrAlreadyCheckedIn.
func (s *SQLite) RecordAttendance(ctx context.Context, a core.Attendance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (id, member_id, event_id, checked_in_at) VALUES (?, ?, ?, ?)`,
		a.ID.String(), a.MemberID.String(), a.EventID.String(), formatTime(a.CheckedInAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: member %s, event %s", core.ErrAlreadyCheckedIn, a.MemberID, a.EventID)
	}
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	return nil
}

// EventAttendance lists check-ins for an event in arrival order.
func (s *SQLite) EventAttendance(ctx context.Context, eventID uuid.UUID) ([]core.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, event_id, checked_in_at
		FROM attendance WHERE event_id = ?
		ORDER BY checked_in_at`, eventID.String())
	if err != nil {
		return nil, fmt.Errorf("event attendance: %w", err)
	}
	defer rows.Close()

	var out []core.Attendance
	for rows.Next() {
		var id, member, event, at string
		if err := rows.Scan(&id, &member, &event, &at); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		a := core.Attendance{}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if a.MemberID, err = uuid.Parse(member); err != nil {
			return nil, err
		}
		if a.EventID, err = uuid.Parse(event); err != nil {
			return nil, err
		}
		if a.CheckedInAt, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttendanceCounts returns check-ins per event.
func (s *SQLite) AttendanceCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_id, COUNT(*) FROM attendance GROUP BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("attendance counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		eid, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		counts[eid] = n
	}
	return counts, rows.Err()
}
