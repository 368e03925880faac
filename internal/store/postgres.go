package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Postgres is a core.Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ core.Store = (*Postgres)(nil)

// NewPostgres creates a pool from cfg and optionally applies the schema.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	p := &Postgres{pool: pool}
	if cfg.Migrate {
		if err := p.migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Ping verifies the pool can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const eventColumns = `id, title, location, start_time, end_time, created_at`

func scanEvent(row pgx.Row) (core.Event, error) {
	var e core.Event
	err := row.Scan(&e.ID, &e.Title, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedAt)
	return e, err
}

// ListEvents returns every event in start order.
func (p *Postgres) ListEvents(ctx context.Context) ([]core.Event, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_time, id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetEvent loads one event.
func (p *Postgres) GetEvent(ctx context.Context, id uuid.UUID) (core.Event, error) {
	e, err := scanEvent(p.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Event{}, fmt.Errorf("%w: %s", core.ErrEventNotFound, id)
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CreateEvent inserts e.
func (p *Postgres) CreateEvent(ctx context.Context, e core.Event) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO events (id, title, location, start_time, end_time, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Title, e.Location, e.StartTime, e.EndTime, e.CreatedAt,
	)
	return err
}

// pgMemberSelect aggregates attendance count and event hours per member.
const pgMemberSelect = `
SELECT m.id, m.name, m.email, m.role, m.join_date,
       COUNT(a.id)::int,
       COALESCE(SUM(EXTRACT(EPOCH FROM (e.end_time - e.start_time)) / 3600), 0)::float8
FROM members m
LEFT JOIN attendance a ON a.member_id = m.id
LEFT JOIN events e ON e.id = a.event_id`

func scanMember(row pgx.Row) (core.Member, error) {
	var m core.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.JoinDate, &m.Attendance, &m.Hours)
	return m, err
}

// ListMembers returns the roster with attendance aggregates.
func (p *Postgres) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := p.pool.Query(ctx, pgMemberSelect+` GROUP BY m.id ORDER BY m.join_date, m.name`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember loads one member with attendance aggregates.
func (p *Postgres) GetMember(ctx context.Context, id uuid.UUID) (core.Member, error) {
	m, err := scanMember(p.pool.QueryRow(ctx, pgMemberSelect+` WHERE m.id = $1 GROUP BY m.id`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Member{}, fmt.Errorf("%w: %s", core.ErrMemberNotFound, id)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// CreateMember inserts m.
func (p *Postgres) CreateMember(ctx context.Context, m core.Member) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO members (id, name, email, role, join_date) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Name, m.Email, m.Role, m.JoinDate,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: email %s already registered", core.ErrInvalidMember, m.Email)
	}
	return err
}

// MemberHistory lists the events a member attended, most recent first.
func (p *Postgres) MemberHistory(ctx context.Context, id uuid.UUID) ([]core.AttendanceEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT e.id, e.title, e.location, e.start_time, e.end_time, e.created_at, a.checked_in_at
		FROM attendance a
		JOIN events e ON e.id = a.event_id
		WHERE a.member_id = $1
		ORDER BY a.checked_in_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("member history: %w", err)
	}
	defer rows.Close()

	var history []core.AttendanceEntry
	for rows.Next() {
		var h core.AttendanceEntry
		e := &h.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Location, &e.StartTime, &e.EndTime, &e.CreatedAt, &h.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// RecordAttendance inserts a. A repeated member/event pair returns
// core.ErrAlreadyCheckedIn.
func (p *Postgres) RecordAttendance(ctx context.Context, a core.Attendance) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO attendance (id, member_id, event_id, checked_in_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.MemberID, a.EventID, a.CheckedInAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: member %s, event %s", core.ErrAlreadyCheckedIn, a.MemberID, a.EventID)
	}
	if err != nil {
		return fmt.Errorf("record attendance: %w", err)
	}
	return nil
}

// EventAttendance lists check-ins for an event in arrival order.
func (p *Postgres) EventAttendance(ctx context.Context, eventID uuid.UUID) ([]core.Attendance, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, member_id, event_id, checked_in_at
		FROM attendance WHERE event_id = $1
		ORDER BY checked_in_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("event attendance: %w", err)
	}
	defer rows.Close()

	var out []core.Attendance
	for rows.Next() {
		var a core.Attendance
		if err := rows.Scan(&a.ID, &a.MemberID, &a.EventID, &a.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttendanceCounts returns check-ins per event.
func (p *Postgres) AttendanceCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := p.pool.Query(ctx, `SELECT event_id, COUNT(*)::int FROM attendance GROUP BY event_id`)
	if err != nil {
		return nil, fmt.Errorf("attendance counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
