package core

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Fixtures
// ============================================================================

// rosterDef mirrors the users table without touching the global registry.
func rosterDef() TableDefinition {
	return TableDefinition{
		Info: TableInfo{
			Key:           "roster",
			Group:         "Test",
			Label:         "Roster",
			IdentityField: "id",
			DefaultSort:   "name",
			Columns:       []string{"id", "name", "email", "attendance", "hours", "role", "joined"},
		},
		FieldSpecs: []FieldSpec{
			{Name: "id", Label: "ID", Type: FieldNumeric, Sortable: true},
			{Name: "name", Label: "Name", Searchable: true, Sortable: true},
			{Name: "email", Label: "Email", Searchable: true, Sortable: true, CaseInsensitive: true},
			{Name: "attendance", Label: "Attendance", Type: FieldNumeric, Range: true, Bounds: NumericRange{Min: 0, Max: 50}, Sortable: true, DefaultZero: true},
			{Name: "hours", Label: "Hours", Type: FieldNumeric, Range: true, Bounds: NumericRange{Min: 0, Max: 100}, Sortable: true},
			{Name: "role", Label: "Role", Type: FieldEnum, Categorical: true, Sortable: true, EnumValues: Roles},
			{Name: "joined", Label: "Join Date", Type: FieldDate, Sortable: true},
		},
	}
}

// bobAlice is the two-record snapshot used by the scenario tests.
func bobAlice() []Record {
	return []Record{
		{"id": 1, "name": "Bob", "hours": 32.0, "role": "volunteer"},
		{"id": 2, "name": "Alice", "hours": 45.5, "role": "staff"},
	}
}

// volunteers is a larger snapshot with ties, missing values and mixed case.
func volunteers() []Record {
	return []Record{
		{"id": 1, "name": "Alice Johnson", "email": "alice@example.com", "attendance": 18, "hours": 45.5, "role": "volunteer", "joined": "2024-01-15"},
		{"id": 2, "name": "Bob Smith", "email": "BOB@example.com", "attendance": 12, "hours": 32.0, "role": "volunteer", "joined": "2024-02-20"},
		{"id": 3, "name": "Carol Davis", "email": "carol@example.com", "attendance": 22, "hours": 58.5, "role": "volunteer", "joined": "2023-11-10"},
		{"id": 4, "name": "David Wilson", "email": "david@example.com", "attendance": 15, "hours": 38.0, "role": "staff", "joined": "2024-03-05"},
		{"id": 5, "name": "Eve Martinez", "email": "eve@example.com", "hours": 52.0, "role": "volunteer", "joined": "2024-01-22"},
		{"id": 6, "name": "Frank Lee", "email": "frank@example.com", "attendance": 12, "role": "admin", "joined": "2024-02-20"},
	}
}

func field(recs []Record, name string) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r[name]
	}
	return out
}

func names(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i], _ = r["name"].(string)
	}
	return out
}

func ids(recs []Record) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i], _ = r["id"].(int)
	}
	return out
}

// ============================================================================
// In-memory Store
// ============================================================================

// memStore is a Store for service tests. failFetch makes list calls fail.
type memStore struct {
	mu         sync.Mutex
	events     []Event
	members    []Member
	attendance []Attendance
	failFetch  error
}

var _ Store = (*memStore)(nil)

func (s *memStore) ListEvents(ctx context.Context) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFetch != nil {
		return nil, s.failFetch
	}
	return slices.Clone(s.events), nil
}

func (s *memStore) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (s *memStore) CreateEvent(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memStore) ListMembers(ctx context.Context) ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFetch != nil {
		return nil, s.failFetch
	}
	out := make([]Member, len(s.members))
	for i, m := range s.members {
		m.Attendance, m.Hours = s.aggregate(m.ID)
		out[i] = m
	}
	return out, nil
}

func (s *memStore) aggregate(memberID uuid.UUID) (int, float64) {
	var n int
	var hours float64
	for _, a := range s.attendance {
		if a.MemberID != memberID {
			continue
		}
		n++
		for _, e := range s.events {
			if e.ID == a.EventID {
				hours += e.Hours()
			}
		}
	}
	return n, hours
}

func (s *memStore) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.ID == id {
			m.Attendance, m.Hours = s.aggregate(id)
			return m, nil
		}
	}
	return Member{}, ErrMemberNotFound
}

func (s *memStore) CreateMember(ctx context.Context, m Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, m)
	return nil
}

func (s *memStore) MemberHistory(ctx context.Context, id uuid.UUID) ([]AttendanceEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AttendanceEntry
	for _, a := range s.attendance {
		if a.MemberID != id {
			continue
		}
		for _, e := range s.events {
			if e.ID == a.EventID {
				out = append(out, AttendanceEntry{Event: e, CheckedInAt: a.CheckedInAt})
			}
		}
	}
	return out, nil
}

func (s *memStore) RecordAttendance(ctx context.Context, a Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.attendance {
		if existing.MemberID == a.MemberID && existing.EventID == a.EventID {
			return ErrAlreadyCheckedIn
		}
	}
	s.attendance = append(s.attendance, a)
	return nil
}

func (s *memStore) EventAttendance(ctx context.Context, eventID uuid.UUID) ([]Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Attendance
	for _, a := range s.attendance {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) AttendanceCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, a := range s.attendance {
		counts[a.EventID]++
	}
	return counts, nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error                   { return nil }

var errStoreDown = errors.New("dial tcp 127.0.0.1:5432: connection refused")

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
