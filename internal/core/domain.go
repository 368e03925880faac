package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Member roles.
const (
	RoleVolunteer = "volunteer"
	RoleStaff     = "staff"
	RoleAdmin     = "admin"
)

// Event status values derived at snapshot time.
const (
	StatusUpcoming = "upcoming"
	StatusPast     = "past"
)

// Event is a scheduled volunteer event.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Status reports whether the event has ended relative to now.
func (e Event) Status(now time.Time) string {
	if e.EndTime.Before(now) {
		return StatusPast
	}
	return StatusUpcoming
}

// Hours returns the event duration in hours.
func (e Event) Hours() float64 {
	return e.EndTime.Sub(e.StartTime).Hours()
}

// Member is a roster entry with attendance aggregates filled in by the store.
type Member struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	JoinDate   time.Time `json:"join_date"`
	Attendance int       `json:"attendance"`
	Hours      float64   `json:"hours"`
}

// Attendance records one member checking in to one event.
type Attendance struct {
	ID          uuid.UUID `json:"id"`
	MemberID    uuid.UUID `json:"member_id"`
	EventID     uuid.UUID `json:"event_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// AttendanceEntry is one row of a member's attendance history.
type AttendanceEntry struct {
	Event       Event     `json:"event"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Store is the persistence boundary. Implementations live in internal/store.
type Store interface {
	ListEvents(ctx context.Context) ([]Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	CreateEvent(ctx context.Context, e Event) error

	ListMembers(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (Member, error)
	CreateMember(ctx context.Context, m Member) error
	MemberHistory(ctx context.Context, id uuid.UUID) ([]AttendanceEntry, error)

	// RecordAttendance returns ErrAlreadyCheckedIn when the member already
	// has an attendance row for the event.
	RecordAttendance(ctx context.Context, a Attendance) error
	EventAttendance(ctx context.Context, eventID uuid.UUID) ([]Attendance, error)
	// AttendanceCounts maps event ID to attendee count; events without
	// attendance may be absent.
	AttendanceCounts(ctx context.Context) (map[uuid.UUID]int, error)

	Ping(ctx context.Context) error
	Close() error
}
