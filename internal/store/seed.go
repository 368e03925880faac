package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/rollcall/internal/core"
)

// SeedResult counts the rows Seed inserted.
type SeedResult struct {
	Members    int
	Events     int
	Attendance int
}

type seedMember struct {
	name, email, role, joined string
}

var seedMembers = []seedMember{
	{"Alice Johnson", "alice@example.com", core.RoleVolunteer, "2024-01-15"},
	{"Bob Smith", "bob@example.com", core.RoleVolunteer, "2024-02-20"},
	{"Carol Davis", "carol@example.com", core.RoleVolunteer, "2023-11-10"},
	{"David Wilson", "david@example.com", core.RoleStaff, "2024-03-05"},
	{"Eve Martinez", "eve@example.com", core.RoleVolunteer, "2024-01-22"},
}

type seedEvent struct {
	title, location string
	offsetDays      int
	hours           int
	attendees       []int // indexes into seedMembers
}

var seedEvents = []seedEvent{
	{"Beach Cleanup", "Ocean Beach", -30, 3, []int{0, 1, 2, 4}},
	{"Food Bank Sorting", "Mission Food Hub", -14, 4, []int{0, 2, 3}},
	{"Tree Planting", "Golden Gate Park", -3, 5, []int{2, 4}},
	{"Community Garden", "Alemany Farm", 7, 3, nil},
	{"Winter Coat Drive", "City Hall Plaza", 21, 6, nil},
}

// Seed inserts a small demo roster and event calendar relative to now.
// Existing rows are left alone; members whose email already exists are
// skipped along with their attendance.
func Seed(ctx context.Context, s core.Store, now time.Time) (SeedResult, error) {
	var res SeedResult

	memberIDs := make([]uuid.UUID, len(seedMembers))
	for i, sm := range seedMembers {
		joined, err := time.Parse(core.DateLayout, sm.joined)
		if err != nil {
			return res, err
		}
		m := core.Member{ID: uuid.New(), Name: sm.name, Email: sm.email, Role: sm.role, JoinDate: joined}
		if err := s.CreateMember(ctx, m); err != nil {
			if errors.Is(err, core.ErrInvalidMember) {
				continue
			}
			return res, fmt.Errorf("seed member %s: %w", sm.email, err)
		}
		memberIDs[i] = m.ID
		res.Members++
	}

	day := now.UTC().Truncate(24 * time.Hour)
	for _, se := range seedEvents {
		start := day.AddDate(0, 0, se.offsetDays).Add(9 * time.Hour)
		e := core.Event{
			ID:        uuid.New(),
			Title:     se.title,
			Location:  se.location,
			StartTime: start,
			EndTime:   start.Add(time.Duration(se.hours) * time.Hour),
			CreatedAt: start.AddDate(0, 0, -14),
		}
		if err := s.CreateEvent(ctx, e); err != nil {
			return res, fmt.Errorf("seed event %s: %w", se.title, err)
		}
		res.Events++

		for n, idx := range se.attendees {
			if memberIDs[idx] == uuid.Nil {
				continue
			}
			a := core.Attendance{
				ID:          uuid.New(),
				MemberID:    memberIDs[idx],
				EventID:     e.ID,
				CheckedInAt: start.Add(time.Duration(n*4) * time.Minute),
			}
			if err := s.RecordAttendance(ctx, a); err != nil {
				return res, fmt.Errorf("seed attendance: %w", err)
			}
			res.Attendance++
		}
	}
	return res, nil
}
