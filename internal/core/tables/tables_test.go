package tables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/rollcall/internal/core"
)

// fakeStore serves fixed events, members and counts.
type fakeStore struct {
	core.Store
	events  []core.Event
	members []core.Member
	counts  map[uuid.UUID]int
	err     error
}

func (s fakeStore) ListEvents(context.Context) ([]core.Event, error)   { return s.events, s.err }
func (s fakeStore) ListMembers(context.Context) ([]core.Member, error) { return s.members, s.err }
func (s fakeStore) AttendanceCounts(context.Context) (map[uuid.UUID]int, error) {
	return s.counts, s.err
}

func TestRegisteredTables(t *testing.T) {
	for _, key := range []string{UsersKey, EventsKey} {
		def, ok := core.Get(key)
		if !ok {
			t.Fatalf("table %q not registered", key)
		}
		if def.Fetch == nil {
			t.Errorf("table %q has no fetch function", key)
		}
		if len(def.Info.Columns) != len(def.FieldSpecs) {
			t.Errorf("table %q columns = %v", key, def.Info.Columns)
		}
	}

	users, _ := core.Get(UsersKey)
	role, _ := users.Field("role")
	if !role.Categorical || len(role.EnumValues) != 3 {
		t.Errorf("role field = %+v", role)
	}
	email, _ := users.Field("email")
	if !email.CaseInsensitive || !email.Searchable {
		t.Errorf("email field = %+v", email)
	}
}

func TestUsersSource(t *testing.T) {
	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	alice := core.Member{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Role: core.RoleStaff, JoinDate: joined, Attendance: 3, Hours: 45.5}
	bob := core.Member{ID: uuid.New(), Name: "Bob", Email: "bob@example.com", Role: core.RoleVolunteer, JoinDate: joined, Attendance: 1, Hours: 32}

	def, _ := core.Get(UsersKey)
	records, err := def.Source(fakeStore{members: []core.Member{bob, alice}}, time.Now).FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if records[1]["id"] != alice.ID.String() || records[1]["hours"] != 45.5 || records[1]["role"] != "staff" {
		t.Errorf("record = %v", records[1])
	}

	fc := core.DefaultFilterCriteria(def)
	fc.Ranges["hours"] = core.NumericRange{Min: 40, Max: 100}
	got := core.Curate(def, records, fc, core.DefaultSortCriteria(def))
	if len(got) != 1 || got[0]["name"] != "Alice" {
		t.Errorf("hours >= 40 = %v", got)
	}

	_, err = def.Source(fakeStore{err: errors.New("down")}, time.Now).FetchAll(context.Background())
	if err == nil {
		t.Error("expected fetch error")
	}
}

func TestEventsSource(t *testing.T) {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	past := core.Event{ID: uuid.New(), Title: "Park Cleanup", Location: "Golden Gate", StartTime: fixed.Add(-72 * time.Hour), EndTime: fixed.Add(-70 * time.Hour)}
	upcoming := core.Event{ID: uuid.New(), Title: "Food Drive", Location: "Mission", StartTime: fixed.Add(24 * time.Hour), EndTime: fixed.Add(27 * time.Hour)}

	def, _ := core.Get(EventsKey)
	store := fakeStore{
		events: []core.Event{upcoming, past},
		counts: map[uuid.UUID]int{past.ID: 12},
	}
	records, err := def.Source(store, func() time.Time { return fixed }).FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if records[0]["status"] != core.StatusUpcoming || records[1]["status"] != core.StatusPast {
		t.Errorf("statuses = %v, %v", records[0]["status"], records[1]["status"])
	}
	if records[0]["attendees"] != 0 || records[1]["attendees"] != 12 {
		t.Errorf("attendees = %v, %v", records[0]["attendees"], records[1]["attendees"])
	}
	if records[1]["hours"] != 2.0 {
		t.Errorf("hours = %v", records[1]["hours"])
	}

	// Default sort is chronological.
	sorted := core.Curate(def, records, core.DefaultFilterCriteria(def), core.DefaultSortCriteria(def))
	if sorted[0]["title"] != "Park Cleanup" {
		t.Errorf("first event = %v", sorted[0]["title"])
	}

	fc := core.DefaultFilterCriteria(def)
	fc.Categorical["status"] = core.StatusPast
	if got := core.Curate(def, records, fc, core.DefaultSortCriteria(def)); len(got) != 1 {
		t.Errorf("past events = %d", len(got))
	}

	start, _ := def.Field("start_time")
	if got := start.Format(records[1]["start_time"]); got != "2025-06-12 12:00" {
		t.Errorf("start display = %q", got)
	}
}

func TestEventStatusFollowsServiceClock(t *testing.T) {
	clock := time.Date(2031, 3, 1, 9, 0, 0, 0, time.UTC)
	// Upcoming by the wall clock, past by the service clock.
	gala := core.Event{ID: uuid.New(), Title: "Spring Gala", Location: "Town Hall", StartTime: clock.Add(-48 * time.Hour), EndTime: clock.Add(-45 * time.Hour)}
	fair := core.Event{ID: uuid.New(), Title: "Summer Fair", Location: "Park", StartTime: clock.Add(24 * time.Hour), EndTime: clock.Add(30 * time.Hour)}

	svc := core.NewService(fakeStore{events: []core.Event{gala, fair}}, core.NewSessionStore(time.Minute, time.Minute), core.ServiceConfig{
		Now: func() time.Time { return clock },
	})
	sess := svc.Sessions().Create()

	res, err := svc.View(context.Background(), sess.ID, EventsKey, false)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]any{}
	for _, r := range res.Records {
		got[r["title"].(string)] = r["status"]
	}
	if got["Spring Gala"] != core.StatusPast || got["Summer Fair"] != core.StatusUpcoming {
		t.Errorf("statuses = %v, want gala past and fair upcoming", got)
	}
}
