package core

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/rollcall/internal/metrics"
)

var serviceNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// peopleDef is a members-backed table registered for service tests.
func peopleDef() TableDefinition {
	def := rosterDef()
	def.Info.Key = "people"
	def.Info.IdentityField = "name"
	def.Fetch = func(ctx context.Context, store Store, _ time.Time) ([]Record, error) {
		members, err := store.ListMembers(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Record, len(members))
		for i, m := range members {
			out[i] = Record{"name": m.Name, "email": m.Email, "role": m.Role, "attendance": m.Attendance, "hours": m.Hours, "joined": m.JoinDate}
		}
		return out, nil
	}
	return def
}

type serviceFixture struct {
	svc     *Service
	store   *memStore
	metrics *metrics.Metrics
	session string
	beach   Event
	bob     Member
	alice   Member
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	withCleanRegistry(t)
	Register(peopleDef())

	beach := Event{
		ID:        uuid.New(),
		Title:     "Beach Cleanup",
		Location:  "Ocean Beach",
		StartTime: serviceNow.Add(-48 * time.Hour),
		EndTime:   serviceNow.Add(-45 * time.Hour),
		CreatedAt: serviceNow.Add(-240 * time.Hour),
	}
	bob := Member{ID: uuid.New(), Name: "Bob", Email: "bob@example.com", Role: RoleVolunteer}
	alice := Member{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Role: RoleStaff}

	store := &memStore{events: []Event{beach}, members: []Member{bob, alice}}
	m := metrics.New()
	svc := NewService(store, NewSessionStore(time.Minute, time.Minute), ServiceConfig{
		Metrics: m,
		Now:     fixedClock(serviceNow),
	})

	return &serviceFixture{
		svc:     svc,
		store:   store,
		metrics: m,
		session: svc.Sessions().Create().ID,
		beach:   beach,
		bob:     bob,
		alice:   alice,
	}
}

func TestService_CurationFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	res, err := f.svc.View(ctx, f.session, "people", false)
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Records); !slices.Equal(got, []string{"Alice", "Bob"}) {
		t.Errorf("initial view = %v", got)
	}

	res, err = f.svc.ToggleSort(ctx, f.session, "people", "name")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Records); !slices.Equal(got, []string{"Bob", "Alice"}) {
		t.Errorf("after toggle = %v", got)
	}

	res, err = f.svc.SetCategory(ctx, f.session, "people", "role", "staff")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Records); !slices.Equal(got, []string{"Alice"}) || res.Total != 2 {
		t.Errorf("role=staff = %v (total %d)", got, res.Total)
	}

	res, err = f.svc.SetSearch(ctx, f.session, "people", "BOB")
	if err != nil {
		t.Fatal(err)
	}
	if res.Visible != 0 {
		t.Errorf("search bob within staff = %v", names(res.Records))
	}

	res, err = f.svc.ResetFilters(ctx, f.session, "people")
	if err != nil {
		t.Fatal(err)
	}
	if got := names(res.Records); !slices.Equal(got, []string{"Bob", "Alice"}) {
		t.Errorf("after reset = %v, want sort kept", got)
	}

	if got := testutil.ToFloat64(f.metrics.CurationsTotal.WithLabelValues("people", metrics.OutcomeOK)); got != 5 {
		t.Errorf("ok curations = %v, want 5", got)
	}
}

func TestService_SetRangeWarnsInsteadOfFailing(t *testing.T) {
	f := newServiceFixture(t)

	res, err := f.svc.SetRange(context.Background(), f.session, "people", "hours", "ten", "")
	if err != nil {
		t.Fatalf("SetRange() error = %v, want warning only", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "not a number") {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if res.Visible != 2 {
		t.Errorf("visible = %d, want full range applied", res.Visible)
	}
}

func TestService_RejectedInput(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ToggleSort(ctx, f.session, "people", "shoe_size"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown sort err = %v", err)
	}
	if _, err := f.svc.View(ctx, f.session, "nope", false); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unknown table err = %v", err)
	}
	if _, err := f.svc.View(ctx, "expired", "people", false); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session err = %v", err)
	}
	if got := testutil.ToFloat64(f.metrics.CurationsTotal.WithLabelValues("people", metrics.OutcomeRejected)); got != 1 {
		t.Errorf("rejected curations = %v, want 1", got)
	}
}

func TestService_SourceUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.svc.View(ctx, f.session, "people", false); err != nil {
		t.Fatal(err)
	}

	f.store.failFetch = errStoreDown
	res, err := f.svc.View(ctx, f.session, "people", true)
	if err != nil {
		t.Fatalf("View() error = %v, want result with Err", err)
	}
	if !res.Unavailable() || !errors.Is(res.Err, ErrSourceUnavailable) {
		t.Errorf("Err = %v", res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("stale records served: %v", names(res.Records))
	}
	if got := testutil.ToFloat64(f.metrics.SourceFetchFailures.WithLabelValues("people")); got != 1 {
		t.Errorf("fetch failures = %v", got)
	}

	// The next request retries the fetch.
	f.store.failFetch = nil
	res, err = f.svc.SetSearch(ctx, f.session, "people", "")
	if err != nil || res.Unavailable() || res.Visible != 2 {
		t.Errorf("after recovery: %+v, %v", res, err)
	}
}

func TestService_Export(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SetCategory(ctx, f.session, "people", "role", "volunteer"); err != nil {
		t.Fatal(err)
	}

	var data []byte
	name, err := f.svc.Export(ctx, f.session, "people", SinkFunc(func(b []byte, _ string) error {
		data = b
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if name != "people_2025-06-15.csv" {
		t.Errorf("filename = %q", name)
	}
	if !strings.Contains(string(data), "Bob") || strings.Contains(string(data), "Alice") {
		t.Errorf("export ignores the curated view:\n%s", data)
	}
	if got := testutil.ToFloat64(f.metrics.ExportsTotal.WithLabelValues("people", metrics.TriggerHTTP)); got != 1 {
		t.Errorf("exports = %v", got)
	}
}

func TestService_ExportSavesOutsideSessionLock(t *testing.T) {
	f := newServiceFixture(t)
	sess, err := f.svc.Sessions().Get(f.session)
	if err != nil {
		t.Fatal(err)
	}

	locked := true
	_, err = f.svc.Export(context.Background(), f.session, "people", SinkFunc(func([]byte, string) error {
		if sess.mu.TryLock() {
			locked = false
			sess.mu.Unlock()
		}
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if locked {
		t.Error("session lock held while the sink was writing")
	}
}

func TestService_ExportSinkFailure(t *testing.T) {
	f := newServiceFixture(t)
	sinkErr := errors.New("client went away")

	_, err := f.svc.Export(context.Background(), f.session, "people", SinkFunc(func([]byte, string) error {
		return sinkErr
	}))
	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, sinkErr) {
		t.Errorf("Export() error = %v, want ErrExportFailed wrapping the sink error", err)
	}
	if got := testutil.ToFloat64(f.metrics.ExportsTotal.WithLabelValues("people", metrics.TriggerHTTP)); got != 0 {
		t.Errorf("exports = %v, want 0", got)
	}
}

func TestService_ExportSnapshot(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	var lines int
	_, err := f.svc.ExportSnapshot(ctx, "people", SinkFunc(func(b []byte, _ string) error {
		lines = strings.Count(string(b), "\n")
		return nil
	}), metrics.TriggerCLI)
	if err != nil {
		t.Fatal(err)
	}
	if lines != 3 {
		t.Errorf("snapshot export lines = %d, want header + 2", lines)
	}

	if _, err := f.svc.ExportSnapshot(ctx, "missing", SinkFunc(func([]byte, string) error { return nil }), metrics.TriggerCLI); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unknown table err = %v", err)
	}

	f.store.failFetch = errStoreDown
	if _, err := f.svc.ExportSnapshot(ctx, "people", SinkFunc(func([]byte, string) error { return nil }), metrics.TriggerCLI); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("failing source err = %v", err)
	}
}

func TestService_ExportBusy(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewService(f.store, nil, ServiceConfig{
		Metrics:              f.metrics,
		Now:                  fixedClock(serviceNow),
		MaxConcurrentExports: 1,
		ExportWait:           20 * time.Millisecond,
	})
	ctx := context.Background()

	var nested error
	_, err := svc.ExportSnapshot(ctx, "people", SinkFunc(func([]byte, string) error {
		_, nested = svc.ExportSnapshot(ctx, "people", SinkFunc(func([]byte, string) error { return nil }), metrics.TriggerCLI)
		return nil
	}), metrics.TriggerScheduled)
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(nested, ErrExportBusy) {
		t.Errorf("export while the only slot is held = %v, want ErrExportBusy", nested)
	}

	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := svc.DrainExports(drainCtx); err != nil {
		t.Errorf("DrainExports after completion = %v", err)
	}
}

func TestService_Stats(t *testing.T) {
	f := newServiceFixture(t)
	stats := f.svc.Stats(context.Background())
	if len(stats) != 1 || stats[0].Records != 2 || stats[0].Err != nil {
		t.Errorf("Stats() = %+v", stats)
	}

	f.store.failFetch = errStoreDown
	stats = f.svc.Stats(context.Background())
	if !errors.Is(stats[0].Err, ErrSourceUnavailable) {
		t.Errorf("Stats() err = %v", stats[0].Err)
	}

	tables := f.svc.ListTables()
	if len(tables) != 1 || tables[0].Key != "people" || len(tables[0].Fields) != 7 {
		t.Errorf("ListTables() = %+v", tables)
	}
}

func TestService_CreateEvent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	e, err := f.svc.CreateEvent(ctx, EventInput{
		Title:     "Food Bank",
		Location:  "Mission St",
		StartTime: "2025-07-01T10:00",
		EndTime:   "2025-07-01T13:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.ID == uuid.Nil || !e.CreatedAt.Equal(serviceNow) {
		t.Errorf("event = %+v", e)
	}

	got, err := f.svc.GetEvent(ctx, e.ID.String())
	if err != nil || got.Title != "Food Bank" {
		t.Errorf("GetEvent() = %+v, %v", got, err)
	}

	if _, err := f.svc.CreateEvent(ctx, EventInput{Title: "x"}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("invalid event err = %v", err)
	}
	if _, err := f.svc.GetEvent(ctx, "not-a-uuid"); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("bad id err = %v", err)
	}
}

func TestService_CheckIn(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	eventID, bobID := f.beach.ID.String(), f.bob.ID.String()

	a, err := f.svc.CheckIn(ctx, eventID, bobID)
	if err != nil {
		t.Fatal(err)
	}
	if a.EventID != f.beach.ID || a.MemberID != f.bob.ID || !a.CheckedInAt.Equal(serviceNow) {
		t.Errorf("attendance = %+v", a)
	}

	if _, err := f.svc.CheckIn(ctx, eventID, bobID); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("second check-in err = %v", err)
	}
	if _, err := f.svc.CheckIn(ctx, uuid.NewString(), bobID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event err = %v", err)
	}
	if _, err := f.svc.CheckIn(ctx, eventID, "nobody"); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("unknown member err = %v", err)
	}

	for result, want := range map[string]float64{CheckinOK: 1, CheckinDuplicate: 1, CheckinNotFound: 2} {
		if got := testutil.ToFloat64(f.metrics.CheckinsTotal.WithLabelValues(result)); got != want {
			t.Errorf("checkins[%s] = %v, want %v", result, got, want)
		}
	}

	detail, err := f.svc.GetMemberDetail(ctx, bobID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Member.Attendance != 1 || detail.Member.Hours != 3 || len(detail.History) != 1 {
		t.Errorf("detail = %+v", detail)
	}

	detail, err = f.svc.GetMemberDetail(ctx, f.alice.ID.String())
	if err != nil || detail.History == nil || len(detail.History) != 0 {
		t.Errorf("alice detail = %+v, %v", detail, err)
	}
}

func TestService_CreateMember(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	m, err := f.svc.CreateMember(ctx, MemberInput{Name: "Carol", Email: "carol@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Role != RoleVolunteer || m.JoinDate.Format(DateLayout) != "2025-06-15" {
		t.Errorf("member = %+v", m)
	}
	if _, err := f.svc.CreateMember(ctx, MemberInput{Name: "Carol"}); !errors.Is(err, ErrInvalidMember) {
		t.Errorf("invalid member err = %v", err)
	}

	res, err := f.svc.View(ctx, f.session, "people", true)
	if err != nil || res.Total != 3 {
		t.Errorf("view after create: total %d, %v", res.Total, err)
	}
}

func TestService_EventAnalytics(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Bob checks in 10 minutes after start.
	f.store.attendance = append(f.store.attendance, Attendance{
		ID:          uuid.New(),
		MemberID:    f.bob.ID,
		EventID:     f.beach.ID,
		CheckedInAt: f.beach.StartTime.Add(10 * time.Minute),
	})

	a, err := f.svc.EventAnalytics(ctx, f.beach.ID.String())
	if err != nil {
		t.Fatal(err)
	}
	if a.Attendees != 1 || a.RosterSize != 2 || a.CompletionRate != 50 {
		t.Errorf("analytics = %+v", a)
	}
	if a.AverageOffset != 10*time.Minute {
		t.Errorf("offset = %v", a.AverageOffset)
	}

	var data, name string
	filename, err := f.svc.ExportAnalytics(ctx, f.beach.ID.String(), SinkFunc(func(b []byte, n string) error {
		data, name = string(b), n
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if filename != "event-"+f.beach.ID.String()+"-analytics.csv" || name != filename {
		t.Errorf("filename = %q", filename)
	}
	for _, want := range []string{
		"Metric,Value\n",
		"Event Name,Beach Cleanup\n",
		"Total Attendees,1\n",
		"Completion Rate,50%\n",
		"Average Check-in Offset,10 min after start\n",
	} {
		if !strings.Contains(data, want) {
			t.Errorf("analytics CSV missing %q:\n%s", want, data)
		}
	}

	if _, err := f.svc.EventAnalytics(ctx, uuid.NewString()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("unknown event err = %v", err)
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "on time"},
		{20 * time.Second, "on time"},
		{5 * time.Minute, "5 min after start"},
		{-15 * time.Minute, "15 min before start"},
	}
	for _, tt := range tests {
		if got := formatOffset(tt.d); got != tt.want {
			t.Errorf("formatOffset(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
