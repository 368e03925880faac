package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/rollcall/internal/logging"
	"github.com/JonMunkholm/rollcall/internal/metrics"
)

// Check-in results for metrics.
const (
	CheckinOK        = "ok"
	CheckinDuplicate = "duplicate"
	CheckinNotFound  = "not_found"
	CheckinError     = "error"
)

// CreateEvent validates in and stores a new event.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	e, res := ValidateEvent(in)
	if err := res.Err(ErrInvalidEvent); err != nil {
		return Event{}, err
	}

	e.ID = uuid.New()
	e.CreatedAt = s.now()
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}

	logging.FromContext(ctx).Info("event created", "event_id", e.ID, "title", e.Title)
	return e, nil
}

// GetEvent loads an event by its string ID.
func (s *Service) GetEvent(ctx context.Context, id string) (Event, error) {
	eventID, err := uuid.Parse(id)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %q", ErrEventNotFound, id)
	}
	return s.store.GetEvent(ctx, eventID)
}

// CreateMember validates in and stores a new member.
func (s *Service) CreateMember(ctx context.Context, in MemberInput) (Member, error) {
	m, res := ValidateMember(in, s.now())
	if err := res.Err(ErrInvalidMember); err != nil {
		return Member{}, err
	}

	m.ID = uuid.New()
	if err := s.store.CreateMember(ctx, m); err != nil {
		return Member{}, fmt.Errorf("create member: %w", err)
	}

	logging.FromContext(ctx).Info("member created", "member_id", m.ID, "role", m.Role)
	return m, nil
}

// MemberDetail is a member with their attendance history, most recent first.
type MemberDetail struct {
	Member  Member            `json:"member"`
	History []AttendanceEntry `json:"history"`
}

// GetMemberDetail loads a member and their attendance history.
func (s *Service) GetMemberDetail(ctx context.Context, id string) (MemberDetail, error) {
	memberID, err := uuid.Parse(id)
	if err != nil {
		return MemberDetail{}, fmt.Errorf("%w: %q", ErrMemberNotFound, id)
	}

	m, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return MemberDetail{}, err
	}
	history, err := s.store.MemberHistory(ctx, memberID)
	if err != nil {
		return MemberDetail{}, fmt.Errorf("member history: %w", err)
	}
	if history == nil {
		history = []AttendanceEntry{}
	}
	return MemberDetail{Member: m, History: history}, nil
}

// CheckIn records that memberID attended eventID. A second check-in for the
// same pair fails with ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, eventID, memberID string) (Attendance, error) {
	a, err := s.checkIn(ctx, eventID, memberID)

	result := CheckinOK
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyCheckedIn):
		result = CheckinDuplicate
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrMemberNotFound):
		result = CheckinNotFound
	default:
		result = CheckinError
	}
	s.metrics.CheckIn(result)

	logging.FromContext(ctx).Info("check-in", "event_id", eventID, "member_id", memberID, "result", result)
	return a, err
}

func (s *Service) checkIn(ctx context.Context, eventID, memberID string) (Attendance, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return Attendance{}, err
	}
	mid, err := uuid.Parse(memberID)
	if err != nil {
		return Attendance{}, fmt.Errorf("%w: %q", ErrMemberNotFound, memberID)
	}
	if _, err := s.store.GetMember(ctx, mid); err != nil {
		return Attendance{}, err
	}

	a := Attendance{
		ID:          uuid.New(),
		MemberID:    mid,
		EventID:     event.ID,
		CheckedInAt: s.now(),
	}
	if err := s.store.RecordAttendance(ctx, a); err != nil {
		return Attendance{}, err
	}
	return a, nil
}

// Analytics summarizes attendance for one event.
type Analytics struct {
	Event          Event         `json:"event"`
	Attendees      int           `json:"attendees"`
	RosterSize     int           `json:"roster_size"`
	CompletionRate float64       `json:"completion_rate"`
	AverageOffset  time.Duration `json:"average_checkin_offset"`
}

// EventAnalytics computes attendance figures for an event. CompletionRate
// is the percentage of the roster that checked in, to one decimal place.
func (s *Service) EventAnalytics(ctx context.Context, id string) (Analytics, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return Analytics{}, err
	}
	attendance, err := s.store.EventAttendance(ctx, event.ID)
	if err != nil {
		return Analytics{}, fmt.Errorf("event attendance: %w", err)
	}
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("list members: %w", err)
	}

	a := Analytics{Event: event, Attendees: len(attendance), RosterSize: len(members)}
	if a.RosterSize > 0 {
		a.CompletionRate = math.Round(float64(a.Attendees)/float64(a.RosterSize)*1000) / 10
	}
	if a.Attendees > 0 {
		var total time.Duration
		for _, at := range attendance {
			total += at.CheckedInAt.Sub(event.StartTime)
		}
		a.AverageOffset = (total / time.Duration(a.Attendees)).Round(time.Minute)
	}
	return a, nil
}

// AnalyticsFields are the columns of an analytics export.
var AnalyticsFields = []ExportField{
	{Name: "metric", Label: "Metric"},
	{Name: "value", Label: "Value"},
}

// Records renders the analytics as Metric/Value rows.
func (a Analytics) Records() []Record {
	return []Record{
		{"metric": "Event Name", "value": a.Event.Title},
		{"metric": "Event Date", "value": a.Event.StartTime.Format(DateLayout)},
		{"metric": "Total Attendees", "value": a.Attendees},
		{"metric": "Roster Size", "value": a.RosterSize},
		{"metric": "Completion Rate", "value": FormatCell(a.CompletionRate, FieldNumeric) + "%"},
		{"metric": "Average Check-in Offset", "value": formatOffset(a.AverageOffset)},
		{"metric": "Registration Date", "value": a.Event.CreatedAt.Format(DateLayout)},
	}
}

// ExportAnalytics writes an event's analytics CSV through sink.
func (s *Service) ExportAnalytics(ctx context.Context, id string, sink DownloadSink) (string, error) {
	if err := s.exports.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.exports.Release()

	a, err := s.EventAnalytics(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := Export(a.Records(), AnalyticsFields)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("event-%s-analytics.csv", a.Event.ID)
	if err := saveExport(sink, data, filename); err != nil {
		return "", err
	}
	s.metrics.Exported("event_analytics", metrics.TriggerHTTP)
	return filename, nil
}

// formatOffset renders a check-in offset relative to the event start.
func formatOffset(d time.Duration) string {
	minutes := int(d.Round(time.Minute) / time.Minute)
	switch {
	case minutes == 0:
		return "on time"
	case minutes > 0:
		return fmt.Sprintf("%d min after start", minutes)
	default:
		return fmt.Sprintf("%d min before start", -minutes)
	}
}
