package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateEvent(t *testing.T) {
	valid := EventInput{
		Title:     "Beach Cleanup",
		Location:  "Ocean Beach",
		StartTime: "2025-06-01T09:00",
		EndTime:   "2025-06-01T12:30",
	}

	tests := []struct {
		name       string
		mutate     func(in *EventInput)
		wantFields []string
	}{
		{"valid", func(*EventInput) {}, nil},
		{"missing title", func(in *EventInput) { in.Title = "  " }, []string{"title"}},
		{"missing location", func(in *EventInput) { in.Location = "" }, []string{"location"}},
		{"long title", func(in *EventInput) { in.Title = strings.Repeat("x", MaxTitleLength+1) }, []string{"title"}},
		{"missing times", func(in *EventInput) { in.StartTime, in.EndTime = "", "" }, []string{"start_time", "end_time"}},
		{"bad start", func(in *EventInput) { in.StartTime = "tomorrow" }, []string{"start_time"}},
		{"end before start", func(in *EventInput) { in.EndTime = "2025-06-01T08:00" }, []string{"end_time"}},
		{"end equals start", func(in *EventInput) { in.EndTime = in.StartTime }, []string{"end_time"}},
		{"everything empty", func(in *EventInput) { *in = EventInput{} }, []string{"title", "location", "start_time", "end_time"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			e, res := ValidateEvent(in)

			var got []string
			for _, ve := range res.Errors {
				got = append(got, ve.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("error fields = %v, want %v", got, tt.wantFields)
			}
			if res.Valid != (len(tt.wantFields) == 0) {
				t.Errorf("Valid = %v", res.Valid)
			}
			if res.Valid {
				if e.Title != "Beach Cleanup" || e.Hours() != 3.5 {
					t.Errorf("event = %+v, hours %v", e, e.Hours())
				}
			}
		})
	}
}

func TestValidationResult_Err(t *testing.T) {
	_, res := ValidateEvent(EventInput{Title: "x"})
	err := res.Err(ErrInvalidEvent)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("Err() = %v", err)
	}
	if !strings.Contains(err.Error(), "location: required field is empty") {
		t.Errorf("Err() message = %q", err.Error())
	}

	ok := ValidationResult{Valid: true}
	if ok.Err(ErrInvalidEvent) != nil {
		t.Error("valid result returned an error")
	}
}

func TestValidateMember(t *testing.T) {
	today := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	m, res := ValidateMember(MemberInput{Name: " Ada Lovelace ", Email: "Ada@Example.com"}, today)
	if !res.Valid {
		t.Fatalf("errors = %v", res.Errors)
	}
	if m.Name != "Ada Lovelace" || m.Email != "ada@example.com" {
		t.Errorf("member = %+v", m)
	}
	if m.Role != RoleVolunteer {
		t.Errorf("Role = %q, want default volunteer", m.Role)
	}
	if want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC); !m.JoinDate.Equal(want) {
		t.Errorf("JoinDate = %v, want %v", m.JoinDate, want)
	}

	m, res = ValidateMember(MemberInput{Name: "Grace", Email: "grace@example.com", Role: "Staff", JoinDate: "2024-09-01"}, today)
	if !res.Valid || m.Role != RoleStaff || m.JoinDate.Month() != time.September {
		t.Errorf("member = %+v, errors %v", m, res.Errors)
	}

	tests := []struct {
		name  string
		in    MemberInput
		field string
	}{
		{"missing name", MemberInput{Email: "a@b.co"}, "name"},
		{"missing email", MemberInput{Name: "A"}, "email"},
		{"bad email", MemberInput{Name: "A", Email: "not-an-email"}, "email"},
		{"display name email", MemberInput{Name: "A", Email: "A <a@b.co>"}, "email"},
		{"unknown role", MemberInput{Name: "A", Email: "a@b.co", Role: "owner"}, "role"},
		{"bad join date", MemberInput{Name: "A", Email: "a@b.co", JoinDate: "soon"}, "join_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res := ValidateMember(tt.in, today)
			if res.Valid || len(res.Errors) != 1 || res.Errors[0].Field != tt.field {
				t.Errorf("errors = %v, want one on %s", res.Errors, tt.field)
			}
		})
	}
}
