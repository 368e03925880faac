package core

// validation.go checks user-submitted events and members before they reach
// the store. Every problem is collected so forms can show them all at once.

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
)

// Field length limits.
const (
	MaxTitleLength    = 200
	MaxLocationLength = 200
	MaxNameLength     = 120
)

// ValidationError represents a single invalid field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult collects the errors found in one input.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func (r *ValidationResult) add(field, value, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

// Err returns nil when valid, otherwise all messages wrapped in sentinel.
func (r ValidationResult) Err(sentinel error) error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
}

// EventInput is the raw event creation form.
type EventInput struct {
	Title     string `json:"title"`
	Location  string `json:"location"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ValidateEvent checks in and returns the parsed event on success.
// All fields are required and the end must come after the start.
func ValidateEvent(in EventInput) (Event, ValidationResult) {
	res := ValidationResult{Valid: true}
	var e Event

	e.Title = strings.TrimSpace(in.Title)
	switch {
	case e.Title == "":
		res.add("title", "", "required field is empty")
	case len(e.Title) > MaxTitleLength:
		res.add("title", "", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}

	e.Location = strings.TrimSpace(in.Location)
	switch {
	case e.Location == "":
		res.add("location", "", "required field is empty")
	case len(e.Location) > MaxLocationLength:
		res.add("location", "", fmt.Sprintf("must be at most %d characters", MaxLocationLength))
	}

	var startOK, endOK bool
	e.StartTime, startOK = requireTime(&res, "start_time", in.StartTime)
	e.EndTime, endOK = requireTime(&res, "end_time", in.EndTime)
	if startOK && endOK && !e.EndTime.After(e.StartTime) {
		res.add("end_time", in.EndTime, "must be after start_time")
	}

	return e, res
}

// MemberInput is the raw member registration form.
type MemberInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinDate string `json:"join_date"`
}

// Roles lists the accepted member roles.
var Roles = []string{RoleVolunteer, RoleStaff, RoleAdmin}

// ValidateMember checks in. Role defaults to volunteer and join date to today.
func ValidateMember(in MemberInput, today time.Time) (Member, ValidationResult) {
	res := ValidationResult{Valid: true}
	var m Member

	m.Name = strings.TrimSpace(in.Name)
	switch {
	case m.Name == "":
		res.add("name", "", "required field is empty")
	case len(m.Name) > MaxNameLength:
		res.add("name", "", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		res.add("email", "", "required field is empty")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		res.add("email", email, "not a valid email address")
	} else {
		m.Email = strings.ToLower(email)
	}

	m.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if m.Role == "" {
		m.Role = RoleVolunteer
	} else if !slices.Contains(Roles, m.Role) {
		res.add("role", in.Role, "value must be one of: "+strings.Join(Roles, ", "))
	}

	if strings.TrimSpace(in.JoinDate) == "" {
		m.JoinDate = today.Truncate(24 * time.Hour)
	} else if t, ok := ParseDate(in.JoinDate); ok {
		m.JoinDate = t
	} else {
		res.add("join_date", in.JoinDate, "invalid date format (use YYYY-MM-DD)")
	}

	return m, res
}

func requireTime(res *ValidationResult, field, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		res.add(field, "", "required field is empty")
		return time.Time{}, false
	}
	t, ok := ParseDate(raw)
	if !ok {
		res.add(field, raw, "invalid date format (use YYYY-MM-DDTHH:MM)")
		return time.Time{}, false
	}
	return t, true
}
