// Package templates renders the HTML pages and HTMX fragments.
//
// The markup lives in the .templ files; run `templ generate` after editing
// them. This file holds the view models and small helpers they share.
package templates

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/rollcall/internal/core"
)

const timeLayout = "Mon Jan 2, 2006 15:04"

// Nav entries shown in the header.
var navItems = []struct{ Key, Href, Label string }{
	{"dashboard", "/", "Dashboard"},
	{"users", "/curate/users", "Volunteers"},
	{"events", "/curate/events", "Events"},
	{"new-event", "/events/new", "New Event"},
}

// ============================================================================
// Curation
// ============================================================================

// ColumnMeta describes one rendered column header.
type ColumnMeta struct {
	Name     string
	Label    string
	Type     string
	Sortable bool
	Active   bool
	Arrow    string
}

// ErrorInfo is a mapped error shown inline.
type ErrorInfo struct {
	Message string
	Action  string
	Code    string
}

// CurateParams carries everything the curated table view needs.
type CurateParams struct {
	Info       core.TableInfo
	Fields     []core.FieldSpec
	Columns    []ColumnMeta
	Rows       [][]string
	RowIDs     []string
	DetailPath string // e.g. "/users/"; empty disables row links
	Result     core.Result
	Error      *ErrorInfo
}

func (c CurateParams) apiBase() string {
	return "/api/curate/" + c.Info.Key
}

// detailHref links row i to its detail page, or returns "" when rows are
// not linked.
func (c CurateParams) detailHref(i int) string {
	if c.DetailPath == "" || i >= len(c.RowIDs) {
		return ""
	}
	return c.DetailPath + c.RowIDs[i]
}

func (c CurateParams) categorySelected(field, value string) bool {
	current := c.Result.Filter.Categorical[field]
	if value == core.Wildcard {
		return current == core.Wildcard || current == ""
	}
	return current == value
}

// rangeInputs returns the min/max input values and placeholders for f.
func (c CurateParams) rangeInputs(f core.FieldSpec) (minValue, maxValue, minHint, maxHint string) {
	full := f.FullRange()
	rng, ok := c.Result.Filter.Ranges[f.Name]
	if !ok {
		rng = full
	}
	return boundText(rng.Min, full.Min), boundText(rng.Max, full.Max),
		boundText(full.Min, full.Min), boundText(full.Max, full.Max)
}

// boundText renders a range bound, leaving unbounded sides empty.
func boundText(v, full float64) string {
	if full == core.Unbounded.Min || full == core.Unbounded.Max {
		if v == full {
			return ""
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// Dashboard
// ============================================================================

// TableGroup is one dashboard section.
type TableGroup struct {
	Name   string
	Tables []TableCardData
}

// TableCardData is one table card.
type TableCardData struct {
	Info    core.TableInfo
	Records int
	Err     string
}

// ============================================================================
// Events and members
// ============================================================================

// EventDetailParams drives the event page.
type EventDetailParams struct {
	Event      core.Event
	Status     string
	Analytics  core.Analytics
	CheckInURL string
}

func (p EventDetailParams) eventPath() string {
	return "/api/events/" + p.Event.ID.String()
}

func (p EventDetailParams) attendance() string {
	a := p.Analytics
	return fmt.Sprintf("%d of %d (%s%%)", a.Attendees, a.RosterSize, core.FormatCell(a.CompletionRate, core.FieldNumeric))
}

// NewEventParams drives the event creation form.
type NewEventParams struct {
	Input  core.EventInput
	Errors []core.ValidationError
}

type formInput struct {
	Name, Label, Kind, Value string
}

func (n NewEventParams) inputs() []formInput {
	return []formInput{
		{"title", "Title", "text", n.Input.Title},
		{"location", "Location", "text", n.Input.Location},
		{"start_time", "Start", "datetime-local", n.Input.StartTime},
		{"end_time", "End", "datetime-local", n.Input.EndTime},
	}
}

func (n NewEventParams) fieldError(field string) string {
	for _, e := range n.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// CheckinParams drives the public check-in page.
type CheckinParams struct {
	Event    core.Event
	MemberID string
	Success  string
	Error    *ErrorInfo
}
