package tables

import (
	"context"
	"time"

	"github.com/JonMunkholm/rollcall/internal/core"
)

func init() {
	registerEvents()
}

// EventsKey is the events listing table key.
const EventsKey = "events"

const eventTimeLayout = "2006-01-02 15:04"

func registerEvents() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{
			Key:           EventsKey,
			Group:         "Events",
			Label:         "Events",
			Description:   "Scheduled events split into upcoming and past",
			IdentityField: "id",
			DefaultSort:   "start_time",
		},
		FieldSpecs: []core.FieldSpec{
			{Name: "id", Label: "ID", Type: core.FieldText},
			{Name: "title", Label: "Title", Type: core.FieldText, Searchable: true, Sortable: true, CaseInsensitive: true},
			{Name: "location", Label: "Location", Type: core.FieldText, Searchable: true, Sortable: true, CaseInsensitive: true},
			{
				Name:        "status",
				Label:       "Status",
				Type:        core.FieldEnum,
				Categorical: true,
				Sortable:    true,
				EnumValues:  []string{core.StatusUpcoming, core.StatusPast},
			},
			{Name: "start_time", Label: "Start", Type: core.FieldDate, Sortable: true, Layout: eventTimeLayout},
			{Name: "end_time", Label: "End", Type: core.FieldDate, Sortable: true, Layout: eventTimeLayout},
			{
				Name:     "hours",
				Label:    "Hours",
				Type:     core.FieldNumeric,
				Range:    true,
				Bounds:   core.NumericRange{Min: 0, Max: 24},
				Sortable: true,
			},
			{
				Name:        "attendees",
				Label:       "Attendees",
				Type:        core.FieldNumeric,
				Range:       true,
				Bounds:      core.NumericRange{Min: 0, Max: 1000},
				Sortable:    true,
				DefaultZero: true,
			},
		},
		Fetch: fetchEvents,
	})
}

func fetchEvents(ctx context.Context, store core.Store, now time.Time) ([]core.Record, error) {
	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := store.AttendanceCounts(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]core.Record, len(events))
	for i, e := range events {
		rec := EventRecord(e, now)
		rec["attendees"] = counts[e.ID]
		records[i] = rec
	}
	return records, nil
}

// EventRecord flattens an event into an events record. status is derived
// from at; attendees is left for the caller.
func EventRecord(e core.Event, at time.Time) core.Record {
	return core.Record{
		"id":         e.ID.String(),
		"title":      e.Title,
		"location":   e.Location,
		"status":     e.Status(at),
		"start_time": e.StartTime,
		"end_time":   e.EndTime,
		"hours":      e.Hours(),
	}
}
