// Package core provides the business logic for roster curation.
//
// The package holds all domain logic independent of any UI or transport
// layer. Web handlers, the rosterctl CLI and the export scheduler all drive
// it through [Service].
//
// # Table Registry
//
// Curated tables are registered at init time using [Register]. Each
// [TableDefinition] lists its fields and how to fetch a snapshot:
//
//	core.Register(TableDefinition{
//	    Info: TableInfo{Key: "users", Group: "Roster", Label: "Volunteers",
//	        IdentityField: "id", DefaultSort: "name"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "id", Label: "ID", Sortable: true},
//	        {Name: "name", Label: "Name", Searchable: true, Sortable: true},
//	        {Name: "hours", Label: "Hours", Type: FieldNumeric, Range: true,
//	            Bounds: NumericRange{Min: 0, Max: 100}, Sortable: true},
//	    },
//	    Fetch: fetchUsers,
//	})
//
// # Curation
//
// A curation turns a snapshot into a view in two steps:
//
//  1. [NewPredicate] compiles [FilterCriteria]; search, categorical and
//     range checks are AND-combined and defaults add no check.
//  2. [Comparator] orders survivors by one field with a stable sort, so
//     ties keep snapshot order in both directions.
//
// [Curate] runs both. [Curation] keeps the criteria and snapshot for one
// table; [Session] groups a visitor's curations behind a mutex, and
// [SessionStore] expires idle sessions.
//
// # Export
//
// [Export] renders a curated sequence as CSV with a header row and hands it
// to a [DownloadSink]. Output bytes depend only on the records and fields.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference (SRC, FLT, TBL, SES, EXP,
// EVT, CHK, MBR, DB, REQ, RATE, ERR000).
package core
