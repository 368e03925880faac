package core

import "errors"

// Sentinel errors. Wrap them with fmt.Errorf("...: %w", err) and test with
// errors.Is; their text doubles as the MapError pattern.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInvalidRangeInput = errors.New("invalid range input")
	ErrUnknownField      = errors.New("unknown field")
	ErrTableNotFound     = errors.New("table not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidEvent      = errors.New("invalid event")
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidMember     = errors.New("invalid member")
	ErrAlreadyCheckedIn  = errors.New("already confirmed attendance")
	ErrInvalidPayload    = errors.New("invalid check-in payload")
	ErrExportFailed      = errors.New("export failed")
	ErrExportBusy        = errors.New("too many concurrent exports")
)
