package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"source unavailable", fmt.Errorf("load users: %w", ErrSourceUnavailable), "SRC001"},
		{"source wins over wrapped db error", fmt.Errorf("%w: dial tcp: connection refused", ErrSourceUnavailable), "SRC001"},
		{"invalid range", fmt.Errorf("hours min %q: %w", "abc", ErrInvalidRangeInput), "FLT001"},
		{"unknown field", fmt.Errorf("%w: shoe_size", ErrUnknownField), "FLT002"},
		{"table not found", fmt.Errorf("%w: widgets", ErrTableNotFound), "TBL001"},
		{"session not found", ErrSessionNotFound, "SES001"},
		{"export failed", fmt.Errorf("%w: short write", ErrExportFailed), "EXP001"},
		{"export busy", ErrExportBusy, "EXP002"},
		{"event not found", ErrEventNotFound, "EVT001"},
		{"invalid event", fmt.Errorf("%w: title is required", ErrInvalidEvent), "EVT002"},
		{"already checked in beats duplicate key", fmt.Errorf("%w: ERROR: duplicate key value violates unique constraint", ErrAlreadyCheckedIn), "CHK001"},
		{"member not found", ErrMemberNotFound, "CHK002"},
		{"invalid payload", ErrInvalidPayload, "CHK003"},
		{"duplicate key", errors.New("pq: duplicate key value violates unique constraint"), "DB001"},
		{"foreign key", errors.New("violates foreign key constraint"), "DB003"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB007"},
		{"context canceled", context.Canceled, "REQ001"},
		{"deadline exceeded", context.DeadlineExceeded, "REQ002"},
		{"malformed request", errors.New("malformed request: decode body: unexpected EOF"), "REQ003"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("DUPLICATE KEY value"), "DB001"},
		{"unknown falls back", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrAlreadyCheckedIn)

	expected := "You have already confirmed attendance for this event (Code: CHK001). No further action is needed"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known sentinel", ErrEventNotFound, true},
		{"unknown error", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := fmt.Errorf("checkin: %w", ErrAlreadyCheckedIn)
	userErr := NewUserError(techErr)

	if userErr.Error() != "You have already confirmed attendance for this event" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, ErrAlreadyCheckedIn) {
		t.Error("Unwrap() chain should reach the sentinel")
	}
}
