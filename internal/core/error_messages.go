// Package core error codes.
//
// This file maps technical errors to user-facing messages with a code that
// users can quote to support staff.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Source unavailable: Roster data could not be loaded
//	         Action: Please try again in a few moments
//	         Patterns: "source unavailable"
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Invalid range: A range bound was not a number or min exceeded max
//	         Action: Enter numeric bounds with the minimum first
//	         Patterns: "invalid range input"
//
//	FLT002 - Unknown field: The column cannot be filtered or sorted
//	         Action: Pick one of the table's columns
//	         Patterns: "unknown field"
//
// # Table and Session Errors (TBL001, SES001)
//
//	TBL001 - Table not found: The requested table is not registered
//	         Patterns: "table not found"
//
//	SES001 - Session expired: The curation session is gone
//	         Action: Reload the page to start a new session
//	         Patterns: "session not found"
//
// # Export Errors (EXP001-EXP002)
//
//	EXP001 - Export failed: The export file could not be generated
//	         Patterns: "export failed"
//
//	EXP002 - Exports busy: Every export slot is taken
//	         Patterns: "too many concurrent exports"
//
// # Event Errors (EVT001-EVT099)
//
//	EVT001 - Event not found
//	         Patterns: "event not found"
//
//	EVT002 - Invalid event: Required details are missing or inconsistent
//	         Patterns: "invalid event"
//
// # Check-in Errors (CHK001-CHK099)
//
//	CHK001 - Already checked in: attendance for this event is already confirmed
//	         Patterns: "already confirmed attendance"
//
//	CHK002 - Member not found
//	         Patterns: "member not found"
//
//	CHK003 - Invalid QR payload
//	         Patterns: "invalid check-in payload"
//
// # Member Errors (MBR001)
//
//	MBR001 - Invalid member: Registration details are missing or malformed
//	         Patterns: "invalid member"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key               Patterns: "duplicate key"
//	DB002 - Unique constraint           Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key                 Patterns: "foreign key constraint", "violates foreign key"
//	DB004 - Connection refused          Patterns: "connection refused"
//	DB005 - Connection reset            Patterns: "connection reset"
//	DB006 - Timeout                     Patterns: "timeout"
//	DB007 - Database busy               Patterns: "deadlock", "database is locked"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled          Patterns: "context canceled"
//	REQ002 - Request timed out          Patterns: "context deadline exceeded"
//	REQ003 - Malformed request          Patterns: "malformed request"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests         Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so sentinel-derived patterns come before the generic database
// ones they may wrap.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// Source Errors
	{
		pattern: "source unavailable",
		msg: UserMessage{
			Message: "Roster data could not be loaded",
			Action:  "Please try again in a few moments",
			Code:    "SRC001",
		},
	},

	// Filter Errors
	{
		pattern: "invalid range input",
		msg: UserMessage{
			Message: "A range filter bound was not a number or the minimum exceeded the maximum",
			Action:  "Enter numeric bounds with the minimum first",
			Code:    "FLT001",
		},
	},
	{
		pattern: "unknown field",
		msg: UserMessage{
			Message: "This column cannot be filtered or sorted",
			Action:  "Pick one of the table's columns",
			Code:    "FLT002",
		},
	},

	// Table and Session Errors
	{
		pattern: "table not found",
		msg: UserMessage{
			Message: "Table not found",
			Action:  "Verify the table name is correct",
			Code:    "TBL001",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your curation session has expired",
			Action:  "Reload the page to start a new session",
			Code:    "SES001",
		},
	},

	// Export Errors
	{
		pattern: "export failed",
		msg: UserMessage{
			Message: "The export file could not be generated",
			Action:  "Please try again",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "Other exports are still running",
			Action:  "Wait a moment and download again",
			Code:    "EXP002",
		},
	},

	// Event Errors
	{
		pattern: "event not found",
		msg: UserMessage{
			Message: "Event not found",
			Action:  "Check the event link and try again",
			Code:    "EVT001",
		},
	},
	{
		pattern: "invalid event",
		msg: UserMessage{
			Message: "Event details are missing or inconsistent",
			Action:  "Provide a title and location with an end time after the start time",
			Code:    "EVT002",
		},
	},

	// Check-in Errors
	{
		pattern: "already confirmed attendance",
		msg: UserMessage{
			Message: "You have already confirmed attendance for this event",
			Action:  "No further action is needed",
			Code:    "CHK001",
		},
	},
	{
		pattern: "member not found",
		msg: UserMessage{
			Message: "Volunteer not found",
			Action:  "Check the member ID on the scanned code",
			Code:    "CHK002",
		},
	},
	{
		pattern: "invalid check-in payload",
		msg: UserMessage{
			Message: "This QR code is not a valid check-in code",
			Action:  "Scan the code shown on the event page",
			Code:    "CHK003",
		},
	},

	// Member Errors
	{
		pattern: "invalid member",
		msg: UserMessage{
			Message: "Member details are missing or malformed",
			Action:  "Provide a name and a valid email address",
			Code:    "MBR001",
		},
	},

	// Database Constraint Errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Refresh and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Use a different value",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Use a different value",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that the event and member exist",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that the event and member exist",
			Code:    "DB003",
		},
	},

	// Database Connection Errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Request Errors
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "malformed request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the submitted fields and try again",
			Code:    "REQ003",
		},
	},

	// Rate Limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
//	// msg.Message == "A record with this ID already exists"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "A record with this ID already exists (Code: DB001). Download failed rows to review duplicates"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// WrapWithUserMessage wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(dbErr)
//	log.Error(ue.Technical)          // Log original error
//	fmt.Println(ue.Error())           // Show "A record with this ID already exists"
//	fmt.Println(ue.User.Code)         // Show "DB001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
