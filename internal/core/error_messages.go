package core

// error_messages.go maps technical errors to short, user-facing messages with
// a support code.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds the configured size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Unreadable table: no header row could be recovered
//	          Patterns: "parse failure"
//	FILE003 - Invalid spreadsheet: the workbook could not be opened
//	          Patterns: "invalid spreadsheet"
//	FILE004 - No file: the request carried no file part
//	          Patterns: "no file provided"
//	FILE005 - Empty file: the uploaded file has no content
//	          Patterns: "empty file"
//	FILE006 - No file selected: the file part has an empty name
//	          Patterns: "no file selected"
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Unsupported format: no reader or writer for the format
//	         Patterns: "unsupported format"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: the target backend rejected the table
//	         Patterns: "export failure"
//
// # Conversion Errors (UPL001-UPL099)
//
//	UPL002 - System busy: all conversion slots are taken
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the server log for the technical
// error; it is logged with the request id.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

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

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse failure",
		msg: UserMessage{
			Message: "No rows could be read from the file",
			Action:  "Check that the file has a header row and uses one delimiter",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "File is not a valid spreadsheet",
			Action:  "Save the workbook as .xlsx and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Attach a file in the \"file\" field",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row and data",
			Code:    "FILE005",
		},
	},
	{
		pattern: "no file selected",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file before converting",
			Code:    "FILE006",
		},
	},

	// Format errors
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "This file format is not supported",
			Action:  "Upload a .csv, .tsv, .txt or .xlsx file",
			Code:    "FMT001",
		},
	},

	// Export errors
	{
		pattern: "export failure",
		msg: UserMessage{
			Message: "The converted file could not be created",
			Action:  "Check for very long cell values and try again",
			Code:    "EXP001",
		},
	},

	// Conversion errors
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "Too many conversions in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Conversion timed out",
			Action:  "Try a smaller file",
			Code:    "UPL005",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
