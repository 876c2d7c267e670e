package core

// # Error Codes Reference
//
// Every error shown to a client carries a code that support staff can look
// up here.
//
// # Registration (REG001-REG099)
//
//	REG001 - Company with this name already exists
//	         Action: Choose a different company name
//	REG002 - An applicant with this email is already registered
//	         Action: Use a different email address
//
// # Validation (VAL001-VAL099)
//
//	VAL001 - One or more fields are invalid (message lists the fields)
//	         Action: Correct the listed fields and resubmit
//
// # Files (FILE001-FILE099)
//
//	FILE001 - Too many files in one registration
//	FILE002 - A single file exceeds the size limit
//	FILE003 - The request body exceeds the total size limit
//
// # Lookup (NF001)
//
//	NF001 - Company not found
//
// # Server side (STO001, DB001-DB099, BUSY001, ERR000)
//
//	STO001 - Uploaded files could not be saved
//	DB001  - Registration could not be saved
//	DB004  - Database unavailable (pattern "connection refused")
//	DB006  - Operation timed out (patterns "timeout", "deadline exceeded")
//	BUSY001 - Too many registrations in progress
//	REQ001 - The client canceled the request before it finished
//	ERR000 - Anything else
//
// Server-side messages are fixed strings; the technical cause is only logged.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicateCompany = UserMessage{
		Message: "Company with this name already exists",
		Action:  "Choose a different company name",
		Code:    "REG001",
	}
	msgDuplicateEmail = UserMessage{
		Message: "An applicant with this email is already registered",
		Action:  "Use a different email address",
		Code:    "REG002",
	}
	msgNotFound = UserMessage{
		Message: "Company not found",
		Action:  "Check the company ID",
		Code:    "NF001",
	}
	msgStorage = UserMessage{
		Message: "Uploaded files could not be saved",
		Action:  "Please try again",
		Code:    "STO001",
	}
	msgPersistence = UserMessage{
		Message: "Registration could not be saved",
		Action:  "Please try again",
		Code:    "DB001",
	}
	msgBusy = UserMessage{
		Message: "Too many registrations in progress",
		Action:  "Please wait a moment and try again",
		Code:    "BUSY001",
	}
	msgCanceled = UserMessage{
		Message: "Request was canceled",
		Action:  "Resubmit the registration",
		Code:    "REQ001",
	}
	msgUnknown = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorPattern maps a lowercase substring of an unclassified error to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is consulted only for errors without a Kind. First match wins.
var errorPatterns = []errorPattern{
	{"connection refused", UserMessage{Message: "Unable to connect to database", Action: "Please try again in a few moments", Code: "DB004"}},
	{"deadline exceeded", UserMessage{Message: "Operation timed out", Action: "Try fewer or smaller files, or try again later", Code: "DB006"}},
	{"timeout", UserMessage{Message: "Operation timed out", Action: "Try fewer or smaller files, or try again later", Code: "DB006"}},
}

// MapError converts an error into the message shown to a client.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch KindOf(err) {
	case KindDuplicateCompany:
		return msgDuplicateCompany
	case KindValidation:
		if errors.Is(err, ErrDuplicateEmail) {
			return msgDuplicateEmail
		}
		return UserMessage{
			Message: clientMessage(err, "Invalid registration data"),
			Action:  "Correct the listed fields and resubmit",
			Code:    "VAL001",
		}
	case KindFilePolicy:
		msg := UserMessage{Message: clientMessage(err, "File upload rejected")}
		switch {
		case errors.Is(err, ErrTooManyFiles):
			msg.Action, msg.Code = "Remove some files and resubmit", "FILE001"
		case errors.Is(err, ErrFileTooLarge):
			msg.Action, msg.Code = "Compress or split the file", "FILE002"
		default:
			msg.Action, msg.Code = "Reduce the total upload size", "FILE003"
		}
		return msg
	case KindNotFound:
		return msgNotFound
	case KindStorage:
		return msgStorage
	case KindPersistence:
		return msgPersistence
	case KindBusy:
		return msgBusy
	case KindCanceled:
		return msgCanceled
	}

	lower := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(lower, p.pattern) {
			return p.msg
		}
	}
	return msgUnknown
}

// clientMessage returns the client-safe Msg of an *Error, or fallback.
func clientMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
