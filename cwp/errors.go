package cwp

import (
	"errors"
	"fmt"
)

// Error is an error reported by the record server itself, identified by
// the numeric code carried in the response's error element.
type Error struct {
	Code        int
	Description string
}

// serverError builds an Error, attaching the known description for the
// code if there is one.
func serverError(code int) *Error {
	return &Error{Code: code, Description: errorDescriptions[code]}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("server error %d: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("server error %d", e.Code)
}

// IsNotFound reports whether err is the server's "no records match the
// request" error (code 401). Callers usually treat it as an empty
// result rather than a failure. Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == 401
}

// errorDescriptions covers the web publishing error codes this library
// routinely encounters. Unknown codes still surface, just without a
// description.
var errorDescriptions = map[int]string{
	-1:  "unknown error",
	1:   "user canceled action",
	2:   "memory error",
	3:   "command is unavailable",
	4:   "command is unknown",
	5:   "command is invalid",
	8:   "empty result",
	9:   "insufficient privileges",
	10:  "requested data is missing",
	100: "file is missing",
	101: "record is missing",
	102: "field is missing",
	104: "script is missing",
	105: "layout is missing",
	106: "table is missing",
	201: "field cannot be modified",
	202: "field access is denied",
	301: "record is in use by another user",
	306: "record modification ID does not match",
	400: "find criteria are empty",
	401: "no records match the request",
	402: "selected field is not a match field for a lookup",
	500: "date value does not meet validation entry options",
	501: "time value does not meet validation entry options",
	502: "number value does not meet validation entry options",
	504: "value in field is not unique as required",
	509: "field requires a valid value",
	802: "unable to open file",
	958: "parameter missing in query",
	959: "custom web publishing technology disabled",
}
