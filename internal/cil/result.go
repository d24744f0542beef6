package cil

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reason classifies why an upload did not succeed.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoTransport
	ReasonNoURL
	ReasonNoUser
	ReasonNoPassword
	ReasonNoFile
	ReasonTransfer
	ReasonRegister
)

// Message returns the user facing description of a precondition failure.
func (r Reason) Message() string {
	switch r {
	case ReasonNoTransport:
		return "no transport configured"
	case ReasonNoURL:
		return "no REST URL configured (set resturl in [cil])"
	case ReasonNoUser:
		return "no REST user configured (set restuser in [cil])"
	case ReasonNoPassword:
		return "no REST password configured (set restpassword in [cil] or NCMIR_CIL_PASSWORD)"
	case ReasonNoFile:
		return "no file to upload"
	case ReasonTransfer:
		return "transfer failed"
	case ReasonRegister:
		return "registration failed"
	}
	return ""
}

// Result is the outcome of one UploadAndRegister call.
type Result struct {
	Success      bool
	ID           string
	Destination  string
	Bytes        int64
	Duration     time.Duration
	ErrorMessage string
	Reason       Reason

	transferred bool
}

// Report writes the six line upload summary.
func (r Result) Report(w io.Writer) error {
	bytesField, durationField := "None", "None"
	if r.transferred {
		bytesField = strconv.FormatInt(r.Bytes, 10)
		durationField = strconv.FormatFloat(r.Duration.Seconds(), 'f', -1, 64)
	}
	_, err := fmt.Fprintf(w,
		"Success: %t\nId: %s\nDestination path: %s\nBytes transferred: %s\nDuration in seconds: %s\nError Message: %s\n",
		r.Success,
		orNone(r.ID),
		orNone(r.Destination),
		bytesField,
		durationField,
		orNone(r.ErrorMessage),
	)
	return err
}

func orNone(value string) string {
	if value == "" {
		return "None"
	}
	return value
}
