package ftp

import "fmt"

// IllegalStateError reports that a command was issued while the session was
// in a state that forbids it (not connected, not authenticated, already
// connected, and so on).
type IllegalStateError struct {
	Op     string
	Reason string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("ftp: %s: %s", e.Op, e.Reason)
}

// IOError wraps a transport failure observed while reading or writing the
// control or data channel.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ftp: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IllegalReplyError reports a structurally malformed reply: a bad reply
// code or code/text separator, or metadata (PWD quoting, MDTM timestamp,
// SIZE integer, PASV sextuple) that didn't parse. A reply cut short by the
// end of the stream is reported as an *IOError instead.
type IllegalReplyError struct {
	Context string
	Raw     string
}

func (e *IllegalReplyError) Error() string {
	return fmt.Sprintf("ftp: illegal reply (%s): %q", e.Context, e.Raw)
}

// ServerError reports a syntactically legal reply with a code that the
// calling context required to be successful and wasn't.
type ServerError struct {
	Command string
	Code    int
	Lines   []string
}

func (e *ServerError) Error() string {
	msg := e.Command
	if len(e.Lines) > 0 {
		msg = e.Lines[len(e.Lines)-1]
	}
	return fmt.Sprintf("ftp: %s failed: %d %s", e.Command, e.Code, msg)
}

// Is2xx reports whether the error's reply code is a positive completion
// reply (2xx).
func (e *ServerError) Is2xx() bool { return e.Code >= 200 && e.Code < 300 }

// DataTransferError wraps a transport failure observed while pumping bytes
// over the data connection. The zero value is never returned; Err is always
// set.
type DataTransferError struct {
	Err error
}

func (e *DataTransferError) Error() string {
	return fmt.Sprintf("ftp: data transfer failed: %v", e.Err)
}

func (e *DataTransferError) Unwrap() error { return e.Err }

// AbortedError reports that a transfer ended because AbortTransfer was
// called concurrently from another goroutine.
type AbortedError struct{}

func (e *AbortedError) Error() string { return "ftp: transfer aborted" }

// ListParseError reports that no registered ListParser accepted a
// directory listing.
type ListParseError struct {
	Lines []string
}

func (e *ListParseError) Error() string {
	return fmt.Sprintf("ftp: no list parser recognized %d listing line(s)", len(e.Lines))
}

// resumeNotSupportedError is the fixed error surfaced when the server
// answers REST with 502 for a restart offset greater than zero.
func resumeNotSupportedError(code int) error {
	return &ServerError{
		Command: "REST",
		Code:    code,
		Lines:   []string{"Resume is not supported by this server"},
	}
}
