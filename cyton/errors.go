package cyton

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a terminated session.
var ErrClosed = errors.New("session is closed")

// ErrNotStreaming is returned by ReadSample when the board is not streaming.
var ErrNotStreaming = errors.New("board is not streaming")

// SampleAcquisitionTimeoutError indicates that the transport returned no
// bytes while searching for a packet start byte. The caller decides whether
// to retry the read.
type SampleAcquisitionTimeoutError struct {
	// Skipped is the number of non-start bytes discarded before the timeout
	Skipped int
}

func (e *SampleAcquisitionTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for a start byte (%d bytes skipped)", e.Skipped)
}

// OperationFailedError indicates that the board explicitly replied with a
// failure indicator. Session state is left unchanged.
type OperationFailedError struct {
	// Op is the operation that failed
	Op string

	// Reply is the board's failure reply
	Reply string
}

func (e *OperationFailedError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reply)
}
