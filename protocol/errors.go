package protocol

import "fmt"

// InvalidArgumentError indicates a command parameter outside its enumerated
// domain. It is returned before any byte is written to the transport.
type InvalidArgumentError struct {
	// Field is the name of the offending parameter
	Field string

	// Value is the rejected value
	Value interface{}

	// Domain describes the accepted values
	Domain string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: must be one of %s", e.Field, e.Value, e.Domain)
}

// MalformedReplyError indicates a reply that did not terminate with the
// expected "$$$" marker within the read timeout, or whose payload could not
// be interpreted. It usually means a transport timeout or device desync.
type MalformedReplyError struct {
	// Reply is the raw reply text as received
	Reply string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("reply not terminated with %q: %q", MessageTerminator, e.Reply)
}

// DeviceNotRespondingError indicates that the serial link is working but no
// board answered the command. The dongle reports this with a recognizable
// failure string, which distinguishes a wrong port from a garbled protocol.
type DeviceNotRespondingError struct {
	// Reply is the raw reply text as received
	Reply string
}

func (e *DeviceNotRespondingError) Error() string {
	return fmt.Sprintf("device not responding: %q", e.Reply)
}
