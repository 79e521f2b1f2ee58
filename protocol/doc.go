// Package protocol implements the Cyton board command set, reply parsing and
// binary sample codec.
//
// # Protocol Overview
//
// The board speaks a half-duplex ASCII command protocol. Commands are single
// bytes or short byte sequences with no framing; acknowledgements are free
// form text terminated by "$$$":
//
//	Command: 'v'                         (reset board)
//	Reply:   "OpenBCI V3 8-16 channel\n...\n$$$"
//
// While streaming, the board emits fixed-layout 33-byte binary packets:
//
//	offset  size  field
//	0       1     start byte (0xA0)
//	1       1     packet id (uint8, wraps 0-255)
//	2       24    EEG channels 1-8, 3 bytes each, big-endian 24-bit signed
//	26      6     AUX channels 1-3, 2 bytes each, big-endian 16-bit signed
//	32      1     stop byte (0xC0 = standard with accelerometer)
//
// # Command Builders
//
// Use the Build* functions to encode parameterized commands. Arguments are
// validated against their enumerated domains before any byte is produced:
//
//	cmd, err := protocol.BuildSetSampleRateCmd(250)
//	cmd, err := protocol.BuildConfigureChannelCmd(1, settings)
//
// Fixed commands are exported as Cmd* constants.
//
// # Reply Parsers
//
// ValidateMessage distinguishes complete acknowledgements from dongle poll
// failures and truncated replies. The Parse* functions extract values from
// the prose around them:
//
//	rate, ok := protocol.ParseSampleRate("Success: Sample rate is 250Hz$$$")
//	settings, err := protocol.ParseDefaultSettings("060110$$$")
//
// # Sample Codec
//
// Interpret24BitAsInt32 and Interpret16BitAsInt32 perform the exact
// twos-complement sign extension of the reference implementation. DecodeEEG
// scales counts to microvolts using the per-channel amplifier gain, DecodeAux
// scales to g-units with a fixed factor.
//
// # Reference
//
// https://docs.openbci.com/Cyton/CytonSDK/
// https://docs.openbci.com/Cyton/CytonDataFormat/
package protocol
