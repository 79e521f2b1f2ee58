package cyton

import "github.com/openeeg/go-cyton/protocol"

// State is the session lifecycle phase.
type State int

const (
	// StateInitializing means the transport is acquired but the board has
	// not been reset yet
	StateInitializing State = iota

	// StateIdle means the board is configured and not streaming
	StateIdle

	// StateStreaming means the board is emitting binary sample packets
	StateStreaming

	// StateClosed means the session has been terminated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// BoardState is the derived board state tracked by a session. It is mutated
// only through the session's protocol operations; callers receive copies.
//
// Zero values mean unknown: SampleRate 0, BoardMode and FirmwareVersion "".
type BoardState struct {
	// State is the session lifecycle phase
	State State

	// Streaming is true between StartStreaming and StopStreaming
	Streaming bool

	// WiFiAttached is true after a successful AttachWiFi, or when
	// GetWiFiStatus reported a shield present
	WiFiAttached bool

	// DaisyAttached is true when a Daisy module was detected by ResetBoard
	// or attached with AttachDaisy
	DaisyAttached bool

	// SampleRate is the last parsed sample rate in Hz, 0 if unknown
	SampleRate int

	// BoardMode is the last parsed board mode, "" if unknown
	BoardMode string

	// FirmwareVersion is set by GetFirmwareVersion, "" if unknown
	FirmwareVersion string

	// BoardInfo is the full reset message, "" before ResetBoard
	BoardInfo string
}

// NumEEGChannels is the active EEG channel count: 16 with a Daisy module,
// otherwise 8.
func (b BoardState) NumEEGChannels() int {
	if b.DaisyAttached {
		return protocol.MaxChannels
	}
	return protocol.EEGChannelsPerPacket
}

// ChannelConfig is the cached configuration of one physical channel.
// All 16 slots are allocated at session creation so a Daisy module can be
// attached later; slots beyond NumEEGChannels are inactive.
type ChannelConfig struct {
	// Channel is the 1-based channel index
	Channel int

	// Enabled is nil until the channel has been enabled or disabled
	Enabled *bool

	// Settings is nil until the channel has been configured. While nil,
	// sample decoding falls back to the default gain of 24 and reports the
	// fallback at warn level.
	Settings *protocol.ChannelSettings
}

// ChannelSetup describes the desired state of one channel for
// SetChannelConfigs.
type ChannelSetup struct {
	// Enabled selects whether the channel takes part in acquisition
	Enabled bool

	// Settings are applied with the channel settings command
	Settings protocol.ChannelSettings
}

// Snapshot is a point-in-time copy of the board configuration.
type Snapshot struct {
	// BoardMode is the current board mode, "" if unknown
	BoardMode string

	// SampleRate is the current sample rate in Hz, 0 if unknown
	SampleRate int

	// Channels holds all 16 channel config slots
	Channels []ChannelConfig
}
