package protocol

import "time"

// ChannelSettings holds the six fields of a channel settings command.
// String fields are matched case-insensitively by the command builders.
type ChannelSettings struct {
	// PowerDown is the POWER_DOWN value, "ON" or "OFF"
	PowerDown string

	// Gain is the GAIN_SET value, one of 1, 2, 4, 6, 8, 12, 24
	Gain int

	// InputType is the INPUT_TYPE_SET value, one of NORMAL, SHORTED,
	// BIAS_MEAS, MVDD, TEMP, TESTSIG, BIAS_DRP, BIAS_DRN
	InputType string

	// Bias is the BIAS_SET value, 0 to remove or 1 to include
	Bias int

	// SRB2 is the SRB2_SET value, 0 to disconnect or 1 to connect
	SRB2 int

	// SRB1 is the SRB1_SET value, 0 to disconnect or 1 to connect
	SRB1 int
}

// DefaultChannelSettings returns the board's factory channel settings.
func DefaultChannelSettings() ChannelSettings {
	return ChannelSettings{
		PowerDown: "ON",
		Gain:      24,
		InputType: "NORMAL",
		Bias:      1,
		SRB2:      1,
		SRB1:      0,
	}
}

// RawPacket is one streaming packet with the framing stripped but the
// channel values still in wire encoding.
type RawPacket struct {
	// PacketID is the wrapping 0-255 packet counter
	PacketID byte

	// EEG holds 8 channels of 24-bit big-endian signed values
	EEG [EEGChannelsPerPacket][EEGBytesPerChannel]byte

	// Aux holds 3 channels of 16-bit big-endian signed values
	Aux [NumAuxChannels][AuxBytesPerChannel]byte

	// StopByte indicates the AUX format variant
	StopByte byte
}

// Packet is one decoded acquisition unit in physical units.
// EEG values are in microvolts, AUX values in g-units.
type Packet struct {
	// PacketID is the wrapping 0-255 packet counter. With a Daisy module
	// attached this is the ID of the first of the two merged packets.
	PacketID byte

	// EEG holds one value per channel, 8 without Daisy or 16 with
	EEG []float64

	// Aux holds the 3 AUX channel values
	Aux []float64

	// StopByte is the received stop byte
	StopByte byte

	// Timestamp is captured when the packet's start byte is found
	Timestamp time.Time

	// Valid is true when the stop byte matched the supported format.
	// An invalid packet is still decoded best-effort but the sample
	// acquisition was likely out of sync.
	Valid bool
}
