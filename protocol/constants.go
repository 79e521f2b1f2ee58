package protocol

// Streaming packet framing per the Cyton binary data format.
const (
	// StartByte marks the beginning of a streaming packet (0xA0)
	StartByte = 0xA0

	// StopByteStandard is the stop byte for the "standard with accelerometer"
	// AUX format, the only format fully supported by this library (0xC0)
	StopByteStandard = 0xC0

	// PacketSize is the total size of one streaming packet in bytes:
	// START(1) + ID(1) + EEG(8*3) + AUX(3*2) + STOP(1)
	PacketSize = 33

	// EEGChannelsPerPacket is the number of EEG channels carried by one packet.
	// A Daisy module doubles the logical channel count by chaining a second packet.
	EEGChannelsPerPacket = 8

	// EEGBytesPerChannel is the width of one EEG channel value (24-bit big-endian)
	EEGBytesPerChannel = 3

	// NumAuxChannels is the number of AUX channels per packet
	NumAuxChannels = 3

	// AuxBytesPerChannel is the width of one AUX channel value (16-bit big-endian)
	AuxBytesPerChannel = 2
)

// MessageTerminator ends every textual reply from the board.
const MessageTerminator = "$$$"

// pollFailureMarker is returned by the dongle when the serial link is up
// but no board answered the command.
const pollFailureMarker = "Device failed to poll Host"

// Single-byte ASCII commands per the Cyton SDK command set.
const (
	// CmdResetBoard resets the board state ('v')
	CmdResetBoard = 'v'

	// CmdQueryFirmwareVersion reports the firmware version string ('V')
	CmdQueryFirmwareVersion = 'V'

	// CmdStartStreaming starts the binary sample stream ('b')
	CmdStartStreaming = 'b'

	// CmdStopStreaming stops the binary sample stream ('s')
	CmdStopStreaming = 's'

	// CmdAttachWiFi attaches the WiFi shield ('{')
	CmdAttachWiFi = '{'

	// CmdDetachWiFi detaches the WiFi shield ('}')
	CmdDetachWiFi = '}'

	// CmdQueryWiFiStatus reports the WiFi shield status (':')
	CmdQueryWiFiStatus = ':'

	// CmdResetWiFi soft resets the WiFi shield (';')
	CmdResetWiFi = ';'

	// CmdAttachDaisy sets the maximum channel count to 16 ('C')
	CmdAttachDaisy = 'C'

	// CmdDetachDaisy sets the maximum channel count to 8 ('c')
	CmdDetachDaisy = 'c'

	// CmdResetChannels restores all channels to default settings ('d')
	CmdResetChannels = 'd'

	// CmdQueryDefaultSettings reports the default channel settings string ('D')
	CmdQueryDefaultSettings = 'D'

	// CmdEnableTimestamp turns on timestamping ('<')
	CmdEnableTimestamp = '<'

	// CmdDisableTimestamp turns off timestamping ('>')
	CmdDisableTimestamp = '>'
)

// Query commands that are more than one byte long.
const (
	// CmdQuerySampleRate reports the current sample rate ("~~")
	CmdQuerySampleRate = "~~"

	// CmdQueryBoardMode reports the current board mode ("//")
	CmdQueryBoardMode = "//"
)

// Command prefixes for parameterized commands.
const (
	// sampleRatePrefix precedes the sample rate selector digit ('~')
	sampleRatePrefix = '~'

	// boardModePrefix precedes the board mode selector digit ('/')
	boardModePrefix = '/'

	// channelConfigPrefix opens a 9-byte channel settings command ('x')
	channelConfigPrefix = 'x'

	// channelConfigSuffix closes a 9-byte channel settings command ('X')
	channelConfigSuffix = 'X'
)

// ADC conversion constants per the ADS1299 datasheet and Cyton data format.
const (
	// VRef is the ADS1299 reference voltage in volts
	VRef = 4.5

	// AuxScale converts a raw 16-bit AUX value to g-units (0.002 / 2^4)
	AuxScale = 0.002 / 16

	// DefaultGain is substituted when a channel gain has not been set
	DefaultGain = 24
)

// MaxChannels is the number of channel slots a session tracks. Always 16 so
// that a Daisy module can be attached after the session is created.
const MaxChannels = 16

// sampleRateCodes maps supported sample rates to their selector digits.
var sampleRateCodes = map[int]byte{
	250:   '6',
	500:   '5',
	1000:  '4',
	2000:  '3',
	4000:  '2',
	8000:  '1',
	16000: '0',
}

// boardModeCodes maps board mode names to their selector digits.
var boardModeCodes = map[string]byte{
	"default": '0',
	"debug":   '1',
	"analog":  '2',
	"digital": '3',
	"marker":  '4',
}

// channelEnableCodes holds the channel-on commands, indexed by channel-1.
var channelEnableCodes = []byte("!@#$%^&*QWERTYUI")

// channelDisableCodes holds the channel-off commands, indexed by channel-1.
var channelDisableCodes = []byte("12345678qwertyui")

// channelSelectCodes holds the CHANNEL field codes for the channel settings
// command, indexed by channel-1.
var channelSelectCodes = []byte("12345678QWERTYUI")

// gainCodes maps ladder gain values to their GAIN_SET digits.
var gainCodes = map[int]byte{
	1:  '0',
	2:  '1',
	4:  '2',
	6:  '3',
	8:  '4',
	12: '5',
	24: '6',
}

// inputTypeCodes maps INPUT_TYPE_SET names to their digits.
var inputTypeCodes = map[string]byte{
	"NORMAL":    '0',
	"SHORTED":   '1',
	"BIAS_MEAS": '2',
	"MVDD":      '3',
	"TEMP":      '4',
	"TESTSIG":   '5',
	"BIAS_DRP":  '6',
	"BIAS_DRN":  '7',
}

// powerDownCodes maps POWER_DOWN names to their digits.
var powerDownCodes = map[string]byte{
	"ON":  '0',
	"OFF": '1',
}

// SupportedSampleRates returns the sample rates accepted by
// BuildSetSampleRateCmd, in ascending order.
func SupportedSampleRates() []int {
	return []int{250, 500, 1000, 2000, 4000, 8000, 16000}
}

// SupportedGains returns the amplifier gain ladder accepted by
// BuildConfigureChannelCmd, in ascending order.
func SupportedGains() []int {
	return []int{1, 2, 4, 6, 8, 12, 24}
}

// SupportedBoardModes returns the board mode names accepted by
// BuildSetBoardModeCmd.
func SupportedBoardModes() []string {
	return []string{"default", "debug", "analog", "digital", "marker"}
}

// SupportedInputTypes returns the INPUT_TYPE_SET names accepted by
// BuildConfigureChannelCmd.
func SupportedInputTypes() []string {
	return []string{
		"NORMAL", "SHORTED", "BIAS_MEAS", "MVDD",
		"TEMP", "TESTSIG", "BIAS_DRP", "BIAS_DRN",
	}
}
