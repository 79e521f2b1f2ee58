package protocol

import (
	"regexp"
	"strconv"
	"strings"
)

// Textual replies carry values embedded in prose, so they are extracted with
// pattern searches rather than fixed-offset parsing.
var (
	sampleRatePattern = regexp.MustCompile(`\s(\d+)\s*Hz\$\$\$`)
	boardModePattern  = regexp.MustCompile(`.*\s(\S+)\$\$\$`)
	daisyPattern      = regexp.MustCompile(`(\d{1,2})\$\$\$`)
)

// failureMarker appears in replies when the board rejected a WiFi or channel
// settings command. Matched case-insensitively.
const failureMarker = "failure"

// ValidateMessage checks that a reply is a complete board acknowledgement.
// It returns a DeviceNotRespondingError when the dongle reports that no
// board answered, and a MalformedReplyError when the reply is not terminated
// with "$$$" (typically a read timeout or desync).
func ValidateMessage(msg string) error {
	if strings.Contains(msg, pollFailureMarker) {
		return &DeviceNotRespondingError{Reply: msg}
	}
	if !strings.HasSuffix(msg, MessageTerminator) {
		return &MalformedReplyError{Reply: msg}
	}
	return nil
}

// IsFailureReply reports whether a reply contains the board's failure
// indicator, such as "Failure: Wifi not attached$$$".
func IsFailureReply(msg string) bool {
	return strings.Contains(strings.ToLower(msg), failureMarker)
}

// ParseSampleRate extracts the sample rate from a reply such as
// "Success: Sample rate is 250Hz$$$". The board wraps the number in
// human-readable prose, so an absent match is not an error; ok is false and
// the caller decides whether to warn.
func ParseSampleRate(msg string) (rate int, ok bool) {
	m := sampleRatePattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	rate, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return rate, true
}

// ParseBoardMode extracts the trailing whitespace-delimited token before the
// terminator from a reply such as "Success: default$$$". ok is false when no
// token is found.
func ParseBoardMode(msg string) (mode string, ok bool) {
	m := boardModePattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseDaisyChannelCount extracts the channel count from a Daisy attach or
// detach reply such as "daisy attached16$$$" or "no daisy to attach!8$$$".
func ParseDaisyChannelCount(msg string) (count int, ok bool) {
	m := daisyPattern.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return count, true
}

// ParseDefaultSettings decodes the fixed-width 6-digit reply to the query
// default settings command into channel settings usable directly with
// BuildConfigureChannelCmd. Digit order: POWER_DOWN, GAIN_SET,
// INPUT_TYPE_SET, BIAS_SET, SRB2_SET, SRB1_SET.
func ParseDefaultSettings(msg string) (ChannelSettings, error) {
	val := strings.TrimSuffix(msg, MessageTerminator)
	if len(val) < 6 {
		return ChannelSettings{}, &MalformedReplyError{Reply: msg}
	}

	powerDown, ok := reverseLookup(powerDownCodes, val[0])
	if !ok {
		return ChannelSettings{}, &MalformedReplyError{Reply: msg}
	}
	gain, ok := reverseLookupInt(gainCodes, val[1])
	if !ok {
		return ChannelSettings{}, &MalformedReplyError{Reply: msg}
	}
	inputType, ok := reverseLookup(inputTypeCodes, val[2])
	if !ok {
		return ChannelSettings{}, &MalformedReplyError{Reply: msg}
	}

	settings := ChannelSettings{
		PowerDown: powerDown,
		Gain:      gain,
		InputType: inputType,
	}
	for i, dst := range []*int{&settings.Bias, &settings.SRB2, &settings.SRB1} {
		switch val[3+i] {
		case '0':
			*dst = 0
		case '1':
			*dst = 1
		default:
			return ChannelSettings{}, &MalformedReplyError{Reply: msg}
		}
	}

	return settings, nil
}

// reverseLookup finds the name whose code digit matches c.
func reverseLookup(codes map[string]byte, c byte) (string, bool) {
	for name, code := range codes {
		if code == c {
			return name, true
		}
	}
	return "", false
}

// reverseLookupInt finds the value whose code digit matches c.
func reverseLookupInt(codes map[int]byte, c byte) (int, bool) {
	for value, code := range codes {
		if code == c {
			return value, true
		}
	}
	return 0, false
}
