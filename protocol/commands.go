package protocol

import (
	"fmt"
	"strings"
)

// BuildSetSampleRateCmd constructs a set-sample-rate command.
// rate must be one of 250, 500, 1000, 2000, 4000, 8000 or 16000.
//
// Command structure:
//
//	'~' + selector digit ('6' for 250 down to '0' for 16000)
func BuildSetSampleRateCmd(rate int) ([]byte, error) {
	code, ok := sampleRateCodes[rate]
	if !ok {
		return nil, &InvalidArgumentError{
			Field:  "sample_rate",
			Value:  rate,
			Domain: fmt.Sprint(SupportedSampleRates()),
		}
	}
	return []byte{sampleRatePrefix, code}, nil
}

// BuildSetBoardModeCmd constructs a set-board-mode command.
// mode is matched case-insensitively against default, debug, analog,
// digital and marker.
//
// Command structure:
//
//	'/' + selector digit ('0' through '4')
func BuildSetBoardModeCmd(mode string) ([]byte, error) {
	code, ok := boardModeCodes[strings.ToLower(mode)]
	if !ok {
		return nil, &InvalidArgumentError{
			Field:  "board_mode",
			Value:  mode,
			Domain: fmt.Sprint(SupportedBoardModes()),
		}
	}
	return []byte{boardModePrefix, code}, nil
}

// BuildEnableChannelCmd constructs a channel-on command.
// channel is 1-based and must be in [1, 16]. Channels 9-16 only take effect
// with a Daisy module attached; the board rejects them otherwise.
func BuildEnableChannelCmd(channel int) ([]byte, error) {
	if channel < 1 || channel > MaxChannels {
		return nil, &InvalidArgumentError{
			Field:  "channel",
			Value:  channel,
			Domain: fmt.Sprintf("[1, %d]", MaxChannels),
		}
	}
	return []byte{channelEnableCodes[channel-1]}, nil
}

// BuildDisableChannelCmd constructs a channel-off command.
// channel is 1-based and must be in [1, 16].
func BuildDisableChannelCmd(channel int) ([]byte, error) {
	if channel < 1 || channel > MaxChannels {
		return nil, &InvalidArgumentError{
			Field:  "channel",
			Value:  channel,
			Domain: fmt.Sprintf("[1, %d]", MaxChannels),
		}
	}
	return []byte{channelDisableCodes[channel-1]}, nil
}

// BuildConfigureChannelCmd constructs a 9-byte channel settings command.
// Every field is validated against its enumerated domain before any byte is
// produced; the first out-of-domain field is reported.
//
// Command structure:
//
//	'x' [CHANNEL][POWER_DOWN][GAIN_SET][INPUT_TYPE_SET][BIAS_SET][SRB2_SET][SRB1_SET] 'X'
func BuildConfigureChannelCmd(channel int, settings ChannelSettings) ([]byte, error) {
	if channel < 1 || channel > MaxChannels {
		return nil, &InvalidArgumentError{
			Field:  "channel",
			Value:  channel,
			Domain: fmt.Sprintf("[1, %d]", MaxChannels),
		}
	}

	powerDown, ok := powerDownCodes[strings.ToUpper(settings.PowerDown)]
	if !ok {
		return nil, &InvalidArgumentError{
			Field:  "power_down",
			Value:  settings.PowerDown,
			Domain: "[ON OFF]",
		}
	}

	gain, ok := gainCodes[settings.Gain]
	if !ok {
		return nil, &InvalidArgumentError{
			Field:  "gain",
			Value:  settings.Gain,
			Domain: fmt.Sprint(SupportedGains()),
		}
	}

	inputType, ok := inputTypeCodes[strings.ToUpper(settings.InputType)]
	if !ok {
		return nil, &InvalidArgumentError{
			Field:  "input_type",
			Value:  settings.InputType,
			Domain: fmt.Sprint(SupportedInputTypes()),
		}
	}

	bias, err := binaryCode("bias", settings.Bias)
	if err != nil {
		return nil, err
	}
	srb2, err := binaryCode("srb2", settings.SRB2)
	if err != nil {
		return nil, err
	}
	srb1, err := binaryCode("srb1", settings.SRB1)
	if err != nil {
		return nil, err
	}

	return []byte{
		channelConfigPrefix,
		channelSelectCodes[channel-1],
		powerDown,
		gain,
		inputType,
		bias,
		srb2,
		srb1,
		channelConfigSuffix,
	}, nil
}

// binaryCode validates a 0/1 field and returns its ASCII digit.
func binaryCode(field string, value int) (byte, error) {
	switch value {
	case 0:
		return '0', nil
	case 1:
		return '1', nil
	default:
		return 0, &InvalidArgumentError{
			Field:  field,
			Value:  value,
			Domain: "[0 1]",
		}
	}
}

// DecodeSampleRateCmd returns the sample rate encoded by a set-sample-rate
// command, for round-trip verification of the command table.
func DecodeSampleRateCmd(cmd []byte) (int, error) {
	if len(cmd) != 2 || cmd[0] != sampleRatePrefix {
		return 0, fmt.Errorf("not a sample rate command: %q", cmd)
	}
	for rate, code := range sampleRateCodes {
		if code == cmd[1] {
			return rate, nil
		}
	}
	return 0, fmt.Errorf("unknown sample rate selector %q", cmd[1])
}
