package cyton

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/openeeg/go-cyton/protocol"
)

// daisyMarker appears in the reset message when a Daisy module is present.
const daisyMarker = "Daisy"

// wifiAbsentMarker appears in the WiFi status reply when no shield is present.
const wifiAbsentMarker = "not present"

// Session is a stateful driver for one Cyton board over an exclusively owned
// transport. All operations are synchronous and blocking; the protocol is
// strictly half-duplex, so at most one request is ever in flight.
//
// Session is NOT safe for concurrent use.
type Session struct {
	transport Transport
	config    Config

	state    BoardState
	channels [protocol.MaxChannels]ChannelConfig
}

func newSession(t Transport, cfg Config) *Session {
	s := &Session{
		transport: t,
		config:    cfg,
		state:     BoardState{State: StateInitializing},
	}
	for i := range s.channels {
		s.channels[i] = ChannelConfig{Channel: i + 1}
	}
	return s
}

// State returns a copy of the current board state.
func (s *Session) State() BoardState {
	return s.state
}

// Channels returns a copy of all 16 channel config slots.
func (s *Session) Channels() []ChannelConfig {
	out := make([]ChannelConfig, len(s.channels))
	copy(out, s.channels[:])
	return out
}

// Config returns a snapshot of the current board configuration.
func (s *Session) Config() Snapshot {
	return Snapshot{
		BoardMode:  s.state.BoardMode,
		SampleRate: s.state.SampleRate,
		Channels:   s.Channels(),
	}
}

// Cycle returns the time one sample acquisition takes over all channels,
// doubled when a Daisy module is attached (two chained packets per sample).
// Returns 0 when the sample rate is unknown.
func (s *Session) Cycle() time.Duration {
	if s.state.SampleRate == 0 {
		return 0
	}
	cycle := time.Second / time.Duration(s.state.SampleRate)
	if s.state.DaisyAttached {
		cycle *= 2
	}
	return cycle
}

// ResetBoard resets the board state and reads the startup message.
// Daisy module presence is detected from the message. Transitions the
// session from initializing to idle.
func (s *Session) ResetBoard() error {
	s.config.Logger.Info().Msg("resetting board")
	if err := s.write([]byte{protocol.CmdResetBoard}); err != nil {
		return err
	}
	msg, err := s.readMessage()
	if err != nil {
		return err
	}
	s.state.BoardInfo = msg
	s.state.DaisyAttached = strings.Contains(msg, daisyMarker)
	if s.state.State == StateInitializing {
		s.state.State = StateIdle
	}
	s.config.Logger.Info().
		Bool("daisy_attached", s.state.DaisyAttached).
		Msg("board reset")
	return nil
}

// GetFirmwareVersion queries the firmware version string.
func (s *Session) GetFirmwareVersion() (string, error) {
	s.config.Logger.Info().Msg("getting firmware version")
	if err := s.write([]byte{protocol.CmdQueryFirmwareVersion}); err != nil {
		return "", err
	}
	msg, err := s.readMessage()
	if err != nil {
		return "", err
	}
	s.state.FirmwareVersion = strings.TrimSuffix(msg, protocol.MessageTerminator)
	return s.state.FirmwareVersion, nil
}

// GetBoardMode queries the current board mode. An unparseable reply is a
// soft failure: the returned mode is "" and a warning is logged.
func (s *Session) GetBoardMode() (string, error) {
	s.config.Logger.Info().Msg("getting board mode")
	if err := s.write([]byte(protocol.CmdQueryBoardMode)); err != nil {
		return "", err
	}
	msg, err := s.readMessage()
	if err != nil {
		return "", err
	}
	s.updateBoardMode(msg)
	return s.state.BoardMode, nil
}

// SetBoardMode sets the board mode. mode is matched case-insensitively
// against default, debug, analog, digital and marker; an out-of-domain mode
// is rejected before any byte is written.
func (s *Session) SetBoardMode(mode string) error {
	s.config.Logger.Info().Str("mode", mode).Msg("setting board mode")
	cmd, err := protocol.BuildSetBoardModeCmd(mode)
	if err != nil {
		return err
	}
	if err := s.write(cmd); err != nil {
		return err
	}
	msg, err := s.readMessage()
	if err != nil {
		return err
	}
	s.updateBoardMode(msg)
	return nil
}

func (s *Session) updateBoardMode(msg string) {
	mode, ok := protocol.ParseBoardMode(msg)
	if !ok {
		s.config.Logger.Warn().Str("reply", msg).Msg("failed to parse board mode")
	}
	s.state.BoardMode = mode
}

// GetSampleRate queries the current sample rate. An unparseable reply is a
// soft failure: the returned rate is 0 and a warning is logged.
func (s *Session) GetSampleRate() (int, error) {
	s.config.Logger.Info().Msg("getting sample rate")
	if err := s.write([]byte(protocol.CmdQuerySampleRate)); err != nil {
		return 0, err
	}
	msg, err := s.readMessage()
	if err != nil {
		return 0, err
	}
	s.updateSampleRate(msg)
	return s.state.SampleRate, nil
}

// SetSampleRate sets the sample rate. rate must be one of the supported
// rates; an out-of-domain rate is rejected before any byte is written.
//
// The Cyton with USB dongle will not stream above 250 SPS; higher rates
// require the WiFi shield.
func (s *Session) SetSampleRate(rate int) (int, error) {
	s.config.Logger.Info().Int("sample_rate", rate).Msg("setting sample rate")
	cmd, err := protocol.BuildSetSampleRateCmd(rate)
	if err != nil {
		return 0, err
	}
	if err := s.write(cmd); err != nil {
		return 0, err
	}
	msg, err := s.readMessage()
	if err != nil {
		return 0, err
	}
	s.updateSampleRate(msg)
	return s.state.SampleRate, nil
}

func (s *Session) updateSampleRate(msg string) {
	rate, ok := protocol.ParseSampleRate(msg)
	if !ok {
		s.config.Logger.Warn().Str("reply", msg).Msg("failed to parse sample rate")
	}
	s.state.SampleRate = rate
}

// AttachWiFi attaches the WiFi shield. A failure reply leaves WiFiAttached
// unchanged and is returned as an OperationFailedError. A no-op when the
// shield is already attached.
func (s *Session) AttachWiFi() error {
	if s.state.WiFiAttached {
		s.config.Logger.Warn().Msg("wifi shield already attached")
		return nil
	}
	s.config.Logger.Info().Msg("attaching wifi shield")
	if err := s.write([]byte{protocol.CmdAttachWiFi}); err != nil {
		return err
	}
	msg, err := s.readMessage()
	if err != nil {
		return err
	}
	if protocol.IsFailureReply(msg) {
		return &OperationFailedError{Op: "attach wifi", Reply: msg}
	}
	s.state.WiFiAttached = true
	return nil
}

// DetachWiFi detaches the WiFi shield. A failure reply leaves WiFiAttached
// unchanged and is returned as an OperationFailedError. A no-op when no
// shield is attached.
func (s *Session) DetachWiFi() error {
	if !s.state.WiFiAttached {
		s.config.Logger.Warn().Msg("no wifi shield to detach")
		return nil
	}
	s.config.Logger.Info().Msg("detaching wifi shield")
	if err := s.write([]byte{protocol.CmdDetachWiFi}); err != nil {
		return err
	}
	msg, err := s.readMessage()
	if err != nil {
		return err
	}
	if protocol.IsFailureReply(msg) {
		return &OperationFailedError{Op: "detach wifi", Reply: msg}
	}
	s.state.WiFiAttached = false
	return nil
}

// GetWiFiStatus queries the WiFi shield status and updates WiFiAttached
// from the reply. Returns the raw status message.
func (s *Session) GetWiFiStatus() (string, error) {
	s.config.Logger.Info().Msg("getting wifi shield status")
	if err := s.write([]byte{protocol.CmdQueryWiFiStatus}); err != nil {
		return "", err
	}
	msg, err := s.readMessage()
	if err != nil {
		return "", err
	}
	s.state.WiFiAttached = !strings.Contains(msg, wifiAbsentMarker)
	return msg, nil
}

// ResetWiFi performs a soft power reset of the WiFi shield and returns the
// board's reply.
func (s *Session) ResetWiFi() (string, error) {
	s.config.Logger.Info().Msg("resetting wifi shield")
	if err := s.write([]byte{protocol.CmdResetWiFi}); err != nil {
		return "", err
	}
	return s.readMessage()
}

// AttachDaisy raises the maximum channel count to 16. The attach is
// considered successful only when the reply reports 16 channels; a reply
// such as "no daisy to attach!8$$$" leaves DaisyAttached false. A no-op when
// a Daisy module is already attached.
//
// On reset the board defaults to 16 channels if a Daisy module is present,
// so this is only needed for re-attaching.
func (s *Session) AttachDaisy() error {
	if s.state.DaisyAttached {
		s.config.Logger.Warn().Msg("daisy already attached")
		return nil
	}
	s.config.Logger.Info().Msg("attaching daisy module")
	if err := s.write([]byte{protocol.CmdAttachDaisy}); err != nil {
		return err
	}
	msg, err := s.readMessage()
	if err != nil {
		return err
	}
	count, ok := protocol.ParseDaisyChannelCount(msg)
	if !ok {
		return &protocol.MalformedReplyError{Reply: msg}
	}
	s.state.DaisyAttached = count == protocol.MaxChannels
	s.config.Logger.Info().
		Int("channels", count).
		Bool("daisy_attached", s.state.DaisyAttached).
		Msg("daisy attach reply")
	return nil
}

// DetachDaisy lowers the maximum channel count to 8. A no-op when no Daisy
// module is attached.
func (s *Session) DetachDaisy() error {
	if !s.state.DaisyAttached {
		s.config.Logger.Warn().Msg("daisy not attached")
		return nil
	}
	s.config.Logger.Info().Msg("detaching daisy module")
	if err := s.write([]byte{protocol.CmdDetachDaisy}); err != nil {
		return err
	}
	if _, err := s.readMessage(); err != nil {
		return err
	}
	s.state.DaisyAttached = false
	return nil
}

// EnableChannel turns on a channel for sample acquisition. channel is
// validated against the full 16-slot table regardless of Daisy state; the
// board itself rejects out-of-range codes. No acknowledgement is read.
func (s *Session) EnableChannel(channel int) error {
	cmd, err := protocol.BuildEnableChannelCmd(channel)
	if err != nil {
		return err
	}
	s.config.Logger.Info().Int("channel", channel).Msg("enabling channel")
	if err := s.write(cmd); err != nil {
		return err
	}
	enabled := true
	s.channels[channel-1].Enabled = &enabled
	return nil
}

// DisableChannel turns off a channel for sample acquisition. No
// acknowledgement is read.
func (s *Session) DisableChannel(channel int) error {
	cmd, err := protocol.BuildDisableChannelCmd(channel)
	if err != nil {
		return err
	}
	s.config.Logger.Info().Int("channel", channel).Msg("disabling channel")
	if err := s.write(cmd); err != nil {
		return err
	}
	enabled := false
	s.channels[channel-1].Enabled = &enabled
	return nil
}

// ConfigureChannel applies channel settings with the 9-byte channel settings
// command. All fields are validated before any byte is written.
//
// An acknowledgement is read only when the board is not streaming or the
// WiFi shield is attached: a USB-direct board produces no ack while
// streaming, and blocking on one would stall the read loop. A failure reply
// leaves the cached config unchanged.
func (s *Session) ConfigureChannel(channel int, settings protocol.ChannelSettings) error {
	cmd, err := protocol.BuildConfigureChannelCmd(channel, settings)
	if err != nil {
		return err
	}
	s.config.Logger.Info().Int("channel", channel).Msg("configuring channel")
	if err := s.write(cmd); err != nil {
		return err
	}
	if !s.state.Streaming || s.state.WiFiAttached {
		msg, err := s.readMessage()
		if err != nil {
			return err
		}
		if protocol.IsFailureReply(msg) {
			return &OperationFailedError{Op: fmt.Sprintf("configure channel %d", channel), Reply: msg}
		}
	}
	normalized := settings
	normalized.PowerDown = strings.ToUpper(settings.PowerDown)
	normalized.InputType = strings.ToUpper(settings.InputType)
	s.channels[channel-1].Settings = &normalized
	return nil
}

// ResetChannels restores all channels to their default settings.
func (s *Session) ResetChannels() error {
	s.config.Logger.Info().Msg("resetting channels to default")
	if err := s.write([]byte{protocol.CmdResetChannels}); err != nil {
		return err
	}
	_, err := s.readMessage()
	return err
}

// GetDefaultSettings queries the board's default channel settings and
// decodes the 6-digit reply into settings usable with ConfigureChannel.
func (s *Session) GetDefaultSettings() (protocol.ChannelSettings, error) {
	s.config.Logger.Info().Msg("getting default channel settings")
	if err := s.write([]byte{protocol.CmdQueryDefaultSettings}); err != nil {
		return protocol.ChannelSettings{}, err
	}
	msg, err := s.readMessage()
	if err != nil {
		return protocol.ChannelSettings{}, err
	}
	return protocol.ParseDefaultSettings(msg)
}

// StartStreaming starts the binary sample stream. When the WiFi shield is
// attached, exactly one acknowledgement is consumed; a USB-direct board
// sends none. Transitions idle to streaming.
func (s *Session) StartStreaming() error {
	s.config.Logger.Info().Msg("start streaming")
	if err := s.write([]byte{protocol.CmdStartStreaming}); err != nil {
		return err
	}
	s.state.Streaming = true
	s.state.State = StateStreaming
	if s.state.WiFiAttached {
		if _, err := s.readMessage(); err != nil {
			return err
		}
	}
	return nil
}

// StopStreaming stops the binary sample stream. When the WiFi shield is
// attached, one acknowledgement is consumed. Transitions streaming to idle.
func (s *Session) StopStreaming() error {
	s.config.Logger.Info().Msg("stop streaming")
	if err := s.write([]byte{protocol.CmdStopStreaming}); err != nil {
		return err
	}
	s.state.Streaming = false
	if s.state.State == StateStreaming {
		s.state.State = StateIdle
	}
	if s.state.WiFiAttached {
		if _, err := s.readMessage(); err != nil {
			return err
		}
	}
	return nil
}

// EnableTimestamp turns on timestamping. Timestamp packet formats are not
// decoded by this library. The acknowledgement is read only when not
// streaming.
func (s *Session) EnableTimestamp() error {
	s.config.Logger.Info().Msg("enabling timestamp")
	if err := s.write([]byte{protocol.CmdEnableTimestamp}); err != nil {
		return err
	}
	if !s.state.Streaming {
		if _, err := s.readMessage(); err != nil {
			return err
		}
	}
	return nil
}

// DisableTimestamp turns off timestamping. The acknowledgement is read only
// when not streaming.
func (s *Session) DisableTimestamp() error {
	s.config.Logger.Info().Msg("disabling timestamp")
	if err := s.write([]byte{protocol.CmdDisableTimestamp}); err != nil {
		return err
	}
	if !s.state.Streaming {
		if _, err := s.readMessage(); err != nil {
			return err
		}
	}
	return nil
}

// ReadSample reads one decoded sample. Valid only while streaming.
//
// The session discards and counts any bytes received before the start byte
// (reported at warn level, never fatal), then reads the fixed-size packet
// body. With a Daisy module attached a second packet is read immediately and
// its EEG channels are appended; the first packet's id and AUX values are
// canonical. The timestamp is captured when the first start byte is found.
func (s *Session) ReadSample() (*protocol.Packet, error) {
	if s.state.State == StateClosed {
		return nil, ErrClosed
	}
	if !s.state.Streaming {
		return nil, ErrNotStreaming
	}

	pkt, err := s.readPacket()
	if err != nil {
		return nil, err
	}
	if s.state.DaisyAttached {
		pkt2, err := s.readPacket()
		if err != nil {
			return nil, err
		}
		pkt.EEG = append(pkt.EEG, pkt2.EEG...)
		pkt.Valid = pkt.Valid && pkt2.Valid
	}
	return pkt, nil
}

// readPacket syncs to a start byte, reads one packet body and decodes it to
// physical units.
func (s *Session) readPacket() (*protocol.Packet, error) {
	if err := s.waitStartByte(); err != nil {
		return nil, err
	}
	timestamp := time.Now()

	body := make([]byte, protocol.PacketSize-1)
	if err := s.readFull(body); err != nil {
		return nil, err
	}
	raw, err := protocol.ParseRawPacket(body)
	if err != nil {
		return nil, err
	}

	pkt := &protocol.Packet{
		PacketID:  raw.PacketID,
		EEG:       make([]float64, 0, protocol.EEGChannelsPerPacket),
		Aux:       make([]float64, 0, protocol.NumAuxChannels),
		StopByte:  raw.StopByte,
		Timestamp: timestamp,
		Valid:     raw.StopByte == protocol.StopByteStandard,
	}
	if !pkt.Valid {
		s.config.Logger.Warn().
			Uint8("stop_byte", raw.StopByte).
			Msg("unsupported stop byte; only 0xC0 (standard with accel) is implemented, decoding best-effort")
	}

	for i := range raw.EEG {
		pkt.EEG = append(pkt.EEG, protocol.DecodeEEG(raw.EEG[i][:], s.channelGain(i)))
	}
	for i := range raw.Aux {
		pkt.Aux = append(pkt.Aux, protocol.DecodeAux(raw.Aux[i][:]))
	}
	return pkt, nil
}

// channelGain returns the cached gain for a 0-based channel index, falling
// back to the default gain when the channel has not been configured.
func (s *Session) channelGain(index int) int {
	cfg := s.channels[index%protocol.MaxChannels]
	if cfg.Settings == nil {
		s.config.Logger.Warn().
			Int("channel", cfg.Channel).
			Int("gain", protocol.DefaultGain).
			Msg("gain not explicitly set, using default")
		return protocol.DefaultGain
	}
	return cfg.Settings.Gain
}

// waitStartByte reads until a start byte is found, discarding and counting
// anything else. A timed-out read (0 bytes) fails with
// SampleAcquisitionTimeoutError.
func (s *Session) waitStartByte() error {
	skipped := 0
	buf := make([]byte, 1)
	for {
		n, err := s.transport.Read(buf)
		if err != nil {
			return fmt.Errorf("read start byte: %w", err)
		}
		if n == 0 {
			return &SampleAcquisitionTimeoutError{Skipped: skipped}
		}
		if buf[0] == protocol.StartByte {
			break
		}
		skipped++
	}
	if skipped > 0 {
		s.config.Logger.Warn().Int("bytes", skipped).Msg("skipped bytes while seeking start byte")
	}
	return nil
}

// readFull reads exactly len(buf) bytes, failing on a read timeout.
func (s *Session) readFull(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := s.transport.Read(buf[total:])
		if err != nil {
			return fmt.Errorf("read packet: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("transport timed out mid-packet: got %d of %d bytes", total, len(buf))
		}
		total += n
	}
	return nil
}

// SetChannelConfigs enables and configures the active channels in sequence,
// pausing SettleDelay between commands. Channel commands are not strictly
// ack-gated and the board needs processing time between a single-byte enable
// and a 9-byte configure. setups must cover at least NumEEGChannels entries.
func (s *Session) SetChannelConfigs(setups []ChannelSetup) error {
	active := s.state.NumEEGChannels()
	if len(setups) < active {
		return fmt.Errorf("need %d channel setups, got %d", active, len(setups))
	}
	for i := 0; i < active; i++ {
		channel := i + 1
		if err := s.EnableChannel(channel); err != nil {
			return err
		}
		s.settle()
		if err := s.ConfigureChannel(channel, setups[i].Settings); err != nil {
			return err
		}
		s.settle()
		if !setups[i].Enabled {
			if err := s.DisableChannel(channel); err != nil {
				return err
			}
			s.settle()
		}
	}
	return nil
}

// Initialize brings the board to a known default state: reset, firmware
// query, default board mode, 250 Hz sample rate, then every active channel
// enabled and configured with the board's own default settings.
func (s *Session) Initialize() error {
	if err := s.ResetBoard(); err != nil {
		return fmt.Errorf("reset board: %w", err)
	}
	if _, err := s.GetFirmwareVersion(); err != nil {
		return fmt.Errorf("get firmware version: %w", err)
	}
	if err := s.SetBoardMode("default"); err != nil {
		return fmt.Errorf("set board mode: %w", err)
	}
	s.settle()
	if _, err := s.SetSampleRate(250); err != nil {
		return fmt.Errorf("set sample rate: %w", err)
	}
	s.settle()
	defaults, err := s.GetDefaultSettings()
	if err != nil {
		return fmt.Errorf("get default settings: %w", err)
	}
	setups := make([]ChannelSetup, s.state.NumEEGChannels())
	for i := range setups {
		setups[i] = ChannelSetup{Enabled: true, Settings: defaults}
	}
	return s.SetChannelConfigs(setups)
}

// Terminate stops streaming if necessary, then closes the transport when the
// session owns it. Idempotent; the session is closed afterwards regardless
// of errors.
func (s *Session) Terminate() error {
	if s.state.State == StateClosed {
		return nil
	}
	var firstErr error
	if s.state.Streaming {
		firstErr = s.StopStreaming()
	}
	if s.config.CloseOnTerminate {
		if err := s.transport.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close transport: %w", err)
		}
	}
	s.state.State = StateClosed
	return firstErr
}

func (s *Session) settle() {
	if s.config.SettleDelay > 0 {
		time.Sleep(s.config.SettleDelay)
	}
}

// write sends a command to the transport. Validation happens before this
// point; a failed validation never touches the transport.
func (s *Session) write(cmd []byte) error {
	if s.state.State == StateClosed {
		return ErrClosed
	}
	s.config.Logger.Debug().Bytes("command", cmd).Msg("write")
	if _, err := s.transport.Write(cmd); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// readMessage reads until the "$$$" terminator or a read timeout, then
// validates the reply. The raw message is returned even when validation
// fails so callers can report it.
func (s *Session) readMessage() (string, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := s.transport.Read(one)
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		if n == 0 {
			break
		}
		buf = append(buf, one[0])
		if bytes.HasSuffix(buf, []byte(protocol.MessageTerminator)) {
			break
		}
	}
	msg := string(buf)
	s.config.Logger.Debug().Str("reply", msg).Msg("read")
	if err := protocol.ValidateMessage(msg); err != nil {
		return msg, err
	}
	return msg, nil
}
