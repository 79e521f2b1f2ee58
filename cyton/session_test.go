package cyton

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/openeeg/go-cyton/protocol"
)

const (
	infoNoDaisy = "OpenBCI V3 8-16 channel\n" +
		"On Board ADS1299 Device ID: 0x3E\n" +
		"LIS3DH Device ID: 0x33\n" +
		"Firmware: v3.1.1\n$$$"

	infoWithDaisy = "OpenBCI V3 8-16 channel\n" +
		"On Board ADS1299 Device ID: 0x3E\n" +
		"On Daisy ADS1299 Device ID: 0x3E\n" +
		"LIS3DH Device ID: 0x33\n" +
		"Firmware: v3.1.1\n$$$"
)

// reply pairs an expected command with the bytes the board answers with.
type reply struct {
	expect []byte
	send   []byte
}

// MockTransport scripts a board: each Write is matched against the pending
// replies and the matching answer is queued for reading. An empty read buffer
// reads as 0 bytes, matching serial port timeout semantics.
type MockTransport struct {
	replies []reply
	readBuf bytes.Buffer
	writes  [][]byte
	closed  bool
}

func (m *MockTransport) Write(p []byte) (int, error) {
	cmd := append([]byte(nil), p...)
	m.writes = append(m.writes, cmd)
	for i, r := range m.replies {
		if bytes.Equal(cmd, r.expect) {
			m.readBuf.Write(r.send)
			m.replies = append(m.replies[:i], m.replies[i+1:]...)
			break
		}
	}
	return len(p), nil
}

func (m *MockTransport) Read(p []byte) (int, error) {
	if m.readBuf.Len() == 0 {
		return 0, nil
	}
	return m.readBuf.Read(p)
}

func (m *MockTransport) Close() error {
	m.closed = true
	return nil
}

// expectReply scripts one command/answer exchange.
func (m *MockTransport) expectReply(cmd, answer string) {
	m.replies = append(m.replies, reply{expect: []byte(cmd), send: []byte(answer)})
}

// queuePacket queues one streaming packet with the given id, optionally
// mutated before queueing. The layout is START ID EEG[24] AUX[6] STOP.
func (m *MockTransport) queuePacket(id byte, mutate func([]byte)) {
	pkt := make([]byte, protocol.PacketSize)
	pkt[0] = protocol.StartByte
	pkt[1] = id
	pkt[protocol.PacketSize-1] = protocol.StopByteStandard
	if mutate != nil {
		mutate(pkt)
	}
	m.readBuf.Write(pkt)
}

func newTestSession() (*Session, *MockTransport) {
	mock := &MockTransport{}
	return Attach(mock, WithSettleDelay(0)), mock
}

func TestAttachNilTransportPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Attach(nil) did not panic")
		}
	}()
	Attach(nil)
}

func TestResetBoard(t *testing.T) {
	tests := []struct {
		name      string
		info      string
		wantDaisy bool
	}{
		{name: "no daisy", info: infoNoDaisy, wantDaisy: false},
		{name: "with daisy", info: infoWithDaisy, wantDaisy: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, mock := newTestSession()
			mock.expectReply("v", tt.info)

			if err := board.ResetBoard(); err != nil {
				t.Fatalf("ResetBoard: %v", err)
			}
			state := board.State()
			if state.DaisyAttached != tt.wantDaisy {
				t.Errorf("DaisyAttached = %v, want %v", state.DaisyAttached, tt.wantDaisy)
			}
			if state.State != StateIdle {
				t.Errorf("State = %v, want idle", state.State)
			}
			if state.BoardInfo != tt.info {
				t.Errorf("BoardInfo = %q, want the reset message", state.BoardInfo)
			}
			wantChannels := 8
			if tt.wantDaisy {
				wantChannels = 16
			}
			if got := state.NumEEGChannels(); got != wantChannels {
				t.Errorf("NumEEGChannels = %d, want %d", got, wantChannels)
			}
		})
	}
}

func TestResetBoardDeviceNotResponding(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("v", "Failure: Communications timeout - Device failed to poll Host$$$")

	err := board.ResetBoard()
	var notResponding *protocol.DeviceNotRespondingError
	if !errors.As(err, &notResponding) {
		t.Errorf("error = %v, want DeviceNotRespondingError", err)
	}
}

func TestGetFirmwareVersion(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("V", "v3.1.1$$$")

	version, err := board.GetFirmwareVersion()
	if err != nil {
		t.Fatalf("GetFirmwareVersion: %v", err)
	}
	if version != "v3.1.1" {
		t.Errorf("version = %q, want v3.1.1", version)
	}
	if board.State().FirmwareVersion != "v3.1.1" {
		t.Errorf("state not updated: %q", board.State().FirmwareVersion)
	}
}

func TestGetFirmwareVersionMalformedReply(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("V", "v3.1.1") // terminator never arrives

	_, err := board.GetFirmwareVersion()
	var malformed *protocol.MalformedReplyError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %v, want MalformedReplyError", err)
	}
}

func TestSetSampleRate(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("~6", "Success: Sample rate is 250Hz$$$")

	rate, err := board.SetSampleRate(250)
	if err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}
	if rate != 250 || board.State().SampleRate != 250 {
		t.Errorf("rate = %d, state = %d, want 250", rate, board.State().SampleRate)
	}
}

func TestSetSampleRateRejectedBeforeWrite(t *testing.T) {
	board, mock := newTestSession()

	_, err := board.SetSampleRate(300)
	var argErr *protocol.InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v, want InvalidArgumentError", err)
	}
	if len(mock.writes) != 0 {
		t.Errorf("rejected command reached the transport: %q", mock.writes)
	}
}

func TestSetSampleRateUnparseableReplyIsSoftFailure(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("~6", "Success$$$")

	rate, err := board.SetSampleRate(250)
	if err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}
	if rate != 0 {
		t.Errorf("rate = %d, want 0 for unparseable reply", rate)
	}
}

func TestGetSampleRate(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("~~", "Success: Sample rate is 1000Hz$$$")

	rate, err := board.GetSampleRate()
	if err != nil {
		t.Fatalf("GetSampleRate: %v", err)
	}
	if rate != 1000 {
		t.Errorf("rate = %d, want 1000", rate)
	}
}

func TestBoardMode(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("/2", "Success: analog$$$")
	mock.expectReply("//", "Board mode is analog$$$")

	if err := board.SetBoardMode("analog"); err != nil {
		t.Fatalf("SetBoardMode: %v", err)
	}
	if board.State().BoardMode != "analog" {
		t.Errorf("BoardMode = %q, want analog", board.State().BoardMode)
	}

	mode, err := board.GetBoardMode()
	if err != nil {
		t.Fatalf("GetBoardMode: %v", err)
	}
	if mode != "analog" {
		t.Errorf("mode = %q, want analog", mode)
	}
}

func TestAttachWiFi(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("{", "Success: Wifi attached$$$")

	if err := board.AttachWiFi(); err != nil {
		t.Fatalf("AttachWiFi: %v", err)
	}
	if !board.State().WiFiAttached {
		t.Error("WiFiAttached = false after successful attach")
	}

	// Attaching again is a no-op; no command may reach the transport.
	writes := len(mock.writes)
	if err := board.AttachWiFi(); err != nil {
		t.Fatalf("second AttachWiFi: %v", err)
	}
	if len(mock.writes) != writes {
		t.Error("no-op attach wrote to the transport")
	}
}

func TestAttachWiFiFailure(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("{", "Failure: Wifi not attached$$$")

	err := board.AttachWiFi()
	var opErr *OperationFailedError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OperationFailedError", err)
	}
	if board.State().WiFiAttached {
		t.Error("WiFiAttached changed on failure")
	}
}

func TestGetWiFiStatus(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply(":", "Wifi present$$$")

	if _, err := board.GetWiFiStatus(); err != nil {
		t.Fatalf("GetWiFiStatus: %v", err)
	}
	if !board.State().WiFiAttached {
		t.Error("WiFiAttached = false for present shield")
	}

	mock.expectReply(":", "Wifi not present, send { to attach the shield$$$")
	if _, err := board.GetWiFiStatus(); err != nil {
		t.Fatalf("GetWiFiStatus: %v", err)
	}
	if board.State().WiFiAttached {
		t.Error("WiFiAttached = true for absent shield")
	}
}

func TestAttachDaisy(t *testing.T) {
	tests := []struct {
		name      string
		send      string
		wantDaisy bool
	}{
		{name: "attached", send: "daisy attached16$$$", wantDaisy: true},
		{name: "no module", send: "no daisy to attach!8$$$", wantDaisy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, mock := newTestSession()
			mock.expectReply("C", tt.send)

			if err := board.AttachDaisy(); err != nil {
				t.Fatalf("AttachDaisy: %v", err)
			}
			if board.State().DaisyAttached != tt.wantDaisy {
				t.Errorf("DaisyAttached = %v, want %v", board.State().DaisyAttached, tt.wantDaisy)
			}
		})
	}
}

func TestAttachDaisyUnparseableReply(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("C", "unexpected$$$")

	err := board.AttachDaisy()
	var malformed *protocol.MalformedReplyError
	if !errors.As(err, &malformed) {
		t.Errorf("error = %v, want MalformedReplyError", err)
	}
	if board.State().DaisyAttached {
		t.Error("DaisyAttached changed on unparseable reply")
	}
}

func TestChannelToggleReadsNoAck(t *testing.T) {
	board, mock := newTestSession()

	if err := board.EnableChannel(3); err != nil {
		t.Fatalf("EnableChannel: %v", err)
	}
	if err := board.DisableChannel(5); err != nil {
		t.Fatalf("DisableChannel: %v", err)
	}

	if len(mock.writes) != 2 ||
		!bytes.Equal(mock.writes[0], []byte("#")) ||
		!bytes.Equal(mock.writes[1], []byte("5")) {
		t.Errorf("writes = %q, want [# 5]", mock.writes)
	}

	channels := board.Channels()
	if channels[2].Enabled == nil || !*channels[2].Enabled {
		t.Error("channel 3 not cached as enabled")
	}
	if channels[4].Enabled == nil || *channels[4].Enabled {
		t.Error("channel 5 not cached as disabled")
	}
	if channels[0].Enabled != nil {
		t.Error("untouched channel 1 should remain unknown")
	}
}

func TestConfigureChannelIdleReadsAck(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("x1060110X", "Success$$$")

	if err := board.ConfigureChannel(1, protocol.DefaultChannelSettings()); err != nil {
		t.Fatalf("ConfigureChannel: %v", err)
	}
	cfg := board.Channels()[0]
	if cfg.Settings == nil || cfg.Settings.Gain != 24 {
		t.Errorf("cached settings = %+v, want gain 24", cfg.Settings)
	}
}

func TestConfigureChannelFailureLeavesCacheUnchanged(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("x1060110X", "Failure: too many characters$$$")

	err := board.ConfigureChannel(1, protocol.DefaultChannelSettings())
	var opErr *OperationFailedError
	if !errors.As(err, &opErr) {
		t.Fatalf("error = %v, want OperationFailedError", err)
	}
	if board.Channels()[0].Settings != nil {
		t.Error("cache updated despite failure reply")
	}
}

func TestConfigureChannelRejectedBeforeWrite(t *testing.T) {
	board, mock := newTestSession()

	settings := protocol.DefaultChannelSettings()
	settings.Gain = 5
	err := board.ConfigureChannel(1, settings)
	var argErr *protocol.InvalidArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("error = %v, want InvalidArgumentError", err)
	}
	if argErr.Field != "gain" {
		t.Errorf("Field = %q, want gain", argErr.Field)
	}
	if len(mock.writes) != 0 {
		t.Errorf("rejected command reached the transport: %q", mock.writes)
	}
}

func TestConfigureChannelStreamingNoWiFiSkipsAck(t *testing.T) {
	board, _ := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}

	// No reply scripted: with an empty read buffer an attempted ack read
	// would come back empty and fail validation.
	if err := board.ConfigureChannel(2, protocol.DefaultChannelSettings()); err != nil {
		t.Fatalf("ConfigureChannel while streaming: %v", err)
	}
	if board.Channels()[1].Settings == nil {
		t.Error("settings not cached")
	}
}

func TestConfigureChannelStreamingWiFiReadsAck(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("{", "Success: Wifi attached$$$")
	mock.expectReply("b", "Stream started$$$")
	mock.expectReply("x2060110X", "Success$$$")

	if err := board.AttachWiFi(); err != nil {
		t.Fatalf("AttachWiFi: %v", err)
	}
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if err := board.ConfigureChannel(2, protocol.DefaultChannelSettings()); err != nil {
		t.Fatalf("ConfigureChannel: %v", err)
	}
	if mock.readBuf.Len() != 0 {
		t.Errorf("%d unread reply bytes left in the buffer", mock.readBuf.Len())
	}
}

func TestStartStreamingWithoutWiFiConsumesNoReply(t *testing.T) {
	board, mock := newTestSession()
	mock.queuePacket(0, nil) // first sample already on the wire

	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if board.State().State != StateStreaming || !board.State().Streaming {
		t.Errorf("state = %v, want streaming", board.State().State)
	}
	if mock.readBuf.Len() != protocol.PacketSize {
		t.Errorf("start consumed %d queued bytes", protocol.PacketSize-mock.readBuf.Len())
	}
}

func TestStopStreaming(t *testing.T) {
	board, _ := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if err := board.StopStreaming(); err != nil {
		t.Fatalf("StopStreaming: %v", err)
	}
	if board.State().Streaming || board.State().State != StateIdle {
		t.Errorf("state = %+v, want idle and not streaming", board.State())
	}
}

func TestReadSampleNotStreaming(t *testing.T) {
	board, _ := newTestSession()
	if _, err := board.ReadSample(); !errors.Is(err, ErrNotStreaming) {
		t.Errorf("error = %v, want ErrNotStreaming", err)
	}
}

func TestReadSampleZeroPacket(t *testing.T) {
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.queuePacket(0x77, nil)

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if sample.PacketID != 119 {
		t.Errorf("PacketID = %d, want 119", sample.PacketID)
	}
	if len(sample.EEG) != 8 || len(sample.Aux) != 3 {
		t.Fatalf("got %d EEG / %d AUX channels, want 8 / 3", len(sample.EEG), len(sample.Aux))
	}
	for i, v := range sample.EEG {
		if v != 0 {
			t.Errorf("EEG[%d] = %v, want 0", i, v)
		}
	}
	for i, v := range sample.Aux {
		if v != 0 {
			t.Errorf("Aux[%d] = %v, want 0", i, v)
		}
	}
	if !sample.Valid {
		t.Error("Valid = false for a standard stop byte")
	}
	if sample.Timestamp.IsZero() {
		t.Error("Timestamp not captured")
	}
}

func TestReadSampleScaling(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("x1060110X", "Success$$$")
	if err := board.ConfigureChannel(1, protocol.DefaultChannelSettings()); err != nil {
		t.Fatalf("ConfigureChannel: %v", err)
	}
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.queuePacket(1, func(pkt []byte) {
		pkt[2], pkt[3], pkt[4] = 0xD1, 0x2B, 0x02 // EEG channel 1
		pkt[26], pkt[27] = 0x01, 0xB0             // AUX channel 1
	})

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if want := -68601.57175082824; math.Abs(sample.EEG[0]-want) > 1e-6 {
		t.Errorf("EEG[0] = %v, want %v", sample.EEG[0], want)
	}
	if want := 0.054; math.Abs(sample.Aux[0]-want) > 1e-9 {
		t.Errorf("Aux[0] = %v, want %v", sample.Aux[0], want)
	}
}

func TestReadSampleDefaultGainFallback(t *testing.T) {
	// An unconfigured channel decodes with the default gain of 24, so the
	// value matches the explicitly configured case.
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.queuePacket(1, func(pkt []byte) {
		pkt[2], pkt[3], pkt[4] = 0xD1, 0x2B, 0x02
	})

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if want := -68601.57175082824; math.Abs(sample.EEG[0]-want) > 1e-6 {
		t.Errorf("EEG[0] = %v, want %v", sample.EEG[0], want)
	}
}

func TestReadSampleSkipsLeadingJunk(t *testing.T) {
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.readBuf.Write([]byte{0x00, 0x13, 0x37}) // desync garbage
	mock.queuePacket(5, nil)

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if sample.PacketID != 5 {
		t.Errorf("PacketID = %d, want 5", sample.PacketID)
	}
}

func TestReadSampleTimeout(t *testing.T) {
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.readBuf.Write([]byte{0x01, 0x02}) // junk, then silence

	_, err := board.ReadSample()
	var timeout *SampleAcquisitionTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("error = %v, want SampleAcquisitionTimeoutError", err)
	}
	if timeout.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", timeout.Skipped)
	}
}

func TestReadSampleUnsupportedStopByte(t *testing.T) {
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.queuePacket(1, func(pkt []byte) {
		pkt[protocol.PacketSize-1] = 0xC4 // time-stamped AUX format
	})

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if sample.Valid {
		t.Error("Valid = true for unsupported stop byte")
	}
	if sample.StopByte != 0xC4 {
		t.Errorf("StopByte = 0x%02X, want 0xC4", sample.StopByte)
	}
	if len(sample.EEG) != 8 {
		t.Errorf("best-effort decode produced %d EEG channels, want 8", len(sample.EEG))
	}
}

func TestReadSampleDaisyMerge(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("v", infoWithDaisy)
	if err := board.ResetBoard(); err != nil {
		t.Fatalf("ResetBoard: %v", err)
	}
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	mock.queuePacket(1, func(pkt []byte) {
		pkt[2], pkt[3], pkt[4] = 0x00, 0x00, 0x01 // board channel 1
		pkt[26], pkt[27] = 0x01, 0xB0             // canonical AUX
	})
	mock.queuePacket(2, func(pkt []byte) {
		pkt[2], pkt[3], pkt[4] = 0x00, 0x00, 0x02 // daisy channel 9
		pkt[26], pkt[27] = 0x1C, 0xC0             // must be ignored
	})

	sample, err := board.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	if sample.PacketID != 1 {
		t.Errorf("PacketID = %d, want the first packet's id 1", sample.PacketID)
	}
	if len(sample.EEG) != 16 {
		t.Fatalf("got %d EEG channels, want 16", len(sample.EEG))
	}
	if len(sample.Aux) != 3 {
		t.Fatalf("got %d AUX channels, want 3", len(sample.Aux))
	}
	if want := 0.054; math.Abs(sample.Aux[0]-want) > 1e-9 {
		t.Errorf("Aux[0] = %v, want the first packet's %v", sample.Aux[0], want)
	}
	if sample.EEG[8] <= 0 || sample.EEG[8] <= sample.EEG[0] {
		t.Errorf("daisy channel 9 = %v not appended after board channel 1 = %v",
			sample.EEG[8], sample.EEG[0])
	}
	if !sample.Valid {
		t.Error("Valid = false for two standard packets")
	}
}

func TestTimestampAckPolicy(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("<", "Time stamp ON$$$")

	if err := board.EnableTimestamp(); err != nil {
		t.Fatalf("EnableTimestamp: %v", err)
	}

	// While streaming the board sends no ack; a read attempt would time out
	// against the empty buffer and fail validation.
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if err := board.DisableTimestamp(); err != nil {
		t.Fatalf("DisableTimestamp while streaming: %v", err)
	}
}

func TestCycle(t *testing.T) {
	board, mock := newTestSession()
	if board.Cycle() != 0 {
		t.Error("Cycle != 0 while the sample rate is unknown")
	}

	mock.expectReply("~6", "Success: Sample rate is 250Hz$$$")
	if _, err := board.SetSampleRate(250); err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}
	if got, want := board.Cycle().Seconds(), 1.0/250; math.Abs(got-want) > 1e-9 {
		t.Errorf("Cycle = %vs, want %vs", got, want)
	}

	mock.expectReply("C", "daisy attached16$$$")
	if err := board.AttachDaisy(); err != nil {
		t.Fatalf("AttachDaisy: %v", err)
	}
	if got, want := board.Cycle().Seconds(), 2.0/250; math.Abs(got-want) > 1e-9 {
		t.Errorf("daisy Cycle = %vs, want %vs", got, want)
	}
}

func TestSetChannelConfigs(t *testing.T) {
	board, mock := newTestSession()
	for ch := 0; ch < 8; ch++ {
		cmd, err := protocol.BuildConfigureChannelCmd(ch+1, protocol.DefaultChannelSettings())
		if err != nil {
			t.Fatalf("BuildConfigureChannelCmd: %v", err)
		}
		mock.expectReply(string(cmd), "Success$$$")
	}

	setups := make([]ChannelSetup, 8)
	for i := range setups {
		setups[i] = ChannelSetup{Enabled: true, Settings: protocol.DefaultChannelSettings()}
	}
	setups[7].Enabled = false

	if err := board.SetChannelConfigs(setups); err != nil {
		t.Fatalf("SetChannelConfigs: %v", err)
	}

	channels := board.Channels()
	for i := 0; i < 7; i++ {
		if channels[i].Enabled == nil || !*channels[i].Enabled {
			t.Errorf("channel %d not enabled", i+1)
		}
		if channels[i].Settings == nil {
			t.Errorf("channel %d not configured", i+1)
		}
	}
	if channels[7].Enabled == nil || *channels[7].Enabled {
		t.Error("channel 8 should end up disabled")
	}
}

func TestSetChannelConfigsTooFewSetups(t *testing.T) {
	board, mock := newTestSession()
	if err := board.SetChannelConfigs(make([]ChannelSetup, 4)); err == nil {
		t.Error("expected error for too few setups")
	}
	if len(mock.writes) != 0 {
		t.Errorf("short setup list reached the transport: %q", mock.writes)
	}
}

func TestInitialize(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("v", infoNoDaisy)
	mock.expectReply("V", "v3.1.1$$$")
	mock.expectReply("/0", "Success: default$$$")
	mock.expectReply("~6", "Success: Sample rate is 250Hz$$$")
	mock.expectReply("D", "060110$$$")
	for ch := 1; ch <= 8; ch++ {
		cmd, err := protocol.BuildConfigureChannelCmd(ch, protocol.DefaultChannelSettings())
		if err != nil {
			t.Fatalf("BuildConfigureChannelCmd: %v", err)
		}
		mock.expectReply(string(cmd), "Success$$$")
	}

	if err := board.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	state := board.State()
	if state.State != StateIdle {
		t.Errorf("State = %v, want idle", state.State)
	}
	if state.SampleRate != 250 {
		t.Errorf("SampleRate = %d, want 250", state.SampleRate)
	}
	if state.BoardMode != "default" {
		t.Errorf("BoardMode = %q, want default", state.BoardMode)
	}
	if state.FirmwareVersion != "v3.1.1" {
		t.Errorf("FirmwareVersion = %q, want v3.1.1", state.FirmwareVersion)
	}
	for i, cfg := range board.Channels()[:8] {
		if cfg.Enabled == nil || !*cfg.Enabled {
			t.Errorf("channel %d not enabled", i+1)
		}
		if cfg.Settings == nil || cfg.Settings.Gain != 24 {
			t.Errorf("channel %d settings = %+v, want gain 24", i+1, cfg.Settings)
		}
	}
}

func TestResetChannelsAndDefaults(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("d", "updating channel settings to default$$$")
	mock.expectReply("D", "060110$$$")

	if err := board.ResetChannels(); err != nil {
		t.Fatalf("ResetChannels: %v", err)
	}
	defaults, err := board.GetDefaultSettings()
	if err != nil {
		t.Fatalf("GetDefaultSettings: %v", err)
	}
	want := protocol.DefaultChannelSettings()
	if defaults != want {
		t.Errorf("defaults = %+v, want %+v", defaults, want)
	}
}

func TestConfigSnapshot(t *testing.T) {
	board, mock := newTestSession()
	mock.expectReply("~6", "Success: Sample rate is 250Hz$$$")
	if _, err := board.SetSampleRate(250); err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}

	snap := board.Config()
	if snap.SampleRate != 250 {
		t.Errorf("snapshot SampleRate = %d, want 250", snap.SampleRate)
	}
	if len(snap.Channels) != protocol.MaxChannels {
		t.Errorf("snapshot has %d channel slots, want %d", len(snap.Channels), protocol.MaxChannels)
	}

	// Snapshots are copies: mutating one must not leak into the session.
	enabled := true
	snap.Channels[0].Enabled = &enabled
	if board.Channels()[0].Enabled != nil {
		t.Error("snapshot mutation leaked into the session")
	}
}

func TestTerminate(t *testing.T) {
	board, mock := newTestSession()
	if err := board.StartStreaming(); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}

	if err := board.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if board.State().State != StateClosed {
		t.Errorf("State = %v, want closed", board.State().State)
	}
	last := mock.writes[len(mock.writes)-1]
	if !bytes.Equal(last, []byte("s")) {
		t.Errorf("last write = %q, want the stop streaming command", last)
	}
	if mock.closed {
		t.Error("Attach session closed a caller-owned transport")
	}

	// Idempotent, and all further operations fail fast.
	if err := board.Terminate(); err != nil {
		t.Errorf("second Terminate: %v", err)
	}
	if _, err := board.ReadSample(); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadSample after Terminate = %v, want ErrClosed", err)
	}
	if err := board.ResetBoard(); !errors.Is(err, ErrClosed) {
		t.Errorf("ResetBoard after Terminate = %v, want ErrClosed", err)
	}
}

func TestTerminateClosesOwnedTransport(t *testing.T) {
	mock := &MockTransport{}
	board := Attach(mock, WithSettleDelay(0), WithCloseOnTerminate(true))

	if err := board.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if !mock.closed {
		t.Error("transport not closed")
	}
}
