// Package cyton drives an OpenBCI Cyton board over a serial transport.
//
// A Session owns one transport exclusively and exposes the board's command
// set as synchronous operations: every call writes a command, optionally
// reads the "$$$"-terminated acknowledgement, and updates the tracked board
// state. The protocol is half-duplex; commands are never pipelined.
//
// # Connecting
//
// Open a port directly, or attach an existing transport:
//
//	board, err := cyton.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal().Err(err).Msg("open failed")
//	}
//	defer board.Terminate()
//
//	// or, with a caller-owned connection:
//	board := cyton.Attach(port, cyton.WithLogger(logger))
//
// # Streaming
//
// Streaming is a caller-driven loop. Pace it close to Cycle() to avoid
// busy-polling; cancellation is simply stopping the loop:
//
//	if err := board.Initialize(); err != nil { ... }
//	if err := board.StartStreaming(); err != nil { ... }
//	for running {
//	    sample, err := board.ReadSample()
//	    if err != nil { ... }
//	    process(sample)
//	}
//	if err := board.StopStreaming(); err != nil { ... }
//
// # Error Handling
//
// Argument validation fails before any byte is written
// (protocol.InvalidArgumentError). Protocol failures always propagate:
// protocol.MalformedReplyError, protocol.DeviceNotRespondingError,
// OperationFailedError and SampleAcquisitionTimeoutError. The session never
// retries; retry policy belongs to the caller.
//
// Non-fatal conditions are logged at warn level instead of returned: bytes
// skipped while hunting a start byte, unparseable sample rate or board mode
// replies, unsupported stop bytes (decoded best-effort with Valid=false) and
// the default-gain fallback for unconfigured channels.
package cyton
