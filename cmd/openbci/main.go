// Command openbci interacts with OpenBCI Cyton boards.
//
// Usage:
//
//	openbci stream --port /dev/ttyUSB0 [--sample-rate 250] [--board-mode default] [--profile channels.yaml]
//	openbci list [--filter OpenBCI]
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/openeeg/go-cyton/cyton"
	"github.com/openeeg/go-cyton/profile"
	"github.com/openeeg/go-cyton/protocol"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "stream":
		err = runStream(os.Args[2:])
	case "list":
		err = runList(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: openbci <stream|list> [flags]")
	fmt.Fprintln(os.Stderr, "  stream  stream decoded samples from a board as JSON lines")
	fmt.Fprintln(os.Stderr, "  list    list serial ports with an OpenBCI board attached")
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// sampleJSON is the line format written by the stream command.
type sampleJSON struct {
	PacketID  uint8     `json:"packet_id"`
	EEG       []float64 `json:"eeg"`
	Aux       []float64 `json:"aux"`
	Timestamp float64   `json:"timestamp"`
	Valid     bool      `json:"valid"`
}

func runStream(args []string) error {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	port := fs.String("port", "", "port to which the board is connected (required)")
	baud := fs.Int("baudrate", 115200, "baud rate")
	timeout := fs.Duration("timeout", 2*time.Second, "per-read timeout")
	sampleRate := fs.Int("sample-rate", 250, "sample rate in Hz")
	boardMode := fs.String("board-mode", "default", "board mode")
	profilePath := fs.String("profile", "", "channel profile file (overrides sample-rate and board-mode)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *port == "" {
		return fmt.Errorf("--port is required")
	}

	logger := newLogger(*debug)

	board, err := cyton.Open(*port,
		cyton.WithLogger(logger),
		cyton.WithBaudRate(*baud),
		cyton.WithReadTimeout(*timeout),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := board.Terminate(); err != nil {
			logger.Error().Err(err).Msg("terminate failed")
		}
	}()

	if err := board.Initialize(); err != nil {
		return err
	}
	if *profilePath != "" {
		prof, err := profile.Parse(*profilePath)
		if err != nil {
			return err
		}
		if err := profile.Apply(board, prof); err != nil {
			return err
		}
	} else {
		if err := board.SetBoardMode(*boardMode); err != nil {
			return err
		}
		if _, err := board.SetSampleRate(*sampleRate); err != nil {
			return err
		}
	}

	if err := board.StartStreaming(); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	enc := json.NewEncoder(os.Stdout)
	cycle := board.Cycle()
	for {
		select {
		case <-interrupt:
			logger.Info().Msg("interrupted, stopping")
			return nil
		default:
		}

		sample, err := board.ReadSample()
		if err != nil {
			return err
		}
		line := sampleJSON{
			PacketID:  sample.PacketID,
			EEG:       sample.EEG,
			Aux:       sample.Aux,
			Timestamp: float64(sample.Timestamp.UnixNano()) / 1e9,
			Valid:     sample.Valid,
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
		if cycle > 0 {
			time.Sleep(cycle)
		}
	}
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	filter := fs.String("filter", "OpenBCI", "regular expression applied to the firmware string")
	timeout := fs.Duration("timeout", 2*time.Second, "per-read timeout")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(*debug)
	pattern, err := regexp.Compile(*filter)
	if err != nil {
		return fmt.Errorf("bad --filter: %w", err)
	}

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	logger.Debug().Int("ports", len(ports)).Msg("found COM ports")

	for _, p := range ports {
		msg, err := firmwareString(p.Name, *timeout)
		if err != nil {
			logger.Debug().Err(err).Str("port", p.Name).Msg("probe failed")
			continue
		}
		if pattern.MatchString(msg) {
			fmt.Println(p.Name)
		}
	}
	return nil
}

// firmwareString resets the board on a port and returns its startup message.
func firmwareString(portName string, timeout time.Duration) (string, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return "", err
	}
	defer func() { _ = port.Close() }()

	if err := port.SetReadTimeout(timeout); err != nil {
		return "", err
	}
	if _, err := port.Write([]byte{protocol.CmdResetBoard}); err != nil {
		return "", err
	}

	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := port.Read(one)
		if err != nil {
			return "", err
		}
		if n == 0 {
			break
		}
		buf = append(buf, one[0])
		if bytes.HasSuffix(buf, []byte(protocol.MessageTerminator)) {
			break
		}
	}
	return string(buf), nil
}
