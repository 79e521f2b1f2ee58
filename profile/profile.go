package profile

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openeeg/go-cyton/cyton"
	"github.com/openeeg/go-cyton/protocol"
)

// Profile describes a desired board configuration.
type Profile struct {
	// BoardMode is applied with the set board mode command, "" to skip
	BoardMode string `yaml:"board_mode"`

	// SampleRate is applied with the set sample rate command, 0 to skip
	SampleRate int `yaml:"sample_rate"`

	// Channels are applied in order to channels 1..len(Channels)
	Channels []Channel `yaml:"channels"`
}

// Channel describes the desired state of one channel. Omitted fields take
// the board's factory defaults.
type Channel struct {
	Enabled   *bool  `yaml:"enabled"`
	PowerDown string `yaml:"power_down"`
	Gain      int    `yaml:"gain"`
	InputType string `yaml:"input_type"`
	Bias      *int   `yaml:"bias"`
	SRB2      *int   `yaml:"srb2"`
	SRB1      *int   `yaml:"srb1"`
}

// Parse parses a profile file from the given path.
//
// Example:
//
//	prof, err := profile.Parse("channels.yaml")
//	if err != nil {
//	    log.Fatal().Err(err).Msg("bad profile")
//	}
func Parse(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses a profile from any io.Reader.
func ParseReader(r io.Reader) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every field against the protocol's enumerated domains
// without touching a board. The first out-of-domain field is reported.
func (p *Profile) Validate() error {
	if p.BoardMode != "" {
		if _, err := protocol.BuildSetBoardModeCmd(p.BoardMode); err != nil {
			return err
		}
	}
	if p.SampleRate != 0 {
		if _, err := protocol.BuildSetSampleRateCmd(p.SampleRate); err != nil {
			return err
		}
	}
	if len(p.Channels) > protocol.MaxChannels {
		return fmt.Errorf("profile has %d channels, board supports at most %d",
			len(p.Channels), protocol.MaxChannels)
	}
	for i, ch := range p.Channels {
		if _, err := protocol.BuildConfigureChannelCmd(i+1, ch.settings()); err != nil {
			return fmt.Errorf("channel %d: %w", i+1, err)
		}
	}
	return nil
}

// Setups converts the profile's channels into session channel setups,
// filling omitted fields with the factory defaults.
func (p *Profile) Setups() []cyton.ChannelSetup {
	setups := make([]cyton.ChannelSetup, len(p.Channels))
	for i, ch := range p.Channels {
		enabled := true
		if ch.Enabled != nil {
			enabled = *ch.Enabled
		}
		setups[i] = cyton.ChannelSetup{
			Enabled:  enabled,
			Settings: ch.settings(),
		}
	}
	return setups
}

// settings merges the channel's fields over the factory defaults.
func (c Channel) settings() protocol.ChannelSettings {
	s := protocol.DefaultChannelSettings()
	if c.PowerDown != "" {
		s.PowerDown = c.PowerDown
	}
	if c.Gain != 0 {
		s.Gain = c.Gain
	}
	if c.InputType != "" {
		s.InputType = c.InputType
	}
	if c.Bias != nil {
		s.Bias = *c.Bias
	}
	if c.SRB2 != nil {
		s.SRB2 = *c.SRB2
	}
	if c.SRB1 != nil {
		s.SRB1 = *c.SRB1
	}
	return s
}

// Apply configures the session from the profile: board mode and sample rate
// when present, then all channels. The session must have been reset already
// so the Daisy state is known.
func Apply(s *cyton.Session, p *Profile) error {
	if p.BoardMode != "" {
		if err := s.SetBoardMode(p.BoardMode); err != nil {
			return fmt.Errorf("set board mode: %w", err)
		}
	}
	if p.SampleRate != 0 {
		if _, err := s.SetSampleRate(p.SampleRate); err != nil {
			return fmt.Errorf("set sample rate: %w", err)
		}
	}
	if len(p.Channels) == 0 {
		return nil
	}
	setups := p.Setups()
	// Pad to the active channel count with enabled factory defaults.
	for len(setups) < s.State().NumEEGChannels() {
		setups = append(setups, cyton.ChannelSetup{
			Enabled:  true,
			Settings: protocol.DefaultChannelSettings(),
		})
	}
	return s.SetChannelConfigs(setups)
}
