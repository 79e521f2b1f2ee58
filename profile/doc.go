// Package profile provides YAML board configuration profiles.
//
// A profile names a board mode, a sample rate and per-channel settings, and
// can be validated offline and applied to a live session:
//
//	board_mode: default
//	sample_rate: 250
//	channels:
//	  - gain: 24
//	    input_type: NORMAL
//	  - gain: 12
//	    srb2: 0
//	  - enabled: false
//
// Omitted channel fields take the board's factory defaults. Validation uses
// the same domain checks as the protocol command builders, so a profile that
// parses cleanly will not be rejected at apply time.
package profile
