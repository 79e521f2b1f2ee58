package protocol

import "fmt"

// Interpret24BitAsInt32 sign-extends a 24-bit big-endian value to int32.
// If bit 0x80 of the first byte is set the value is prefixed with 0xFF,
// otherwise with 0x00, then reinterpreted as a 4-byte big-endian signed
// integer. raw must be exactly 3 bytes.
func Interpret24BitAsInt32(raw []byte) int32 {
	v := uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	if raw[0]&0x80 != 0 {
		v |= 0xFF000000
	}
	return int32(v)
}

// Interpret16BitAsInt32 sign-extends a 16-bit big-endian value to int32.
// raw must be exactly 2 bytes.
func Interpret16BitAsInt32(raw []byte) int32 {
	v := uint32(raw[0])<<8 | uint32(raw[1])
	if raw[0]&0x80 != 0 {
		v |= 0xFFFF0000
	}
	return int32(v)
}

// EEGScale returns the microvolts-per-count scale factor for the given
// amplifier gain:
//
//	1,000,000 * VREF / gain / (2^23 - 1)
func EEGScale(gain int) float64 {
	return 1000000.0 * VRef / float64(gain) / float64(1<<23-1)
}

// DecodeEEG converts one 3-byte raw EEG channel value to microvolts.
func DecodeEEG(raw []byte, gain int) float64 {
	return float64(Interpret24BitAsInt32(raw)) * EEGScale(gain)
}

// DecodeAux converts one 2-byte raw AUX channel value to g-units.
func DecodeAux(raw []byte) float64 {
	return float64(Interpret16BitAsInt32(raw)) * AuxScale
}

// ParseRawPacket splits the PacketSize-1 bytes that follow a start byte into
// packet ID, raw channel values and stop byte. No decoding is performed and
// the stop byte is not checked; callers decide how to treat unsupported
// formats.
//
// Layout of buf:
//
//	[ID(1)][EEG 8*3][AUX 3*2][STOP(1)]
func ParseRawPacket(buf []byte) (*RawPacket, error) {
	if len(buf) != PacketSize-1 {
		return nil, fmt.Errorf("packet body must be %d bytes, got %d", PacketSize-1, len(buf))
	}

	pkt := &RawPacket{PacketID: buf[0]}

	offset := 1
	for i := 0; i < EEGChannelsPerPacket; i++ {
		copy(pkt.EEG[i][:], buf[offset:offset+EEGBytesPerChannel])
		offset += EEGBytesPerChannel
	}
	for i := 0; i < NumAuxChannels; i++ {
		copy(pkt.Aux[i][:], buf[offset:offset+AuxBytesPerChannel])
		offset += AuxBytesPerChannel
	}
	pkt.StopByte = buf[offset]

	return pkt, nil
}
