package qoi

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
)

// Header is the header data of a QuiteOk image.
// The colour space byte is carried through unchanged and never interpreted.
type Header struct {
	Width       uint32
	Height      uint32
	Channels    Channels
	ColourSpace uint8
}

// ReadHeader parses the header at the start of data.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrInputSmallerThanHeader
	}
	if string(data[0:4]) != Magic {
		return Header{}, fmt.Errorf("%w: expected %q, actual %q", ErrIncorrectHeaderMagic, Magic, data[0:4])
	}
	h := Header{
		Width:       binary.BigEndian.Uint32(data[4:8]),
		Height:      binary.BigEndian.Uint32(data[8:12]),
		Channels:    Channels(data[12]),
		ColourSpace: data[13],
	}
	if !h.Channels.valid() {
		return Header{}, fmt.Errorf("%w: actual %d", ErrChannels, data[12])
	}
	return h, nil
}

// Bytes serializes the header. The header is expected to be valid.
func (h Header) Bytes() [HeaderSize]byte {
	var buf [HeaderSize]byte
	copy(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], h.Width)
	binary.BigEndian.PutUint32(buf[8:12], h.Height)
	buf[12] = byte(h.Channels)
	buf[13] = h.ColourSpace
	return buf
}

// RawImageSize is the size of the uncompressed image in bytes when stored with
// the given number of channels. FromHeader uses the header's channel count.
// The product saturates instead of overflowing.
func (h Header) RawImageSize(c Channels) uint64 {
	if c == FromHeader {
		c = h.Channels
	}
	return satMul(satMul(uint64(h.Width), uint64(h.Height)), uint64(c))
}

func (h Header) String() string {
	return fmt.Sprintf("%dx%d %s colourspace=%d", h.Width, h.Height, h.Channels, h.ColourSpace)
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}
