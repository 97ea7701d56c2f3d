// Package qoi implements a lossless encoder and decoder for the QuiteOk image
// format: a 14 byte header, a stream of run, index, delta and literal colour
// opcodes, and a 4 byte zero footer.
//
// The codec works on whole buffers of interleaved 8-bit RGB or RGBA pixels.
// Every call keeps its own state, so distinct calls may run concurrently.
package qoi

import "fmt"

// Channels is the number of interleaved bytes per pixel of a raw buffer.
type Channels uint8

const (
	// FromHeader makes the decoder use the channel count stored in the header.
	FromHeader Channels = 0
	Three      Channels = 3
	Four       Channels = 4
)

func (c Channels) valid() bool {
	return c == Three || c == Four
}

func (c Channels) String() string {
	switch c {
	case FromHeader:
		return "header"
	case Three:
		return "rgb"
	case Four:
		return "rgba"
	}
	return fmt.Sprintf("Channels(%d)", uint8(c))
}
