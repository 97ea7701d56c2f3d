package qoi

import (
	"bytes"
	"math/rand"
	"testing"
)

// testPixels generates a deterministic image that exercises every opcode:
// runs, repeated colours, small and large deltas and unrelated colours.
func testPixels(width, height int, channels Channels, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	stride := int(channels)
	pix := make([]byte, width*height*stride)
	var palette [][4]byte
	prev := [4]byte{0, 0, 0, 255}
	for i := 0; i < width*height; i++ {
		curr := prev
		switch rng.Intn(6) {
		case 0: // repeat
		case 1:
			for c := range curr {
				curr[c] += byte(rng.Intn(4) - 2)
			}
		case 2:
			for c := range curr {
				curr[c] += byte(rng.Intn(32) - 16)
			}
		case 3:
			if len(palette) > 0 {
				curr = palette[rng.Intn(len(palette))]
			}
		default:
			rng.Read(curr[:])
			palette = append(palette, curr)
		}
		if channels == Three {
			curr[3] = 255
		}
		copy(pix[i*stride:], curr[:stride])
		prev = curr
	}
	return pix
}

func header(width, height uint32, channels Channels) []byte {
	h := Header{Width: width, Height: height, Channels: channels}
	b := h.Bytes()
	return b[:]
}

// stream assembles a complete encoded image from a header and opcodes.
func stream(head []byte, ops ...byte) []byte {
	var buf bytes.Buffer
	buf.Write(head)
	buf.Write(ops)
	buf.Write(footer[:])
	return buf.Bytes()
}

func mustEncode(t testing.TB, src []byte, width, height uint32, channels Channels) []byte {
	t.Helper()
	data, err := Encode(src, width, height, channels, 0)
	if err != nil {
		t.Fatalf("encode %dx%d %s: %v", width, height, channels, err)
	}
	return data
}
