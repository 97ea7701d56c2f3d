package qoi

import (
	"fmt"
)

// MaxEncodedLen is the largest number of bytes an image of the given size
// can encode to. A literal colour opcode costs one byte more than the raw pixel.
func MaxEncodedLen(width, height uint32, channels Channels) uint64 {
	pixels := satMul(uint64(width), uint64(height))
	return satAdd(satMul(pixels, uint64(channels)+1), HeaderSize+FooterSize)
}

// Encode encodes the raw pixels in src to the QuiteOk image format and returns
// the encoded bytes. src holds width*height pixels of the given number of
// interleaved channels.
func Encode(src []byte, width, height uint32, channels Channels, colourSpace uint8) ([]byte, error) {
	if !channels.valid() {
		return nil, fmt.Errorf("%w: actual %d", ErrChannels, uint8(channels))
	}
	header := Header{Width: width, Height: height, Channels: channels, ColourSpace: colourSpace}
	size := header.RawImageSize(channels)
	if satAdd(size, HeaderSize+FooterSize) > MaxSize {
		return nil, ErrTooBig
	}
	if uint64(len(src)) < size {
		return nil, fmt.Errorf("%w: expected %d bytes, actual %d", ErrInputSize, size, len(src))
	}

	dst := make([]byte, MaxEncodedLen(width, height, channels))
	n, err := EncodeInto(dst, src, width, height, channels, colourSpace)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// EncodeInto encodes the raw pixels in src into dst and returns the number of
// bytes written. On error the contents of dst are undefined.
func EncodeInto(dst, src []byte, width, height uint32, channels Channels, colourSpace uint8) (int, error) {
	if !channels.valid() {
		return 0, fmt.Errorf("%w: actual %d", ErrChannels, uint8(channels))
	}
	header := Header{Width: width, Height: height, Channels: channels, ColourSpace: colourSpace}
	size := header.RawImageSize(channels)
	if size > MaxSize {
		return 0, ErrTooBig
	}
	if uint64(len(src)) < size {
		return 0, fmt.Errorf("%w: expected %d bytes, actual %d", ErrInputSize, size, len(src))
	}

	e := encoder{
		w:    writer{data: dst},
		prev: startPixel,
	}
	hb := header.Bytes()
	if err := e.w.writeSlice(hb[:]); err != nil {
		return 0, err
	}

	stride := int(channels)
	pixels := src[:size]
	last := len(pixels) - stride
	for pos := 0; pos < len(pixels); pos += stride {
		pixel := Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		if stride == 4 {
			pixel.A = pixels[pos+3]
		}
		if err := e.encodePixel(pixel, pos == last); err != nil {
			return 0, err
		}
	}
	if err := e.flushRun(); err != nil {
		return 0, err
	}

	// write EOF
	if err := e.w.writeSlice(footer[:]); err != nil {
		return 0, err
	}

	Logger().Debug("qoi: encoded",
		"width", width, "height", height, "channels", uint8(channels), "bytes", e.w.pos)
	return e.w.pos, nil
}

// encoder is the state carried from one pixel to the next.
type encoder struct {
	w     writer
	prev  Pixel
	run   uint16
	cache colorCache
}

func (e *encoder) encodePixel(curr Pixel, last bool) error {
	// OpRun
	if curr == e.prev {
		e.run++
		if e.run == maxRun || last {
			return e.flushRun()
		}
		return nil
	}

	// handle run
	if err := e.flushRun(); err != nil {
		return err
	}

	prev := e.prev
	e.prev = curr

	// OpIndex
	hash, ok := e.cache.lookup(curr)
	if ok {
		return e.w.write(OpIndex | hash)
	}
	e.cache.store(curr)

	dr := int16(curr.R) - int16(prev.R)
	dg := int16(curr.G) - int16(prev.G)
	db := int16(curr.B) - int16(prev.B)
	da := int16(curr.A) - int16(prev.A)

	switch {
	// OpDiff8
	case da == 0 && between(dr, -2, 1) && between(dg, -2, 1) && between(db, -2, 1):
		return e.w.write(OpDiff8 | byte(dr+2)<<4 | byte(dg+2)<<2 | byte(db+2))

	// OpDiff16
	case da == 0 && between(dr, -16, 15) && between(dg, -8, 7) && between(db, -8, 7):
		return e.w.writeSlice([]byte{
			OpDiff16 | byte(dr+16),
			byte(dg+8)<<4 | byte(db+8),
		})

	// OpDiff24
	case between(dr, -16, 15) && between(dg, -16, 15) && between(db, -16, 15) && between(da, -16, 15):
		return e.w.writeSlice([]byte{
			OpDiff24 | byte((dr+16)>>1),
			byte((dr+16)<<7) | byte((dg+16)<<2) | byte((db+16)>>3),
			byte((db+16)<<5) | byte(da+16),
		})
	}

	// OpColor
	return e.writeColor(curr, dr, dg, db, da)
}

// writeColor writes the channels that changed, then fills in the tag in front
// of them once its flags are known.
func (e *encoder) writeColor(curr Pixel, dr, dg, db, da int16) error {
	tagPos, err := e.w.reserve()
	if err != nil {
		return err
	}
	tag := OpColor
	if dr != 0 {
		tag |= 8
		if err := e.w.write(curr.R); err != nil {
			return err
		}
	}
	if dg != 0 {
		tag |= 4
		if err := e.w.write(curr.G); err != nil {
			return err
		}
	}
	if db != 0 {
		tag |= 2
		if err := e.w.write(curr.B); err != nil {
			return err
		}
	}
	if da != 0 {
		tag |= 1
		if err := e.w.write(curr.A); err != nil {
			return err
		}
	}
	e.w.writeAt(tagPos, tag)
	return nil
}

func (e *encoder) flushRun() error {
	if e.run == 0 {
		return nil
	}
	run := e.run
	e.run = 0
	if run <= shortRun {
		return e.w.write(OpRun8 | byte(run-1))
	}
	run -= shortRun + 1
	return e.w.writeSlice([]byte{
		OpRun16 | byte(run>>8),
		byte(run),
	})
}

func between(d, low, high int16) bool {
	return low <= d && d <= high
}
