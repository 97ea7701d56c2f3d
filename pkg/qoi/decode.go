package qoi

import (
	"bytes"
	"fmt"
)

// Decode decodes a QuiteOk image and returns its raw pixels with the given
// number of interleaved channels. FromHeader keeps the channel count stored
// in the header.
func Decode(src []byte, channels Channels) ([]byte, error) {
	_, channels, size, err := prepareDecode(src, channels)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, size)
	n, err := DecodeInto(dst, src, channels)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// DecodeInto decodes a QuiteOk image into dst and returns the number of bytes
// written. On error the contents of dst are undefined.
func DecodeInto(dst, src []byte, channels Channels) (int, error) {
	header, channels, size, err := prepareDecode(src, channels)
	if err != nil {
		return 0, err
	}
	if uint64(len(dst)) < size {
		return 0, fmt.Errorf("%w: expected %d bytes, actual %d", ErrOutputTooSmall, size, len(dst))
	}

	d := decoder{
		r:     reader{data: src, pos: HeaderSize},
		end:   len(src) - FooterSize,
		pixel: startPixel,
	}
	out := dst[:size]
	stride := int(channels)
	for pos := 0; pos < len(out); pos += stride {
		pixel, err := d.next()
		if err != nil {
			return 0, err
		}
		out[pos+0] = pixel.R
		out[pos+1] = pixel.G
		out[pos+2] = pixel.B
		if stride == 4 {
			out[pos+3] = pixel.A
		}
	}

	Logger().Debug("qoi: decoded",
		"width", header.Width, "height", header.Height, "channels", uint8(channels), "bytes", len(out))
	return len(out), nil
}

// prepareDecode validates the header and the stream bounds, and resolves the
// output channel count and size.
func prepareDecode(src []byte, channels Channels) (Header, Channels, uint64, error) {
	header, err := ReadHeader(src)
	if err != nil {
		return Header{}, 0, 0, err
	}
	if channels == FromHeader {
		channels = header.Channels
	}
	if !channels.valid() {
		return Header{}, 0, 0, fmt.Errorf("%w: actual %d", ErrChannels, uint8(channels))
	}
	size := header.RawImageSize(channels)
	if size > MaxSize {
		return Header{}, 0, 0, ErrTooBig
	}
	if len(src) < HeaderSize+FooterSize || !bytes.Equal(src[len(src)-FooterSize:], footer[:]) {
		return Header{}, 0, 0, fmt.Errorf("%w: missing end of stream marker", ErrInputSize)
	}
	return header, channels, size, nil
}

// decoder is the state carried from one pixel to the next.
type decoder struct {
	r     reader
	end   int // position of the footer
	pixel Pixel
	run   uint16
	cache colorCache
}

// next returns the next output pixel.
func (d *decoder) next() (Pixel, error) {
	// handle other run iterations
	if d.run > 0 {
		d.run--
		return d.pixel, nil
	}

	// Once every opcode is consumed the last pixel fills the rest of the
	// image. Encoded streams never rely on this; it only keeps existing
	// files that are shorter than their header claims decodable.
	if d.r.pos >= d.end {
		return d.pixel, nil
	}

	b1, err := d.r.read()
	if err != nil {
		return Pixel{}, err
	}

	switch {
	case b1&opMask2 == OpIndex:
		d.pixel = d.cache[b1&0b00111111]

	case b1&opMask3 == OpRun8:
		d.run = uint16(b1 & opPayload)

	case b1&opMask3 == OpRun16:
		b2, err := d.r.read()
		if err != nil {
			return Pixel{}, err
		}
		d.run = (uint16(b1&opPayload)<<8 | uint16(b2)) + shortRun

	case b1&opMask2 == OpDiff8:
		d.pixel.R = add(d.pixel.R, int8((b1>>4)&0x03)-2)
		d.pixel.G = add(d.pixel.G, int8((b1>>2)&0x03)-2)
		d.pixel.B = add(d.pixel.B, int8(b1&0x03)-2)

	case b1&opMask3 == OpDiff16:
		b2, err := d.r.read()
		if err != nil {
			return Pixel{}, err
		}
		d.pixel.R = add(d.pixel.R, int8(b1&opPayload)-16)
		d.pixel.G = add(d.pixel.G, int8(b2>>4)-8)
		d.pixel.B = add(d.pixel.B, int8(b2&0x0f)-8)

	case b1&opMask4 == OpDiff24:
		b2, err := d.r.read()
		if err != nil {
			return Pixel{}, err
		}
		b3, err := d.r.read()
		if err != nil {
			return Pixel{}, err
		}
		d.pixel.R = add(d.pixel.R, int8((b1&0x0f)<<1|b2>>7)-16)
		d.pixel.G = add(d.pixel.G, int8((b2&0x7c)>>2)-16)
		d.pixel.B = add(d.pixel.B, int8((b2&0x03)<<3|(b3&0xe0)>>5)-16)
		d.pixel.A = add(d.pixel.A, int8(b3&0x1f)-16)

	case b1&opMask4 == OpColor:
		if err := d.readColor(b1); err != nil {
			return Pixel{}, err
		}
	}

	// a no-op after run and index opcodes, kept to match the encoder's stores
	d.cache.store(d.pixel)
	return d.pixel, nil
}

// readColor reads the explicit channel values flagged in the low bits of tag.
func (d *decoder) readColor(tag byte) error {
	var err error
	if tag&8 != 0 {
		if d.pixel.R, err = d.r.read(); err != nil {
			return err
		}
	}
	if tag&4 != 0 {
		if d.pixel.G, err = d.r.read(); err != nil {
			return err
		}
	}
	if tag&2 != 0 {
		if d.pixel.B, err = d.r.read(); err != nil {
			return err
		}
	}
	if tag&1 != 0 {
		if d.pixel.A, err = d.r.read(); err != nil {
			return err
		}
	}
	return nil
}
