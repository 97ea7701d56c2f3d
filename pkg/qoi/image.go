package qoi

import (
	"errors"
	"image"
	"image/color"
	"io"
	"math/bits"

	"golang.org/x/image/draw"
)

func init() {
	image.RegisterFormat("qoi", Magic, DecodeImage, DecodeConfig)
}

// Options are the parameters of EncodeImage. A nil *Options encodes four
// channels with colour space 0.
type Options struct {
	Channels    Channels
	ColourSpace uint8
}

// DecodeConfig reads the header from the reader and returns the image
// dimensions without decoding any pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	header, _, err := readHeaderFrom(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(header.Width),
		Height:     int(header.Height),
	}, nil
}

// DecodeImage reads one QuiteOk image from the reader and returns it as an
// *image.NRGBA. Images encoded with three channels decode as opaque. Bytes
// after the footer are left unread.
func DecodeImage(r io.Reader) (image.Image, error) {
	header, hb, err := readHeaderFrom(r)
	if err != nil {
		return nil, err
	}

	if header.RawImageSize(Four) > MaxSize {
		return nil, ErrTooBig
	}
	data, err := readStream(r, header, hb[:])
	if err != nil {
		return nil, err
	}

	pix, err := Decode(data, Four)
	if err != nil {
		return nil, err
	}
	w, h := int(header.Width), int(header.Height)
	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// EncodeImage encodes the image to the QuiteOk image format and writes the
// encoded bytes to the writer.
func EncodeImage(w io.Writer, img image.Image, o *Options) error {
	channels := Four
	var colourSpace uint8
	if o != nil {
		if o.Channels != FromHeader {
			channels = o.Channels
		}
		colourSpace = o.ColourSpace
	}
	if !channels.valid() {
		return ErrChannels
	}

	b := img.Bounds()
	if satMul(satMul(uint64(b.Dx()), uint64(b.Dy())), 4) > MaxSize {
		return ErrTooBig
	}
	src := toNRGBA(img).Pix
	if channels == Three {
		src = dropAlpha(src)
	}

	data, err := Encode(src, uint32(b.Dx()), uint32(b.Dy()), channels, colourSpace)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func readHeaderFrom(r io.Reader) (Header, [HeaderSize]byte, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, buf, ErrInputSmallerThanHeader
		}
		return Header{}, buf, &IOError{Op: "read header", Err: err}
	}
	header, err := ReadHeader(buf[:])
	return header, buf, err
}

// readStream reads the opcodes of one image and its footer, counting pixels
// to find where the stream ends, and nothing after them. At the end of the
// input it returns what it has read and leaves the verdict to Decode.
func readStream(r io.Reader, header Header, hb []byte) ([]byte, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReader{r: r}
	}
	data := append([]byte(nil), hb...)
	read := func(n int) (bool, error) {
		for i := 0; i < n; i++ {
			b, err := br.ReadByte()
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			if err != nil {
				return false, &IOError{Op: "read", Err: err}
			}
			data = append(data, b)
		}
		return true, nil
	}

	pixels := satMul(uint64(header.Width), uint64(header.Height))
	for n := uint64(0); n < pixels; {
		if ok, err := read(1); !ok {
			return data, err
		}
		b1 := data[len(data)-1]
		count, extra := opcodeSize(b1)
		if ok, err := read(extra); !ok {
			return data, err
		}
		if b1&opMask3 == OpRun16 {
			count = shortRun + 1 + (uint64(b1&opPayload)<<8 | uint64(data[len(data)-1]))
		}
		n += count
	}
	if _, err := read(FooterSize); err != nil {
		return data, err
	}
	return data, nil
}

// opcodeSize returns the number of pixels an opcode produces and the number
// of bytes following its tag. Long runs need the second byte for their length.
func opcodeSize(b1 byte) (uint64, int) {
	switch {
	case b1&opMask2 == OpIndex:
		return 1, 0
	case b1&opMask3 == OpRun8:
		return uint64(b1&opPayload) + 1, 0
	case b1&opMask3 == OpRun16:
		return 0, 1
	case b1&opMask2 == OpDiff8:
		return 1, 0
	case b1&opMask3 == OpDiff16:
		return 1, 1
	case b1&opMask4 == OpDiff24:
		return 1, 2
	}
	return 1, bits.OnesCount8(b1 & 0x0f)
}

type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(b.r, b.buf[:])
	return b.buf[0], err
}

// toNRGBA returns the pixels of img as a tightly packed NRGBA image with its
// origin at (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) && m.Stride == 4*m.Rect.Dx() {
		return m
	}
	b := img.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), img, b.Min, draw.Src)
	return m
}

func dropAlpha(pix []byte) []byte {
	rgb := make([]byte, 0, len(pix)/4*3)
	for i := 0; i+3 < len(pix); i += 4 {
		rgb = append(rgb, pix[i], pix[i+1], pix[i+2])
	}
	return rgb
}
