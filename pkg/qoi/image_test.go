package qoi

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"
)

func testImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: uint8(255 - x*y%3),
			})
		}
	}
	return img
}

func TestEncodeImage(t *testing.T) {
	full := testImage(40, 30)

	for _, tc := range []struct {
		name string
		img  image.Image
	}{
		{name: "nrgba", img: full},
		{name: "sub image", img: full.SubImage(image.Rect(5, 7, 33, 20))},
		{name: "gray", img: image.NewGray(image.Rect(0, 0, 9, 4))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer

			// when
			if err := EncodeImage(&buf, tc.img, nil); err != nil {
				t.Fatal(err)
			}
			decoded, format, err := image.Decode(&buf)

			// then
			if err != nil {
				t.Fatal(err)
			}
			if format != "qoi" {
				t.Fatalf("expected format qoi, actual %q", format)
			}
			b := tc.img.Bounds()
			if decoded.Bounds().Dx() != b.Dx() || decoded.Bounds().Dy() != b.Dy() {
				t.Fatalf("expected size %v, actual %v", b.Size(), decoded.Bounds().Size())
			}
			for y := 0; y < b.Dy(); y++ {
				for x := 0; x < b.Dx(); x++ {
					want := color.NRGBAModel.Convert(tc.img.At(b.Min.X+x, b.Min.Y+y))
					if got := decoded.At(x, y); got != want {
						t.Fatalf("invalid pixel at (%d, %d): expected %+v, actual %+v", x, y, want, got)
					}
				}
			}
		})
	}
}

func TestEncodeImageThreeChannels(t *testing.T) {
	// given
	img := testImage(8, 8)
	var buf bytes.Buffer

	// when
	err := EncodeImage(&buf, img, &Options{Channels: Three, ColourSpace: 1})

	// then
	if err != nil {
		t.Fatal(err)
	}
	h, err := ReadHeader(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if want := (Header{Width: 8, Height: 8, Channels: Three, ColourSpace: 1}); h != want {
		t.Fatalf("expected header %+v, actual %+v", want, h)
	}
	decoded, err := DecodeImage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := img.NRGBAAt(x, y)
			want.A = 255
			if got := decoded.At(x, y); got != want {
				t.Fatalf("invalid pixel at (%d, %d): expected %+v, actual %+v", x, y, want, got)
			}
		}
	}
}

func TestDecodeConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, testImage(21, 3), nil); err != nil {
		t.Fatal(err)
	}

	conf, err := DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Width != 21 || conf.Height != 3 || conf.ColorModel != color.NRGBAModel {
		t.Fatalf("unexpected config %+v", conf)
	}

	if _, err := DecodeConfig(bytes.NewReader([]byte("qoif"))); !errors.Is(err, ErrInputSmallerThanHeader) {
		t.Fatalf("expected %v, actual %v", ErrInputSmallerThanHeader, err)
	}
}

var errBroken = errors.New("broken")

type brokenReadWriter struct{}

func (brokenReadWriter) Write([]byte) (int, error) { return 0, errBroken }
func (brokenReadWriter) Read([]byte) (int, error)  { return 0, errBroken }

func TestImageIOError(t *testing.T) {
	err := EncodeImage(brokenReadWriter{}, testImage(2, 2), nil)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, errBroken) {
		t.Fatalf("expected an IOError wrapping %v, actual %v", errBroken, err)
	}

	_, err = DecodeImage(brokenReadWriter{})
	if !errors.As(err, &ioErr) || !errors.Is(err, errBroken) {
		t.Fatalf("expected an IOError wrapping %v, actual %v", errBroken, err)
	}
}

func TestDecodeImageTrailingData(t *testing.T) {
	for _, tc := range []struct {
		name     string
		raw      []byte
		width    uint32
		channels Channels
	}{
		{name: "flat", raw: bytes.Repeat([]byte{10, 20, 30}, 10), width: 10, channels: Three},
		{name: "incompressible", raw: []byte{10, 20, 30, 200, 100, 50}, width: 2, channels: Three},
		{name: "long run", raw: bytes.Repeat([]byte{1, 2, 3, 4}, 300), width: 300, channels: Four},
		{name: "mixed", raw: testPixels(40, 1, Four, 11), width: 40, channels: Four},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// given
			data := mustEncode(t, tc.raw, tc.width, 1, tc.channels)
			want, err := Decode(data, Four)
			if err != nil {
				t.Fatal(err)
			}
			buffered := bytes.NewReader(append(append([]byte{}, data...), 'x', 'y'))
			unbuffered := struct{ io.Reader }{bytes.NewReader(append(append([]byte{}, data...), 'x'))}

			for _, r := range []io.Reader{buffered, unbuffered} {
				// when
				img, err := DecodeImage(r)

				// then
				if err != nil {
					t.Fatal(err)
				}
				if got := img.(*image.NRGBA).Pix; !bytes.Equal(got, want) {
					t.Fatalf("expected %v, actual %v", want, got)
				}
			}
			if buffered.Len() != 2 {
				t.Fatalf("expected the 2 trailing bytes to stay unread, %d left", buffered.Len())
			}
		})
	}
}

func TestDecodeImageShortStream(t *testing.T) {
	// the opcodes end after the first pixel; the rest repeats it
	data := stream(header(4, 1, Four), 0xfe, 10, 20, 30)

	img, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if want := bytes.Repeat([]byte{10, 20, 30, 255}, 4); !bytes.Equal(img.(*image.NRGBA).Pix, want) {
		t.Fatalf("expected %v, actual %v", want, img.(*image.NRGBA).Pix)
	}
}
