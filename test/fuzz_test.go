package test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/wagpa/go-quiteok/pkg/qoi"
)

var knownErrors = []error{
	qoi.ErrInputSmallerThanHeader,
	qoi.ErrIncorrectHeaderMagic,
	qoi.ErrChannels,
	qoi.ErrInputSize,
	qoi.ErrOutputTooSmall,
	qoi.ErrTooBig,
}

func checkError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return
		}
	}
	t.Fatalf("untyped error: %v", err)
}

func FuzzDecode(f *testing.F) {
	small, err := qoi.Encode([]byte{10, 20, 30, 10, 20, 30, 11, 21, 31}, 3, 1, qoi.Three, 0)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(small)
	f.Add([]byte("qoif"))
	f.Add([]byte("qoif\x00\x00\x00\x02\x00\x00\x00\x02\x04\x00\xff\x01\x02\x03\x04\x60\x10\x00\x00\x00\x00"))

	f.Fuzz(func(t *testing.T, data []byte) {
		// keep the fuzzer away from gigabyte allocations
		if h, err := qoi.ReadHeader(data); err == nil && h.RawImageSize(qoi.Four) > 1<<24 {
			t.Skip()
		}
		_, err := qoi.Decode(data, qoi.FromHeader)
		checkError(t, err)
	})
}

func FuzzEncode(f *testing.F) {
	f.Add([]byte{1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 10, 20, 30})
	f.Add([]byte{2, 0, 0, 0, 1, 0, 0, 0, 9, 1, 10, 20, 30, 40, 10, 20, 30, 40})

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) < 10 {
			return
		}
		width := binary.LittleEndian.Uint32(data[0:4])
		height := binary.LittleEndian.Uint32(data[4:8])
		channels := qoi.Three
		if data[8] >= 5 {
			channels = qoi.Four
		}
		colourSpace := data[9]
		raw := data[10:]

		encoded, err := qoi.Encode(raw, width, height, channels, colourSpace)
		checkError(t, err)
		if err != nil {
			return
		}

		decoded, err := qoi.Decode(encoded, channels)
		if err != nil {
			t.Fatal(err)
		}
		if size := int(width) * int(height) * int(channels); !bytes.Equal(decoded, raw[:size]) {
			t.Fatal("round trip differs")
		}
	})
}
