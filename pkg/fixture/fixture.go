// Package fixture reads and writes reference image pairs: an encoded QuiteOk
// file next to its raw pixels, which are stored zstd compressed.
//
// A case named "dice" consists of dice.qoi and dice.raw.zst. The raw pixels
// use the channel count from the header of dice.qoi.
package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/wagpa/go-quiteok/pkg/qoi"
)

const (
	EncodedExt = ".qoi"
	RawExt     = ".raw.zst"
)

var ErrSizeMismatch = errors.New("fixture: raw pixels do not match the header")

// Shared encoder/decoder (thread-safe, reusable)
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}

	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(qoi.MaxSize))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

// Case is one reference image.
type Case struct {
	Name    string
	Header  qoi.Header
	Encoded []byte
	Raw     []byte
}

// Compress compresses raw pixel data using zstd.
func Compress(raw []byte) []byte {
	return zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)/4))
}

// Decompress decompresses zstd-compressed pixel data.
func Decompress(compressed []byte) ([]byte, error) {
	data, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return data, nil
}

// Load reads every case in dir, sorted by name. Files other than encoded
// images are ignored; an encoded image without raw pixels is an error.
func Load(fsys fs.FS, dir string) ([]Case, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var cases []Case
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), EncodedExt) {
			continue
		}
		c, err := LoadCase(fsys, dir, strings.TrimSuffix(entry.Name(), EncodedExt))
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Name < cases[j].Name })
	return cases, nil
}

// LoadCase reads a single case.
func LoadCase(fsys fs.FS, dir, name string) (Case, error) {
	encoded, err := fs.ReadFile(fsys, path.Join(dir, name+EncodedExt))
	if err != nil {
		return Case{}, err
	}
	header, err := qoi.ReadHeader(encoded)
	if err != nil {
		return Case{}, fmt.Errorf("fixture %s: %w", name, err)
	}
	compressed, err := fs.ReadFile(fsys, path.Join(dir, name+RawExt))
	if err != nil {
		return Case{}, err
	}
	raw, err := Decompress(compressed)
	if err != nil {
		return Case{}, fmt.Errorf("fixture %s: %w", name, err)
	}
	if size := header.RawImageSize(qoi.FromHeader); uint64(len(raw)) != size {
		return Case{}, fmt.Errorf("%w: %s has %d raw bytes, expected %d", ErrSizeMismatch, name, len(raw), size)
	}

	qoi.Logger().Debug("fixture: loaded", "name", name, "header", header.String())
	return Case{
		Name:    name,
		Header:  header,
		Encoded: encoded,
		Raw:     raw,
	}, nil
}

// Write encodes raw with the dimensions of header and stores the case in dir.
func Write(dir, name string, raw []byte, header qoi.Header) error {
	encoded, err := qoi.Encode(raw, header.Width, header.Height, header.Channels, header.ColourSpace)
	if err != nil {
		return fmt.Errorf("fixture %s: %w", name, err)
	}
	size := header.RawImageSize(qoi.FromHeader)
	if err := os.WriteFile(filepath.Join(dir, name+EncodedExt), encoded, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+RawExt), Compress(raw[:size]), 0o644)
}
