// Command quiteok converts images to and from the QuiteOk image format.
//
//	quiteok encode [-channels 3|4] [-colourspace n] [-raw WxH] <input> <output.qoi>
//	quiteok decode [-raw [-channels 3|4]] <input.qoi> <output>
//	quiteok info <input.qoi>
//	quiteok fixture [-channels 3|4] <input> <dir>
//
// Inputs ending in .zst are zstd decompressed first. Decoded images are
// written as PNG, BMP or TIFF depending on the output extension.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wagpa/go-quiteok/pkg/fixture"
	"github.com/wagpa/go-quiteok/pkg/qoi"
)

const usage = `usage:
  quiteok encode [-channels 3|4] [-colourspace n] [-raw WxH] <input> <output.qoi>
  quiteok decode [-raw [-channels 3|4]] <input.qoi> <output>
  quiteok info <input.qoi>
  quiteok fixture [-channels 3|4] <input> <dir>
`

// config holds the flags shared by all subcommands.
type config struct {
	channels    uint
	colourSpace uint
	raw         string
	rawOut      bool
	verbose     bool
	args        []string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	cfg, err := parseFlags(cmd, os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	qoi.SetLogger(logger)

	if err := run(cmd, cfg, logger); err != nil {
		logger.Error(cmd+" failed", "err", err)
		os.Exit(1)
	}
}

func parseFlags(cmd string, args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.BoolVar(&cfg.verbose, "v", false, "log debug output")
	wantArgs := 2
	switch cmd {
	case "encode":
		fs.UintVar(&cfg.channels, "channels", 4, "channels to store: 3 or 4")
		fs.UintVar(&cfg.colourSpace, "colourspace", 0, "colour space byte stored in the header")
		fs.StringVar(&cfg.raw, "raw", "", "read raw pixels of size WxH instead of an image")
	case "decode":
		fs.UintVar(&cfg.channels, "channels", 0, "channels of the raw output, 0 keeps the header's; requires -raw")
		fs.BoolVar(&cfg.rawOut, "raw", false, "write raw pixels instead of an image")
	case "fixture":
		fs.UintVar(&cfg.channels, "channels", 4, "channels to store: 3 or 4")
	case "info":
		wantArgs = 1
	default:
		return cfg, fmt.Errorf("unknown command %q", cmd)
	}
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.args = fs.Args()
	if len(cfg.args) != wantArgs {
		return cfg, fmt.Errorf("%s: expected %d arguments, got %d", cmd, wantArgs, len(cfg.args))
	}
	if cmd == "decode" && !cfg.rawOut {
		var channelsSet bool
		fs.Visit(func(f *flag.Flag) { channelsSet = channelsSet || f.Name == "channels" })
		if channelsSet {
			return cfg, errors.New("decode: -channels requires -raw, images are always decoded as RGBA")
		}
	}
	if cfg.channels > 255 || cfg.colourSpace > 255 {
		return cfg, errors.New("channels and colour space must fit in a byte")
	}
	return cfg, nil
}

func run(cmd string, cfg config, logger *slog.Logger) error {
	switch cmd {
	case "encode":
		return encodeFile(cfg, logger)
	case "decode":
		return decodeFile(cfg, logger)
	case "info":
		return printInfo(cfg.args[0])
	case "fixture":
		return writeFixture(cfg, logger)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func encodeFile(cfg config, logger *slog.Logger) error {
	in, out := cfg.args[0], cfg.args[1]
	channels := qoi.Channels(cfg.channels)
	data, err := readInput(in)
	if err != nil {
		return err
	}

	var encoded []byte
	if cfg.raw != "" {
		var width, height uint32
		if _, err := fmt.Sscanf(cfg.raw, "%dx%d", &width, &height); err != nil {
			return fmt.Errorf("invalid raw size %q: %w", cfg.raw, err)
		}
		encoded, err = qoi.Encode(data, width, height, channels, uint8(cfg.colourSpace))
		if err != nil {
			return err
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		opts := &qoi.Options{Channels: channels, ColourSpace: uint8(cfg.colourSpace)}
		if err := qoi.EncodeImage(&buf, img, opts); err != nil {
			return err
		}
		encoded = buf.Bytes()
	}

	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return err
	}
	logger.Info("encoded", "input", in, "output", out, "bytes", len(encoded), "ratio", ratio(len(data), len(encoded)))
	return nil
}

func decodeFile(cfg config, logger *slog.Logger) error {
	in, out := cfg.args[0], cfg.args[1]
	data, err := readInput(in)
	if err != nil {
		return err
	}
	header, err := qoi.ReadHeader(data)
	if err != nil {
		return err
	}

	if cfg.rawOut {
		raw, err := qoi.Decode(data, qoi.Channels(cfg.channels))
		if err != nil {
			return err
		}
		if strings.HasSuffix(out, ".zst") {
			raw = fixture.Compress(raw)
		}
		if err := os.WriteFile(out, raw, 0o644); err != nil {
			return err
		}
		logger.Info("decoded", "input", in, "output", out, "header", header.String())
		return nil
	}

	img, err := qoi.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(out)) {
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return err
	}
	logger.Info("decoded", "input", in, "output", out, "header", header.String())
	return f.Close()
}

func printInfo(in string) error {
	data, err := readInput(in)
	if err != nil {
		return err
	}
	header, err := qoi.ReadHeader(data)
	if err != nil {
		return err
	}
	raw := header.RawImageSize(qoi.FromHeader)
	fmt.Printf("%s: %s, %d bytes, %d raw bytes (%.1f%%)\n", in, header, len(data), raw, ratio(int(raw), len(data)))
	return nil
}

func writeFixture(cfg config, logger *slog.Logger) error {
	in, dir := cfg.args[0], cfg.args[1]
	data, err := readInput(in)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	// go through the codec once to get the raw pixels in the requested layout
	var buf bytes.Buffer
	if err := qoi.EncodeImage(&buf, img, &qoi.Options{Channels: qoi.Channels(cfg.channels)}); err != nil {
		return err
	}
	header, err := qoi.ReadHeader(buf.Bytes())
	if err != nil {
		return err
	}
	raw, err := qoi.Decode(buf.Bytes(), qoi.FromHeader)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if err := fixture.Write(dir, name, raw, header); err != nil {
		return err
	}
	logger.Info("fixture written", "name", name, "dir", dir, "header", header.String())
	return nil
}

// readInput reads a file and decompresses it when it ends in .zst.
func readInput(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(name, ".zst") {
		return fixture.Decompress(data)
	}
	return data, nil
}

// ratio is the size of encoded as a percentage of raw.
func ratio(raw, encoded int) float64 {
	if raw == 0 {
		return 0
	}
	return float64(encoded) * 100 / float64(raw)
}
