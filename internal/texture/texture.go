package texture

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
)

// Type identifies the container an override texture is stored in.
type Type int

const (
	TypeNone Type = iota
	TypePNG
	TypeTEX
)

func (t Type) String() string {
	switch t {
	case TypePNG:
		return "PNG"
	case TypeTEX:
		return "TEX"
	default:
		return "None"
	}
}

// ParseType maps a file extension (with or without the dot) to a Type.
func ParseType(ext string) (Type, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return TypePNG, true
	case "tex":
		return TypeTEX, true
	default:
		return TypeNone, false
	}
}

// Replacement points at an override file. The zero value means no override.
type Replacement struct {
	Type Type
	Path string
}

// None reports whether r carries no override.
func (r Replacement) None() bool {
	return r.Type == TypeNone
}

// Format mirrors the host engine's texture format ids.
type Format int32

const (
	FormatRGB24  Format = 3
	FormatARGB32 Format = 5
	FormatDXT1   Format = 10
	FormatDXT5   Format = 12
)

// Resource is a loaded texture handed back to the host.
type Resource struct {
	Width  int
	Height int
	Format Format
	// Data is the encoded image payload (PNG bytes for both containers).
	Data []byte
}

const texMagic = "CM3D2_TEX"

var errStringTooLong = errors.New("string length prefix overflows")

// Load reads the override file described by r.
func Load(r Replacement) (*Resource, error) {
	switch r.Type {
	case TypePNG:
		return loadPNG(r.Path)
	case TypeTEX:
		f, err := os.Open(r.Path)
		if err != nil {
			return nil, fmt.Errorf("open tex file: %w", err)
		}
		defer f.Close()

		res, err := ReadTEX(bufio.NewReader(f), r.Path)
		if err != nil {
			return nil, fmt.Errorf("read tex file: %w", err)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("no texture override for %q", r.Path)
	}
}

func loadPNG(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read png file: %w", err)
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode png file: %w", err)
	}

	b := img.Bounds()
	return &Resource{
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatARGB32,
		Data:   data,
	}, nil
}

// ReadTEX decodes a CM3D2_TEX container (versions 1000 and 1010).
// A bad magic header is logged and decoding continues.
func ReadTEX(r io.Reader, name string) (*Resource, error) {
	magic, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if magic != texMagic {
		log.Warn().Str("texture", name).Msg("Texture is not a valid CM3D2 1000 or 1010 texture")
	}

	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if _, err := readString(r); err != nil {
		return nil, fmt.Errorf("read file name: %w", err)
	}

	res := &Resource{Format: FormatARGB32}
	if version >= 1010 {
		var dims [3]int32
		if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
			return nil, fmt.Errorf("read dimensions: %w", err)
		}
		res.Width, res.Height, res.Format = int(dims[0]), int(dims[1]), Format(dims[2])
	}

	var size int32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("read payload size: %w", err)
	}
	if size < 0 {
		return nil, fmt.Errorf("negative payload size %d", size)
	}

	if res.Data, err = readN(r, int64(size)); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	if version == 1000 && len(res.Data) >= 24 {
		res.Width = int(binary.BigEndian.Uint32(res.Data[16:20]))
		res.Height = int(binary.BigEndian.Uint32(res.Data[20:24]))
	}

	return res, nil
}

// readString reads a string with a 7-bit encoded length prefix.
func readString(r io.Reader) (string, error) {
	var length, shift uint32
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", err
		}
		length |= uint32(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 28 {
			return "", errStringTooLong
		}
	}

	buf, err := readN(r, int64(length))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// readN reads exactly n bytes. The buffer grows with the data actually
// present, so a corrupt length prefix cannot force a large allocation.
func readN(r io.Reader, n int64) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// Thumbnail decodes the override behind r and scales it to fit within
// maxWidth x maxHeight, preserving aspect ratio.
func Thumbnail(r Replacement, maxWidth, maxHeight uint) (image.Image, error) {
	var img image.Image
	switch r.Type {
	case TypePNG:
		var err error
		if img, err = imgio.Open(r.Path); err != nil {
			return nil, fmt.Errorf("decode png file: %w", err)
		}
	case TypeTEX:
		res, err := Load(r)
		if err != nil {
			return nil, err
		}
		if img, _, err = image.Decode(bytes.NewReader(res.Data)); err != nil {
			return nil, fmt.Errorf("decode tex payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("no texture override for %q", r.Path)
	}

	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3), nil
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}
