package texture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	n := uint32(len(s))
	for n >= 0x80 {
		buf.WriteByte(byte(n) | 0x80)
		n >>= 7
	}
	buf.WriteByte(byte(n))
	buf.WriteString(s)
}

func encodeTEX(version int32, payload []byte, dims ...int32) []byte {
	var buf bytes.Buffer
	writeString(&buf, texMagic)
	binary.Write(&buf, binary.LittleEndian, version)
	writeString(&buf, "assets/texture/sample.png")
	for _, d := range dims {
		binary.Write(&buf, binary.LittleEndian, d)
	}
	binary.Write(&buf, binary.LittleEndian, int32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func TestParseType(t *testing.T) {
	cases := map[string]Type{".png": TypePNG, "PNG": TypePNG, ".Tex": TypeTEX}
	for ext, want := range cases {
		got, ok := ParseType(ext)
		if !ok || got != want {
			t.Errorf("ParseType(%q) = %v, %v", ext, got, ok)
		}
	}
	if _, ok := ParseType(".jpg"); ok {
		t.Error("ParseType(.jpg) should fail")
	}
	if !(Replacement{}).None() {
		t.Error("zero Replacement should be None")
	}
}

func TestReadTEX1010(t *testing.T) {
	payload := encodePNG(t, 4, 2)
	res, err := ReadTEX(bytes.NewReader(encodeTEX(1010, payload, 64, 32, int32(FormatDXT5))), "sample")
	if err != nil {
		t.Fatalf("ReadTEX err=%v", err)
	}
	if res.Width != 64 || res.Height != 32 || res.Format != FormatDXT5 {
		t.Fatalf("res = %dx%d format %d", res.Width, res.Height, res.Format)
	}
	if !bytes.Equal(res.Data, payload) {
		t.Fatal("payload mismatch")
	}
}

func TestReadTEX1000UsesPNGHeader(t *testing.T) {
	payload := encodePNG(t, 7, 3)
	res, err := ReadTEX(bytes.NewReader(encodeTEX(1000, payload)), "sample")
	if err != nil {
		t.Fatalf("ReadTEX err=%v", err)
	}
	if res.Width != 7 || res.Height != 3 || res.Format != FormatARGB32 {
		t.Fatalf("res = %dx%d format %d", res.Width, res.Height, res.Format)
	}
}

func TestReadTEXTruncated(t *testing.T) {
	data := encodeTEX(1010, encodePNG(t, 2, 2), 2, 2, int32(FormatARGB32))
	if _, err := ReadTEX(bytes.NewReader(data[:len(data)-5]), "short"); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestLoadPNGAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(path, encodePNG(t, 40, 20), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := Load(Replacement{Type: TypePNG, Path: path})
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if res.Width != 40 || res.Height != 20 {
		t.Fatalf("res = %dx%d", res.Width, res.Height)
	}

	thumb, err := Thumbnail(Replacement{Type: TypePNG, Path: path}, 10, 10)
	if err != nil {
		t.Fatalf("Thumbnail err=%v", err)
	}
	if b := thumb.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("thumbnail = %v", b)
	}

	out := filepath.Join(dir, "preview.png")
	if err := SavePNG(out, thumb); err != nil {
		t.Fatalf("SavePNG err=%v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("preview not written: %v", err)
	}
}

func TestLoadTEXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.tex")
	if err := os.WriteFile(path, encodeTEX(1000, encodePNG(t, 5, 6)), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := Load(Replacement{Type: TypeTEX, Path: path})
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if res.Width != 5 || res.Height != 6 {
		t.Fatalf("res = %dx%d", res.Width, res.Height)
	}
}

func TestLoadNone(t *testing.T) {
	if _, err := Load(Replacement{}); err == nil {
		t.Fatal("expected error for empty replacement")
	}
}

func TestReadTEXOversizedLengths(t *testing.T) {
	var payload bytes.Buffer
	writeString(&payload, texMagic)
	binary.Write(&payload, binary.LittleEndian, int32(1000))
	writeString(&payload, "big.png")
	binary.Write(&payload, binary.LittleEndian, int32(0x7fffffff))
	payload.WriteString("tiny")
	if _, err := ReadTEX(bytes.NewReader(payload.Bytes()), "big"); err == nil {
		t.Fatal("expected error for payload size beyond the data")
	}

	var name bytes.Buffer
	writeString(&name, texMagic)
	binary.Write(&name, binary.LittleEndian, int32(1010))
	name.Write([]byte{0xff, 0xff, 0xff, 0xff, 0x0f})
	name.WriteString("short")
	if _, err := ReadTEX(bytes.NewReader(name.Bytes()), "name"); err == nil {
		t.Fatal("expected error for string length beyond the data")
	}
}
