package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func writeTestJPEG(t *testing.T, width, height int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, createInMemoryImage(width, height, color.RGBA{90, 60, 30, 255}), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	path := filepath.Join(t.TempDir(), "art.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExifWriter_RewriteDimensions(t *testing.T) {
	path := writeTestJPEG(t, 64, 48)

	if err := (ExifWriter{}).RewriteDimensions(path, 200, 150); err != nil {
		t.Fatalf("RewriteDimensions failed: %v", err)
	}

	w, h, err := ReadDimensions(path)
	if err != nil {
		t.Fatalf("ReadDimensions failed: %v", err)
	}
	if w != 200 || h != 150 {
		t.Errorf("got %dx%d, want 200x150", w, h)
	}

	// The pixels must still decode.
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("rewritten file no longer decodes: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Errorf("decoded bounds changed: %v", img.Bounds())
	}
}

func TestExifWriter_ReplacesExistingHeader(t *testing.T) {
	path := writeTestJPEG(t, 32, 32)
	writer := ExifWriter{}

	if err := writer.RewriteDimensions(path, 10, 20); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)
	if err := writer.RewriteDimensions(path, 30, 40); err != nil {
		t.Fatal(err)
	}
	after, _ := os.ReadFile(path)

	if len(after) != len(before) {
		t.Errorf("second rewrite changed length %d -> %d; old header not replaced", len(before), len(after))
	}
	if w, h, _ := ReadDimensions(path); w != 30 || h != 40 {
		t.Errorf("got %dx%d, want 30x40", w, h)
	}
	if n := bytes.Count(after, exifPrefix); n != 1 {
		t.Errorf("found %d EXIF headers, want 1", n)
	}
}

func TestExifWriter_RejectsNonJPEG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (ExifWriter{}).RewriteDimensions(path, 1, 1); err == nil {
		t.Error("RewriteDimensions should reject a PNG")
	}
	if err := (ExifWriter{}).RewriteDimensions(filepath.Join(t.TempDir(), "missing.jpg"), 1, 1); err == nil {
		t.Error("RewriteDimensions should fail for a missing file")
	}
}

func TestReadDimensions_NoHeader(t *testing.T) {
	path := writeTestJPEG(t, 8, 8)
	if _, _, err := ReadDimensions(path); err == nil {
		t.Error("ReadDimensions should fail when no EXIF header is present")
	}
}
