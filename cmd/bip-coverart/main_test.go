package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/bip-coverart/internal/config"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvScratchDir, filepath.Join(dir, "scratch"))

	art := filepath.Join(dir, "blue.png")
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{uint8(x), 80, uint8(y), 255})
		}
	}
	f, err := os.Create(art)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	common := []string{"--config", filepath.Join(dir, "absent.yaml"), "--catalog", filepath.Join(dir, "catalog.db")}

	out, err := run(t, append([]string{"catalog", "add-album", "Blue", art}, common...)...)
	if err != nil {
		t.Fatalf("add-album failed: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) != "1" {
		t.Errorf("add-album printed %q, want 1", out)
	}

	if out, err := run(t, append([]string{"catalog", "add-track", "Intro", "1"}, common...)...); err != nil {
		t.Fatalf("add-track failed: %v\n%s", err, out)
	}

	out, err = run(t, append([]string{"catalog", "list"}, common...)...)
	if err != nil || !strings.Contains(out, "Blue") {
		t.Errorf("list: %q (%v)", out, err)
	}

	out, err = run(t, append([]string{"properties", "Intro"}, common...)...)
	if err != nil {
		t.Fatalf("properties failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `pixel="320*240"`) {
		t.Errorf("properties missing native pixel:\n%s", out)
	}

	thumb := filepath.Join(dir, "thumb.jpg")
	if out, err := run(t, append([]string{"fetch", "Intro", "--thumbnail", "--out", thumb}, common...)...); err != nil {
		t.Fatalf("fetch --thumbnail failed: %v\n%s", err, out)
	}
	assertJPEG(t, thumb, 200, 200)

	desc := filepath.Join(dir, "want.xml")
	if err := os.WriteFile(desc, []byte(`<image-descriptor version="1.0"><image encoding="JPEG" pixel="150*150-300*200"/></image-descriptor>`), 0o644); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full.jpg")
	if out, err := run(t, append([]string{"fetch", "Intro", "--thumbnail=false", "--descriptor", desc, "--out", full}, common...)...); err != nil {
		t.Fatalf("fetch failed: %v\n%s", err, out)
	}
	assertJPEG(t, full, 300, 200)

	if _, err := run(t, append([]string{"fetch", "Nope", "--descriptor", "", "--out", full}, common...)...); err == nil {
		t.Error("fetch of an unknown title should fail")
	}
}

func assertJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("missing output: %v", err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("%s is not a JPEG: %v", path, err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Errorf("%s: got %dx%d, want %dx%d", filepath.Base(path), cfg.Width, cfg.Height, w, h)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "bip-coverart "+Version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigCommand(t *testing.T) {
	t.Cleanup(func() { catalogPath, debugFlag = "", false })
	dir := t.TempDir()
	db := filepath.Join(dir, "media.db")

	out, err := run(t, "config", "--config", filepath.Join(dir, "absent.yaml"), "--catalog", db, "--debug")
	if err != nil {
		t.Fatalf("config failed: %v\n%s", err, out)
	}
	for _, want := range []string{"catalog_path: " + db, "log_level: debug", "compression_quality: 75"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
