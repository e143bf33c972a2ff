package scratch

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

func TestReady_CreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "scratch")
	d := New(root, "s1", nil)

	if err := d.Ready(); err != nil {
		t.Fatalf("Ready failed: %v", err)
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		t.Fatalf("scratch dir not created: %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("Ready left %d files behind", len(entries))
	}
}

func TestReady_Unavailable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	d := New(filepath.Join(file, "scratch"), "s1", nil)
	if err := d.Ready(); !errors.Is(err, bip.ErrStorageUnavailable) {
		t.Errorf("got %v, want ErrStorageUnavailable", err)
	}
}

func TestAcquireRelease(t *testing.T) {
	d := New(t.TempDir(), "sess", nil)
	if err := d.Ready(); err != nil {
		t.Fatal(err)
	}

	a, err := d.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	b, err := d.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if a == b {
		t.Fatal("Acquire returned the same path twice")
	}
	if !strings.HasPrefix(filepath.Base(a), "sess-") || !strings.HasSuffix(a, ".tmp") {
		t.Errorf("unexpected name %s", a)
	}
	if _, err := os.Stat(a); err != nil {
		t.Errorf("acquired file missing: %v", err)
	}
	if d.Live() != 2 {
		t.Errorf("Live: got %d, want 2", d.Live())
	}

	if err := d.Release(a); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("released file still exists")
	}
	if err := d.Release(a); err != nil {
		t.Errorf("second Release should be a no-op: %v", err)
	}
	if d.Live() != 1 {
		t.Errorf("Live: got %d, want 1", d.Live())
	}
}

func TestAcquire_MissingDirectory(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "absent"), "s", nil)
	if _, err := d.Acquire(); !errors.Is(err, bip.ErrStorageUnavailable) {
		t.Errorf("got %v, want ErrStorageUnavailable", err)
	}
}

func TestSweep(t *testing.T) {
	root := t.TempDir()
	d := New(root, "sess", nil)

	held, err := d.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(root, "sess-old.tmp")
	other := filepath.Join(root, "other-old.tmp")
	keep := filepath.Join(root, "notes.txt")
	for _, p := range []string{stale, other, keep} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := d.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived")
	}
	for _, p := range []string{held, other, keep} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("%s should survive: %v", filepath.Base(p), err)
		}
	}
}

func TestSweep_MissingDirectory(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "absent"), "s", nil)
	if n, err := d.Sweep(); err != nil || n != 0 {
		t.Errorf("got (%d, %v), want (0, nil)", n, err)
	}
}

func TestReady_QuietOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	d := New(t.TempDir(), "s1", log.New(&buf, "", 0))

	for i := 0; i < 3; i++ {
		if err := d.Ready(); err != nil {
			t.Fatalf("Ready failed: %v", err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected log output: %q", buf.String())
	}
	entries, _ := os.ReadDir(d.Root())
	if len(entries) != 0 {
		t.Errorf("Ready left %d files behind", len(entries))
	}
}

func TestSweep_CollectsLeftoverProbe(t *testing.T) {
	root := t.TempDir()
	d := New(root, "sess", nil)

	leftover := filepath.Join(root, "sess-probe-12345.tmp")
	if err := os.WriteFile(leftover, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := d.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("leftover probe survived")
	}
}
