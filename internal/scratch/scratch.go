// Package scratch manages the staging files compressed art is written to
// before it is streamed to a client.
//
// Files are named "<tag>-<uuid>.tmp" inside a single directory so that a
// session can sweep up leftovers from an earlier crash by prefix.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

const suffix = ".tmp"

// Dir is a scratch area rooted at one directory.
type Dir struct {
	root   string
	tag    string
	logger *log.Logger

	mu   sync.Mutex
	live map[string]bool
}

// New returns a scratch area in root. An empty root selects a
// "bip-coverart" directory under os.TempDir. tag prefixes every file name.
func New(root, tag string, logger *log.Logger) *Dir {
	if root == "" {
		root = filepath.Join(os.TempDir(), "bip-coverart")
	}
	if tag == "" {
		tag = "bip"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dir{root: root, tag: tag, logger: logger, live: make(map[string]bool)}
}

// Root returns the scratch directory.
func (d *Dir) Root() string { return d.root }

// Ready creates the scratch directory if needed and checks that it is
// writable. Failures wrap bip.ErrStorageUnavailable.
func (d *Dir) Ready() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("%w: %v", bip.ErrStorageUnavailable, err)
	}
	// The probe carries the tag and suffix so a leftover is swept later.
	probe, err := os.CreateTemp(d.root, d.tag+"-probe-*"+suffix)
	if err != nil {
		return fmt.Errorf("%w: %v", bip.ErrStorageUnavailable, err)
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		d.logger.Printf("Warning: could not close probe %s: %v", name, err)
	}
	if err := os.Remove(name); err != nil {
		d.logger.Printf("Warning: could not remove probe %s: %v", name, err)
	}
	return nil
}

// Acquire reserves a new, empty staging file and returns its path.
func (d *Dir) Acquire() (string, error) {
	path := filepath.Join(d.root, d.tag+"-"+uuid.NewString()+suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bip.ErrStorageUnavailable, err)
	}
	f.Close()

	d.mu.Lock()
	d.live[path] = true
	d.mu.Unlock()
	return path, nil
}

// Release deletes a staging file. Releasing a file that is already gone is
// not an error.
func (d *Dir) Release(path string) error {
	d.mu.Lock()
	delete(d.live, path)
	d.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release %s: %w", path, err)
	}
	return nil
}

// Live returns the number of acquired files not yet released.
func (d *Dir) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Sweep deletes staging files carrying this area's tag that are not held
// by the current session, and returns how many were removed.
func (d *Dir) Sweep() (int, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list %s: %w", d.root, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, d.tag+"-") || !strings.HasSuffix(name, suffix) {
			continue
		}
		path := filepath.Join(d.root, name)
		if d.live[path] {
			continue
		}
		if err := os.Remove(path); err != nil {
			d.logger.Printf("Warning: could not remove stale %s: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
