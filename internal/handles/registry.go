// Package handles maps catalog assets to protocol-visible image handles.
//
// A Registry lives for exactly one responder session. Handles are drawn
// pseudo-randomly on first reference and stay stable until the session is
// torn down with Reset. The mapping is strictly 1:1: an asset owns one
// handle and a handle names one asset.
//
// Registry is safe for concurrent use.
package handles

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// CollisionPolicy decides what happens when a freshly drawn handle is
// already owned by another asset.
type CollisionPolicy int

const (
	// Reroll draws again until a free handle is found.
	Reroll CollisionPolicy = iota

	// Overwrite hands the handle to the new asset. The earlier asset loses
	// its mapping and is given a new handle on its next reference.
	Overwrite

	// Fail refuses the allocation with bip.ErrHandleCollision.
	Fail
)

// maxRerolls bounds the Reroll policy so a saturated handle space fails
// instead of spinning.
const maxRerolls = 64

// ParseCollisionPolicy maps a configuration value to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "", "reroll":
		return Reroll, nil
	case "overwrite":
		return Overwrite, nil
	case "fail":
		return Fail, nil
	default:
		return Reroll, fmt.Errorf("unknown handle collision policy: %s", s)
	}
}

// String implements fmt.Stringer.
func (p CollisionPolicy) String() string {
	switch p {
	case Overwrite:
		return "overwrite"
	case Fail:
		return "fail"
	default:
		return "reroll"
	}
}

// Option configures a Registry.
type Option func(*Registry)

// WithSource replaces the pseudo-random handle source. intn must return a
// value in [0, n).
func WithSource(intn func(n int) int) Option {
	return func(r *Registry) {
		r.intn = intn
	}
}

// WithCollisionPolicy sets the collision policy. The default is Reroll.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// Registry owns the asset<->handle mapping and the per-handle attribute
// cache for one session.
//
// # Example Usage
//
//	reg := handles.New()
//	h, err := reg.HandleFor(42, "/music/art/42.jpg")
//	if err != nil {
//	    return err
//	}
//	attrs, _ := reg.Attributes(h)
type Registry struct {
	mu      sync.RWMutex
	byAsset map[bip.AssetID]bip.Handle
	attrs   map[bip.Handle]bip.Attributes
	intn    func(n int) int
	policy  CollisionPolicy
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byAsset: make(map[bip.AssetID]bip.Handle),
		attrs:   make(map[bip.Handle]bip.Attributes),
		intn:    rand.Intn,
		policy:  Reroll,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleFor returns the handle owned by asset, allocating one on first
// reference. A new handle's attributes are seeded with asset and ref.
//
// Repeated calls for the same asset return the same handle. Errors are only
// possible on allocation: bip.ErrHandleCollision under the Fail policy and
// bip.ErrHandleSpaceExhausted when Reroll cannot find a free handle.
func (r *Registry) HandleFor(asset bip.AssetID, ref string) (bip.Handle, error) {
	r.mu.RLock()
	if h, ok := r.byAsset[asset]; ok {
		r.mu.RUnlock()
		return h, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have allocated while we waited for the write lock.
	if h, ok := r.byAsset[asset]; ok {
		return h, nil
	}

	h, err := r.draw()
	if err != nil {
		return "", err
	}

	if prev, taken := r.attrs[h]; taken {
		// Only reachable under Overwrite.
		delete(r.byAsset, prev.Asset)
	}
	r.byAsset[asset] = h
	r.attrs[h] = bip.NewAttributes(asset, ref)
	return h, nil
}

// draw picks a handle according to the collision policy. Callers hold mu.
func (r *Registry) draw() (bip.Handle, error) {
	for attempt := 0; attempt < maxRerolls; attempt++ {
		h := bip.FormatHandle(r.intn(bip.MaxHandle))
		if _, taken := r.attrs[h]; !taken {
			return h, nil
		}
		switch r.policy {
		case Overwrite:
			return h, nil
		case Fail:
			return "", fmt.Errorf("%w: %s", bip.ErrHandleCollision, h)
		}
	}
	return "", fmt.Errorf("%w after %d attempts", bip.ErrHandleSpaceExhausted, maxRerolls)
}

// IsKnown reports whether h was allocated by this registry and is still live.
func (r *Registry) IsKnown(h bip.Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.attrs[h]
	return ok
}

// Attributes returns the cached record for h.
func (r *Registry) Attributes(h bip.Handle) (bip.Attributes, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attrs[h]
	return a, ok
}

// Update replaces the cached record for h. The owning asset of a handle
// never changes; a record naming a different asset is rejected.
func (r *Registry) Update(h bip.Handle, attrs bip.Attributes) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.attrs[h]
	if !ok {
		return fmt.Errorf("%w: %s", bip.ErrUnknownHandle, h)
	}
	if attrs.Asset != cur.Asset {
		return fmt.Errorf("handle %s belongs to asset %d, not %d", h, cur.Asset, attrs.Asset)
	}
	r.attrs[h] = attrs
	return nil
}

// Reset drops every mapping. Used at session teardown.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.byAsset = make(map[bip.AssetID]bip.Handle)
	r.attrs = make(map[bip.Handle]bip.Attributes)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attrs)
}
