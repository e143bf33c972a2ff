// Package responder sequences cover-art requests for one peer session.
//
// A request runs: handle lookup, storage readiness, native refresh,
// descriptor negotiation, render, scratch acquire, compress, EXIF
// dimension rewrite, size ceiling check and finally streaming to the
// caller's writer. The staging file is released on every path.
//
// Responder methods are safe for concurrent use; renders within a session
// are serialised.
package responder

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"

	"github.com/ironsheep/bip-coverart/internal/bip"
	"github.com/ironsheep/bip-coverart/internal/descriptor"
	"github.com/ironsheep/bip-coverart/internal/handles"
	"github.com/ironsheep/bip-coverart/internal/negotiate"
)

// Catalog resolves track titles and album art.
type Catalog interface {
	FindAssetByTitle(ctx context.Context, title string) (bip.AssetID, error)
	HasRenderableArt(ctx context.Context, id bip.AssetID) bool
	Locate(ctx context.Context, id bip.AssetID) (string, error)
}

// Renderer reads, scales and compresses art.
type Renderer interface {
	Native(ctx context.Context, ref string, bounds bip.Bounds) (bip.Size, int64, error)
	RenderScaled(ctx context.Context, ref string, spec bip.RenderSpec) (image.Image, error)
	Compress(img image.Image, enc bip.Encoding, quality int, w io.Writer) error
}

// Scratch hands out staging files.
type Scratch interface {
	Ready() error
	Acquire() (string, error)
	Release(path string) error
}

// MetadataWriter stamps pixel dimensions into an encoded file.
type MetadataWriter interface {
	RewriteDimensions(path string, width, height int) error
}

// Deps are the collaborators a Responder drives.
type Deps struct {
	Catalog  Catalog
	Renderer Renderer
	Scratch  Scratch
	Metadata MetadataWriter
}

// Options tune a Responder. Zero values select the defaults.
type Options struct {
	Bounds    bip.Bounds
	Thumbnail bip.Size
	Quality   int
	Registry  *handles.Registry
	Logger    *log.Logger
	Debug     bool
}

const (
	// DefaultQuality is the JPEG compression quality.
	DefaultQuality = 75
)

// DefaultThumbnail is the fixed thumbnail size.
var DefaultThumbnail = bip.Size{Width: 200, Height: 200}

// Responder serves handles, properties, thumbnails and images.
type Responder struct {
	deps      Deps
	registry  *handles.Registry
	engine    *negotiate.Engine
	bounds    bip.Bounds
	thumbnail bip.Size
	quality   int
	logger    *log.Logger
	debug     bool

	// mu serialises renders and the scratch path.
	mu sync.Mutex
}

// New creates a responder for one session.
func New(deps Deps, opts Options) *Responder {
	if opts.Bounds == (bip.Bounds{}) {
		opts.Bounds = bip.DefaultBounds()
	}
	if opts.Thumbnail.IsZero() {
		opts.Thumbnail = DefaultThumbnail
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Registry == nil {
		opts.Registry = handles.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Responder{
		deps:      deps,
		registry:  opts.Registry,
		engine:    negotiate.New(opts.Bounds),
		bounds:    opts.Bounds,
		thumbnail: opts.Thumbnail,
		quality:   opts.Quality,
		logger:    opts.Logger,
		debug:     opts.Debug,
	}
}

func (r *Responder) debugf(format string, args ...any) {
	if r.debug {
		r.logger.Printf(format, args...)
	}
}

// ResolveHandle returns the handle for asset, allocating one on first use.
func (r *Responder) ResolveHandle(ctx context.Context, asset bip.AssetID) (bip.Handle, error) {
	ref, err := r.deps.Catalog.Locate(ctx, asset)
	if err != nil {
		return "", err
	}
	h, err := r.registry.HandleFor(asset, ref)
	if err != nil {
		return "", err
	}
	r.debugf("Asset %d -> handle %s", asset, h)
	return h, nil
}

// IsValidHandle reports whether h was issued by this session.
func (r *Responder) IsValidHandle(h bip.Handle) bool {
	return r.registry.IsKnown(h)
}

// HandleForTitle finds the album of the track titled title and returns its
// art handle. Tracks whose album has no usable art yield ErrAssetNotFound.
func (r *Responder) HandleForTitle(ctx context.Context, title string) (bip.Handle, error) {
	asset, err := r.deps.Catalog.FindAssetByTitle(ctx, title)
	if err != nil {
		return "", err
	}
	if !r.deps.Catalog.HasRenderableArt(ctx, asset) {
		return "", fmt.Errorf("%w: album %d of %q has no art", bip.ErrAssetNotFound, asset, title)
	}
	return r.ResolveHandle(ctx, asset)
}

// EncodeProperties returns the image-properties document for h, after
// refreshing its native attributes from the art on disk.
func (r *Responder) EncodeProperties(ctx context.Context, h bip.Handle) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if attrs, err = r.refresh(ctx, h, attrs); err != nil {
		return nil, err
	}
	return descriptor.EncodeProperties(h, attrs, r.bounds)
}

// FetchThumbnail renders the fixed-size JPEG thumbnail of h into w.
func (r *Responder) FetchThumbnail(ctx context.Context, h bip.Handle, w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, err := r.lookup(h)
	if err != nil {
		return err
	}
	if err := r.deps.Scratch.Ready(); err != nil {
		return storageErr(err)
	}
	spec := bip.RenderSpec{
		Width:          r.thumbnail.Width,
		Height:         r.thumbnail.Height,
		Encoding:       bip.EncodingJPEG,
		Transformation: bip.TransformStretch,
	}
	return r.render(ctx, h, attrs.Ref, spec, w)
}

// FetchImage renders h according to descriptorXML into w. An empty or
// whitespace-only descriptor selects the native size as JPEG.
func (r *Responder) FetchImage(ctx context.Context, h bip.Handle, descriptorXML []byte, w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	attrs, err := r.lookup(h)
	if err != nil {
		return err
	}
	if err := r.deps.Scratch.Ready(); err != nil {
		return storageErr(err)
	}
	// Unreadable art fails the request before the descriptor is looked at.
	if attrs, err = r.refresh(ctx, h, attrs); err != nil {
		return err
	}

	d := descriptor.Default()
	if !descriptor.IsEmpty(descriptorXML) {
		if d, err = descriptor.Parse(descriptorXML); err != nil {
			return err
		}
	}
	spec, err := r.engine.Resolve(d, attrs.Native())
	if err != nil {
		r.debugf("Handle %s: rejected %s: %v", h, d, err)
		return err
	}
	r.debugf("Handle %s: %s -> %dx%d %s", h, d, spec.Width, spec.Height, spec.Encoding)
	return r.render(ctx, h, attrs.Ref, spec, w)
}

// Close ends the session, forgetting every issued handle.
func (r *Responder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry.Reset()
	return nil
}

func (r *Responder) lookup(h bip.Handle) (bip.Attributes, error) {
	attrs, ok := r.registry.Attributes(h)
	if !ok {
		return bip.Attributes{}, fmt.Errorf("%w: %s", bip.ErrUnknownHandle, h)
	}
	return attrs, nil
}

// refresh re-reads native dimensions and byte size and records them.
func (r *Responder) refresh(ctx context.Context, h bip.Handle, attrs bip.Attributes) (bip.Attributes, error) {
	size, n, err := r.deps.Renderer.Native(ctx, attrs.Ref, r.bounds)
	if err != nil {
		return attrs, renderErr(err)
	}
	attrs.Width, attrs.Height, attrs.Size = size.Width, size.Height, n
	attrs.Encoding = bip.EncodingJPEG
	if err := r.registry.Update(h, attrs); err != nil {
		return attrs, err
	}
	return attrs, nil
}

func storageErr(err error) error {
	if errors.Is(err, bip.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", bip.ErrStorageUnavailable, err)
}

func renderErr(err error) error {
	if errors.Is(err, bip.ErrRenderFailure) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", bip.ErrRenderFailure, err)
}
