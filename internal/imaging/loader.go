package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// ImageCache provides thread-safe caching of decoded album art to avoid
// redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their cleaned file
// path. Once art is loaded, subsequent Load() calls for the same path return
// the cached copy without disk I/O.
//
// # Memory Management
//
// Cached images remain in memory until removed via Evict() or Clear(). A
// responder session serves a handful of albums, so the cache stays small;
// a Watcher keeps it consistent with the disk.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/music/art/42.jpg")
//	if err != nil {
//	    return err
//	}
//	cache.Evict("/music/art/42.jpg")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not in a registered image format
func (c *ImageCache) Load(path string) (image.Image, error) {
	key := filepath.Clean(path)

	c.mu.RLock()
	if img, ok := c.images[key]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(key)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes the image cached for path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, filepath.Clean(path))
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// SourceInfo describes album art as the responder advertises it.
type SourceInfo struct {
	// Size is the native pixel size, scaled down (never up) to fit the
	// server maximum with the aspect ratio preserved.
	Size bip.Size `json:"size"`

	// Format is the decoder that recognised the file: "jpeg", "png", ...
	Format string `json:"format"`

	// FileSizeBytes is the size of the art file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Probe loads the art at path and reports its native properties, clamped
// to the largest size the server will render.
func Probe(cache *ImageCache, path string, bounds bip.Bounds) (*SourceInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &SourceInfo{
		Size:          fitWithin(bip.Size{Width: b.Dx(), Height: b.Dy()}, bounds.Max()),
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

// CanDecode reports whether path holds an image in a registered format.
// Only the header is read.
func CanDecode(path string) bool {
	_, err := detectFormat(path)
	return err == nil
}

func detectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("image %s has no pixels", path)
	}
	return format, nil
}

// fitWithin scales s down to fit limit, keeping the aspect ratio. Sizes
// that already fit are returned unchanged.
func fitWithin(s, limit bip.Size) bip.Size {
	if s.Width <= limit.Width && s.Height <= limit.Height {
		return s
	}
	return fitInside(s, limit)
}
