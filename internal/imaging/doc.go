// Package imaging is the render pipeline behind the cover-art responder.
//
// It loads album art from disk, scales it to a negotiated size, compresses
// it as JPEG or PNG, and stamps the new pixel dimensions into an EXIF
// header. Decoded sources are cached per path; a Watcher evicts entries when
// the art on disk changes.
//
// # Supported Sources
//
// PNG, JPEG and GIF through the standard library, plus WebP, BMP and TIFF
// through golang.org/x/image.
//
// # Transformations
//
// The target size is always honoured exactly. The transformation decides
// how the source aspect ratio is reconciled with it:
//   - stretch (and no transformation): resize to exactly W*H, distorting
//     if the aspect ratios differ
//   - crop: scale to cover W*H, then cut the centred W*H window
//   - fill: scale to fit inside W*H, then letterbox onto the fill colour
//
// # Resamplers
//
// Scaling uses github.com/disintegration/imaging filters by default
// (lanczos, catmullrom, linear, box, nearest). The "bild" resampler scales
// with github.com/anthonynsimon/bild instead.
//
// # Thread Safety
//
// ImageCache and Renderer are safe for concurrent use. Decoded images are
// shared between callers and must not be modified.
package imaging
