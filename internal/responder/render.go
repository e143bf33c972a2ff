package responder

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// render produces spec from the art at ref and streams it into w. The
// staging file is released on every return path.
func (r *Responder) render(ctx context.Context, h bip.Handle, ref string, spec bip.RenderSpec, w io.Writer) error {
	img, err := r.deps.Renderer.RenderScaled(ctx, ref, spec)
	if err != nil {
		return renderErr(err)
	}

	path, err := r.deps.Scratch.Acquire()
	if err != nil {
		r.logger.Printf("Handle %s: scratch acquire failed: %v", h, err)
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	defer func() {
		if rerr := r.deps.Scratch.Release(path); rerr != nil {
			r.logger.Printf("Handle %s: scratch release failed: %v", h, rerr)
		}
	}()

	if err := r.compressTo(path, img, spec.Encoding); err != nil {
		r.logger.Printf("Handle %s: %v", h, err)
		return err
	}

	if spec.Encoding == bip.EncodingJPEG && r.deps.Metadata != nil {
		if err := r.deps.Metadata.RewriteDimensions(path, spec.Width, spec.Height); err != nil {
			r.logger.Printf("Warning: handle %s: could not rewrite EXIF dimensions: %v", h, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		r.logger.Printf("Handle %s: reopen failed: %v", h, err)
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	if spec.Exceeds(fi.Size()) {
		r.debugf("Handle %s: %d bytes exceeds maxsize %d", h, fi.Size(), spec.MaxSize)
		return fmt.Errorf("%w: %d bytes > %d", bip.ErrSizeExceeded, fi.Size(), spec.MaxSize)
	}

	n, err := io.Copy(w, f)
	if err != nil {
		r.logger.Printf("Handle %s: stream failed after %d bytes: %v", h, n, err)
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	r.debugf("Handle %s: sent %d bytes", h, n)
	return nil
}

func (r *Responder) compressTo(path string, img image.Image, enc bip.Encoding) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	bw := bufio.NewWriter(f)
	if err := r.deps.Renderer.Compress(img, enc, r.quality, bw); err != nil {
		f.Close()
		return renderErr(err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", bip.ErrIOFailure, err)
	}
	return nil
}
