package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/bip-coverart/internal/catalog"
	"github.com/ironsheep/bip-coverart/internal/config"
	"github.com/ironsheep/bip-coverart/internal/handles"
	"github.com/ironsheep/bip-coverart/internal/imaging"
	"github.com/ironsheep/bip-coverart/internal/responder"
	"github.com/ironsheep/bip-coverart/internal/scratch"
)

// session holds everything wired for one responder session.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	catalog *catalog.Catalog
	render  *imaging.Renderer
	resp    *responder.Responder
}

func newLogger(cfg *config.Config) *log.Logger {
	// Logs go to stderr; stdout is for MCP protocol and image output.
	return log.New(os.Stderr, "["+cfg.SessionTag+"] ", log.Ldate|log.Ltime|log.Lshortfile)
}

// openSession wires catalog, renderer, scratch area and responder.
func openSession(cfg *config.Config) (*session, error) {
	logger := newLogger(cfg)

	policy, err := handles.ParseCollisionPolicy(cfg.HandleCollision)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(cfg.CatalogPath, catalog.WithArtChecker(imaging.CanDecode))
	if err != nil {
		return nil, err
	}

	cache := imaging.NewImageCache()
	renderer, err := imaging.NewRenderer(cache, imaging.RendererOptions{
		Resampler: cfg.Resampler,
		FillColor: cfg.FillColor,
	})
	if err != nil {
		cat.Close()
		return nil, err
	}

	sc := scratch.New(cfg.ScratchDir, cfg.SessionTag, logger)
	if err := sc.Ready(); err != nil {
		logger.Printf("Warning: %v", err)
	} else if n, err := sc.Sweep(); err != nil {
		logger.Printf("Warning: %v", err)
	} else if n > 0 && cfg.Debug() {
		logger.Printf("Removed %d stale staging files from %s", n, sc.Root())
	}

	resp := responder.New(responder.Deps{
		Catalog:  cat,
		Renderer: renderer,
		Scratch:  sc,
		Metadata: imaging.ExifWriter{},
	}, responder.Options{
		Bounds:    cfg.Bounds,
		Thumbnail: cfg.Thumbnail.Size(),
		Quality:   cfg.CompressionQuality,
		Registry:  handles.New(handles.WithCollisionPolicy(policy)),
		Logger:    logger,
		Debug:     cfg.Debug(),
	})

	if cfg.Debug() {
		logger.Printf("Session %s: catalog %s, scratch %s, bounds %s", cfg.SessionTag, cfg.CatalogPath, sc.Root(), cfg.Bounds.Range())
	}
	return &session{cfg: cfg, logger: logger, catalog: cat, render: renderer, resp: resp}, nil
}

// watchArt starts evicting cached art when album files change. It returns
// once the watcher is running; the watcher stops with ctx.
func (s *session) watchArt(ctx context.Context) error {
	w, err := imaging.NewWatcher(s.render.Cache(), s.logger, func(path string) {
		if s.cfg.Debug() {
			s.logger.Printf("Art changed: %s", path)
		}
	})
	if err != nil {
		return err
	}

	albums, err := s.catalog.Albums(ctx)
	if err != nil {
		w.Close()
		return err
	}
	for _, a := range albums {
		if a.ArtPath == "" {
			continue
		}
		if err := w.Watch(a.ArtPath); err != nil {
			s.logger.Printf("Warning: %v", err)
		}
	}

	go func() {
		defer w.Close()
		if err := w.Run(ctx); err != nil {
			s.logger.Printf("Watcher stopped: %v", err)
		}
	}()
	return nil
}

func (s *session) Close() {
	if err := s.resp.Close(); err != nil {
		s.logger.Printf("Warning: %v", err)
	}
	if err := s.catalog.Close(); err != nil {
		s.logger.Printf("Warning: %v", err)
	}
}

func withSession(fn func(s *session) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer s.Close()
	return fn(s)
}
