// Package catalog is the media database the responder resolves track
// titles and album art through. It is backed by SQLite and migrated with
// golang-migrate from embedded SQL files.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Album is one row of the albums table.
type Album struct {
	ID      bip.AssetID
	Name    string
	ArtPath string
}

// ArtChecker reports whether the file at path is usable album art.
type ArtChecker func(path string) bool

// Option configures Open.
type Option func(*Catalog)

// WithArtChecker replaces the default existence check used by
// HasRenderableArt.
func WithArtChecker(check ArtChecker) Option {
	return func(c *Catalog) { c.check = check }
}

// Catalog is a SQLite media catalog.
type Catalog struct {
	db    *sql.DB
	check ArtChecker
}

// Open opens (creating if needed) the catalog at path and brings its schema
// up to date. An empty path opens a private in-memory catalog.
func Open(path string, opts ...Option) (*Catalog, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	// One connection keeps an in-memory database alive and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	c := &Catalog{db: db, check: fileExists}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	// m.Close would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// AddAlbum inserts an album and returns its asset id.
func (c *Catalog) AddAlbum(ctx context.Context, name, artPath string) (bip.AssetID, error) {
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO albums (name, art_path) VALUES (?, ?)`, name, artPath)
	if err != nil {
		return 0, fmt.Errorf("failed to add album %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to add album %q: %w", name, err)
	}
	return bip.AssetID(id), nil
}

// AddTrack inserts a music track on album.
func (c *Catalog) AddTrack(ctx context.Context, title string, album bip.AssetID) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO tracks (title, album_id, is_music) VALUES (?, ?, TRUE)`, title, int64(album))
	if err != nil {
		return fmt.Errorf("failed to add track %q: %w", title, err)
	}
	return nil
}

// Albums lists every album, ordered by id.
func (c *Catalog) Albums(ctx context.Context) ([]Album, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, art_path FROM albums ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	var out []Album
	for rows.Next() {
		var a Album
		var id int64
		if err := rows.Scan(&id, &a.Name, &a.ArtPath); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		a.ID = bip.AssetID(id)
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindAssetByTitle returns the album of the first music track titled title.
func (c *Catalog) FindAssetByTitle(ctx context.Context, title string) (bip.AssetID, error) {
	var id int64
	err := c.db.QueryRowContext(ctx,
		`SELECT album_id FROM tracks WHERE title = ? AND is_music ORDER BY id LIMIT 1`, title).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: no track titled %q", bip.ErrAssetNotFound, title)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up %q: %w", title, err)
	}
	return bip.AssetID(id), nil
}

// Locate returns the art path recorded for an album.
func (c *Catalog) Locate(ctx context.Context, id bip.AssetID) (string, error) {
	var path string
	err := c.db.QueryRowContext(ctx,
		`SELECT art_path FROM albums WHERE id = ?`, int64(id)).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: album %d", bip.ErrAssetNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to locate album %d: %w", id, err)
	}
	if path == "" {
		return "", fmt.Errorf("%w: album %d has no art", bip.ErrAssetNotFound, id)
	}
	return path, nil
}

// HasRenderableArt reports whether the album has art the renderer can use.
func (c *Catalog) HasRenderableArt(ctx context.Context, id bip.AssetID) bool {
	path, err := c.Locate(ctx, id)
	if err != nil {
		return false
	}
	return c.check(path)
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
