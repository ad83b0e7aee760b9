// Package ingest pulls the newest rover photos into the catalog.
package ingest

import (
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/imgproc"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/marker"
	"github.com/sndcds/redrovr/media"
	"github.com/sndcds/redrovr/rover"
)

const (
	DefaultCooldown    = time.Hour
	DefaultWidth       = 800
	DefaultQuality     = 90
	DefaultRecentLimit = 25

	storedMimeType = "image/jpeg"
)

// Source is the upstream photo API.
type Source interface {
	MaxSol(ctx context.Context) (int, error)
	Photos(ctx context.Context, sol int) ([]rover.Photo, error)
	Download(ctx context.Context, imageURL string) ([]byte, error)
}

// Catalog is the part of catalog.Catalog the job writes to.
type Catalog interface {
	HasSourceURL(ctx context.Context, sourceURL string) (bool, error)
	HasPath(ctx context.Context, path string) (bool, error)
	Insert(ctx context.Context, p *catalog.Photo) error
	Recent(ctx context.Context, n int) ([]catalog.Photo, error)
}

type Config struct {
	Cooldown    time.Duration
	Width       int
	Quality     int
	RecentLimit int
}

func (c Config) withDefaults() Config {
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Quality <= 0 || c.Quality > 100 {
		c.Quality = DefaultQuality
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = DefaultRecentLimit
	}
	return c
}

// Stats counts what happened to the entries of one listing.
type Stats struct {
	Sol              int `json:"sol"`
	Listed           int `json:"listed"`
	Inserted         int `json:"inserted"`
	SkippedCamera    int `json:"skippedCamera"`
	SkippedDuplicate int `json:"skippedDuplicate"`
	SkippedExtension int `json:"skippedExtension"`
	Failed           int `json:"failed"`
}

type Result struct {
	Skipped bool            `json:"skipped"`
	Photos  []catalog.Photo `json:"photos,omitempty"`
	Stats   Stats           `json:"stats"`
}

// Job is the throttled ingestion run. It is safe for concurrent use; two
// triggers racing inside one process cannot both pass the cooldown check.
type Job struct {
	source  Source
	catalog Catalog
	media   media.Store
	marker  marker.Store
	cfg     Config

	mu sync.Mutex
}

func NewJob(source Source, cat Catalog, store media.Store, mark marker.Store, cfg Config) *Job {
	return &Job{
		source:  source,
		catalog: cat,
		media:   store,
		marker:  mark,
		cfg:     cfg.withDefaults(),
	}
}

// Run ingests the photos of the current max sol unless the previous run is
// less than the cooldown ago. A skipped run makes no external calls and no
// catalog writes.
func (j *Job) Run(ctx context.Context, now time.Time) (Result, error) {
	return j.run(ctx, now, false)
}

// Force runs regardless of the cooldown. The marker is still updated.
func (j *Job) Force(ctx context.Context, now time.Time) (Result, error) {
	return j.run(ctx, now, true)
}

func (j *Job) run(ctx context.Context, now time.Time, force bool) (Result, error) {
	if !j.claim(ctx, now, force) {
		logging.Debug("ingestion skipped, cooldown active", "cooldown", j.cfg.Cooldown)
		return Result{Skipped: true}, nil
	}

	var stats Stats

	maxSol, err := j.source.MaxSol(ctx)
	if err != nil {
		return Result{}, err
	}
	stats.Sol = maxSol

	entries, err := j.source.Photos(ctx, maxSol)
	if err != nil {
		return Result{}, err
	}
	stats.Listed = len(entries)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return Result{Stats: stats}, ctx.Err()
		}
		j.ingestOne(ctx, entry, &stats)
	}

	logging.Info("ingestion finished",
		"sol", stats.Sol,
		"listed", stats.Listed,
		"inserted", stats.Inserted,
		"skipped_camera", stats.SkippedCamera,
		"skipped_duplicate", stats.SkippedDuplicate,
		"skipped_extension", stats.SkippedExtension,
		"failed", stats.Failed,
	)

	photos, err := j.catalog.Recent(ctx, j.cfg.RecentLimit)
	if err != nil {
		return Result{Stats: stats}, fmt.Errorf("load recent photos: %w", err)
	}
	return Result{Photos: photos, Stats: stats}, nil
}

// claim checks the cooldown and stamps the marker before any external call,
// so a run that dies halfway still holds off the next trigger. Marker
// failures are logged: an unreadable marker counts as never ran, an
// unwritable one means the next trigger runs again.
func (j *Job) claim(ctx context.Context, now time.Time, force bool) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	last, err := j.marker.LastRun(ctx)
	if err != nil {
		logging.Warn("failed to read run marker", "err", err)
		last = time.Time{}
	}
	if !force && !last.IsZero() && now.Sub(last) < j.cfg.Cooldown {
		return false
	}

	if err := j.marker.SetLastRun(ctx, now); err != nil {
		logging.Warn("failed to write run marker", "err", err)
	}
	return true
}

func (j *Job) ingestOne(ctx context.Context, entry rover.Photo, stats *Stats) {
	photo, ext, reason := j.candidate(ctx, entry)
	switch reason {
	case skipNone:
	case skipCamera:
		stats.SkippedCamera++
		return
	case skipDuplicate:
		stats.SkippedDuplicate++
		return
	case skipExtension:
		stats.SkippedExtension++
		return
	case skipFailed:
		stats.Failed++
		return
	}

	err := j.store(ctx, photo, ext)
	switch {
	case err == nil:
		stats.Inserted++
		logging.Debug("photo ingested", "id", photo.ID, "url", photo.SourceURL, "path", photo.Path)
	case errors.Is(err, catalog.ErrDuplicate):
		stats.SkippedDuplicate++
	default:
		stats.Failed++
		logging.Warn("skipping photo", "err", err)
	}
}

type skipReason int

const (
	skipNone skipReason = iota
	skipCamera
	skipDuplicate
	skipExtension
	skipFailed
)

var acceptedExtensions = map[string]bool{"jpg": true, "jpeg": true}

// candidate applies the cheap filters and builds the record to insert.
func (j *Job) candidate(ctx context.Context, entry rover.Photo) (*catalog.Photo, string, skipReason) {
	camera, ok := rover.ParseCamera(entry.Camera.Name)
	if !ok {
		return nil, "", skipCamera
	}

	exists, err := j.catalog.HasSourceURL(ctx, entry.ImgSrc)
	if err != nil {
		logging.Warn("skipping photo", "err", &catalog.ItemError{URL: entry.ImgSrc, Stage: "dedup", Err: err})
		return nil, "", skipFailed
	}
	if exists {
		return nil, "", skipDuplicate
	}

	u, err := url.Parse(entry.ImgSrc)
	if err != nil || u.Path == "" {
		return nil, "", skipExtension
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if !acceptedExtensions[ext] {
		return nil, "", skipExtension
	}

	earthDate, err := catalog.ParseDate(strings.TrimSpace(entry.EarthDate))
	if err != nil {
		logging.Warn("skipping photo", "err", &catalog.ItemError{URL: entry.ImgSrc, Stage: "parse", Err: err})
		return nil, "", skipFailed
	}

	title := Title(u.Path)
	key, err := media.ShardPath(title, ext)
	if err != nil {
		logging.Warn("skipping photo", "err", &catalog.ItemError{URL: entry.ImgSrc, Stage: "path", Err: err})
		return nil, "", skipFailed
	}

	// Mirrors on other hosts share the URL path, and with it the key.
	taken, err := j.catalog.HasPath(ctx, key)
	if err != nil {
		logging.Warn("skipping photo", "err", &catalog.ItemError{URL: entry.ImgSrc, Stage: "dedup", Err: err})
		return nil, "", skipFailed
	}
	if taken {
		return nil, "", skipDuplicate
	}

	sol := entry.Sol
	photo := &catalog.Photo{
		Camera:    string(camera),
		EarthDate: earthDate,
		Sol:       &sol,
		Path:      key,
		Title:     title,
		MimeType:  storedMimeType,
		SourceURL: entry.ImgSrc,
	}
	if err := photo.Validate(); err != nil {
		logging.Warn("skipping photo", "err", &catalog.ItemError{URL: entry.ImgSrc, Stage: "validate", Err: err})
		return nil, "", skipFailed
	}
	return photo, ext, skipNone
}

// store downloads, resamples, writes and inserts one photo.
func (j *Job) store(ctx context.Context, photo *catalog.Photo, ext string) error {
	fail := func(stage string, err error) error {
		return &catalog.ItemError{URL: photo.SourceURL, Stage: stage, Err: err}
	}

	data, err := j.source.Download(ctx, photo.SourceURL)
	if err != nil {
		return fail("download", err)
	}

	img, _, err := imgproc.Decode(data)
	if err != nil {
		return fail("decode", err)
	}
	photo.Exif = imgproc.Exif(data)

	resampled, err := imgproc.EncodeJPEG(imgproc.ResizeToWidth(img, j.cfg.Width), j.cfg.Quality)
	if err != nil {
		return fail("encode", err)
	}

	if err := j.media.Put(ctx, photo.Path, resampled, storedMimeType); err != nil {
		return fail("write", err)
	}

	if err := j.catalog.Insert(ctx, photo); err != nil {
		// A duplicate shares its media key with the existing row, so the
		// object just written belongs to that row and must stay.
		if !errors.Is(err, catalog.ErrDuplicate) {
			if derr := j.media.Delete(ctx, photo.Path); derr != nil {
				logging.Warn("failed to remove orphaned media", "path", photo.Path, "err", derr)
			}
		}
		return fail("insert", err)
	}
	return nil
}

// Title derives the content label of a remote photo from its URL path.
func Title(remotePath string) string {
	return digest.FromString(remotePath).Encoded()
}
