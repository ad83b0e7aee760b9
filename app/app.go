// Package app assembles the catalog, media store, marker, upstream client
// and ingestion job from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/sndcds/redrovr/catalog"
	"github.com/sndcds/redrovr/ingest"
	"github.com/sndcds/redrovr/logging"
	"github.com/sndcds/redrovr/marker"
	"github.com/sndcds/redrovr/media"
	"github.com/sndcds/redrovr/rover"
)

type App struct {
	Config  Config
	Catalog catalog.Catalog
	Media   media.Store
	Marker  marker.Store
	Rover   *rover.Client
	Job     *ingest.Job
}

// Open connects every backend named by cfg. On error whatever was already
// opened is closed again.
func Open(ctx context.Context, cfg Config) (*App, error) {
	cat, err := OpenCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := openMedia(ctx, cfg)
	if err != nil {
		cat.Close()
		return nil, err
	}

	var mark marker.Store = cat
	if cfg.MarkerDriver == "file" {
		mark = marker.NewFile(cfg.MarkerPath)
	}

	client := rover.NewClient(cfg.RoverOptions())

	a := &App{
		Config:  cfg,
		Catalog: cat,
		Media:   store,
		Marker:  mark,
		Rover:   client,
		Job:     ingest.NewJob(client, cat, store, mark, cfg.JobConfig()),
	}
	logging.Info("application initialized", "catalog", cfg.CatalogDriver, "media", cfg.MediaDriver, "marker", cfg.MarkerDriver)
	return a, nil
}

// OpenCatalog opens the configured catalog backend. Both backends create
// their tables on open.
func OpenCatalog(ctx context.Context, cfg Config) (catalog.Catalog, error) {
	switch cfg.CatalogDriver {
	case "postgres":
		pg, err := catalog.OpenPostgres(ctx, cfg.PostgresConfig())
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "sqlite":
		lite, err := catalog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
	}
}

func openMedia(ctx context.Context, cfg Config) (media.Store, error) {
	switch cfg.MediaDriver {
	case "s3":
		bucket, err := media.NewS3(ctx, cfg.S3Config())
		if err != nil {
			return nil, err
		}
		return bucket, nil
	case "fs":
		dir, err := media.NewDir(cfg.MediaDir)
		if err != nil {
			return nil, err
		}
		return dir, nil
	default:
		return nil, fmt.Errorf("unknown media driver %q", cfg.MediaDriver)
	}
}

func (a *App) Close() {
	if a.Catalog != nil {
		if err := a.Catalog.Close(); err != nil {
			logging.Warn("failed to close catalog", "err", err)
		}
	}
}
