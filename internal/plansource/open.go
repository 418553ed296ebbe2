package plansource

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/claude/fitplan/internal/config"
	"github.com/claude/fitplan/internal/storage"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the source selected by cfg.Plan. The returned closer releases
// any catalog handle and must be called once the source is no longer used.
func Open(ctx context.Context, cfg *config.Config, assets fs.FS) (Source, io.Closer, error) {
	switch cfg.Plan.Source {
	case config.SourceEmbedded, "":
		return NewEmbedded(assets), nopCloser{}, nil
	case config.SourceFile:
		return &File{Path: cfg.Plan.Path}, nopCloser{}, nil
	case config.SourcePostgres:
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting plan catalog: %w", err)
		}
		return &Catalog{Loader: db, PlanID: cfg.Plan.ID}, db, nil
	case config.SourceSQLite:
		db, err := storage.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening plan catalog: %w", err)
		}
		return &Catalog{Loader: db, PlanID: cfg.Plan.ID}, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown plan source %q", cfg.Plan.Source)
	}
}
