package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/fitplan/internal/config"
	"github.com/claude/fitplan/internal/models"
	"github.com/claude/fitplan/internal/plansource"
	"github.com/claude/fitplan/internal/storage"
)

// catalog is a plan catalog the importer can write to.
type catalog interface {
	ImportPlan(ctx context.Context, planID string, plan *models.Plan) (*storage.ImportResult, error)
	ListPlans(ctx context.Context) ([]storage.PlanInfo, error)
	Close() error
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	file := flag.String("file", "", "path to workouts JSON file (required unless -list)")
	planID := flag.String("plan-id", "", "catalog id to store the plan under (defaults to plan.id from config)")
	target := flag.String("target", config.SourceSQLite, "catalog to write: postgres or sqlite")
	migrationsPath := flag.String("migrations", "migrations", "path to SQL migrations (postgres target)")
	list := flag.Bool("list", false, "list plans in the catalog and exit")
	dryRun := flag.Bool("dry-run", false, "validate the file without writing to the catalog")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *file == "" && !*list {
		fmt.Fprintf(os.Stderr, "Usage: fitplan-import -config config.yaml -file workouts.json [-plan-id ID] [-target postgres|sqlite] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var plan *models.Plan
	if *file != "" {
		var err error
		plan, err = (&plansource.File{Path: *file}).Load(ctx)
		if err != nil {
			log.Error("plan file rejected", "path", *file, "error", err)
			os.Exit(1)
		}
		summary := plan.Summarize()
		log.Info("plan file valid", "days", summary.TotalDays, "completed_days", summary.CompletedDays, "muscle_groups", summary.MuscleGroups)
		if *dryRun {
			log.Info("dry run: nothing written")
			return
		}
	}

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *planID == "" {
		*planID = cfg.Plan.ID
	}

	db, err := openCatalog(ctx, cfg, *target, *migrationsPath, log)
	if err != nil {
		log.Error("failed to open catalog", "target", *target, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if plan != nil {
		result, err := db.ImportPlan(ctx, *planID, plan)
		if err != nil {
			log.Error("import failed", "plan_id", *planID, "error", err)
			os.Exit(1)
		}
		log.Info("import complete", "plan_id", result.PlanID, "days", result.Days, "exercises", result.Exercises)
	}

	if *list {
		plans, err := db.ListPlans(ctx)
		if err != nil {
			log.Error("listing plans failed", "error", err)
			os.Exit(1)
		}
		for _, p := range plans {
			fmt.Printf("%s\t%d days\n", p.ID, p.Days)
		}
	}
}

func openCatalog(ctx context.Context, cfg *config.Config, target, migrationsPath string, log *slog.Logger) (catalog, error) {
	switch target {
	case config.SourcePostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, migrationsPath); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("database connected")
		return db, nil
	case config.SourceSQLite:
		db, err := storage.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info("sqlite catalog opened", "path", cfg.SQLite.Path)
		return db, nil
	default:
		return nil, fmt.Errorf("unknown target %q (want postgres or sqlite)", target)
	}
}
