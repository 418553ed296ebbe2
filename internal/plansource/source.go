package plansource

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/claude/fitplan/internal/models"
)

// Source produces a plan or fails.
type Source interface {
	Load(ctx context.Context) (*models.Plan, error)
}

// AssetName is the bundled plan document inside the assets filesystem.
const AssetName = "assets/workouts.json"

// Embedded reads the plan bundled with the binary.
type Embedded struct {
	FS   fs.FS
	Name string
}

// NewEmbedded returns a source over the bundled asset in fsys.
func NewEmbedded(fsys fs.FS) *Embedded {
	return &Embedded{FS: fsys, Name: AssetName}
}

// Load implements Source.
func (e *Embedded) Load(ctx context.Context) (*models.Plan, error) {
	f, err := e.FS.Open(e.Name)
	if err != nil {
		return nil, fmt.Errorf("opening asset %s: %w", e.Name, err)
	}
	defer f.Close()
	return Decode(f)
}

// File reads the plan from a JSON file on disk.
type File struct {
	Path string
}

// Load implements Source.
func (s *File) Load(ctx context.Context) (*models.Plan, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening plan file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// PlanLoader is a catalog that stores plans by id.
type PlanLoader interface {
	LoadPlan(ctx context.Context, planID string) (*models.Plan, error)
}

// Catalog reads one plan out of a database catalog.
type Catalog struct {
	Loader PlanLoader
	PlanID string
}

// Load implements Source.
func (c *Catalog) Load(ctx context.Context) (*models.Plan, error) {
	plan, err := c.Loader.LoadPlan(ctx, c.PlanID)
	if err != nil {
		return nil, fmt.Errorf("loading plan %q: %w", c.PlanID, err)
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan %q", ErrInvalidPlan, c.PlanID)
	}
	if err := Validate(plan); err != nil {
		return nil, err
	}
	plan.RefreshCompletion()
	return plan, nil
}

// Static serves a fixed plan, or a fixed error. Each Load returns a fresh copy.
type Static struct {
	Plan *models.Plan
	Err  error
}

// Load implements Source.
func (s *Static) Load(ctx context.Context) (*models.Plan, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Plan == nil {
		return nil, fmt.Errorf("%w: no plan", ErrInvalidPlan)
	}
	p := s.Plan.Clone()
	p.RefreshCompletion()
	return p, nil
}
