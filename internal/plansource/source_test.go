package plansource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	fitplan "github.com/claude/fitplan"
	"github.com/claude/fitplan/internal/config"
	"github.com/claude/fitplan/internal/models"
	"github.com/claude/fitplan/internal/storage"
)

const sampleJSON = `{
  "workouts": [
    {"day": 1, "workout": [
      {"exercise_id": 10, "exercise_name": "Bench Press", "exercise_thumbnail": "t10.jpg",
       "muscle_group": "Chest", "muscle_group_image": "chest.png", "amount_of_sets": 4,
       "rep_range": "8-10", "weight_amount": "135"},
      {"exercise_id": 11, "exercise_name": "Push-Up", "exercise_thumbnail": "t11.jpg",
       "muscle_group": "Chest", "muscle_group_image": "chest.png", "amount_of_sets": 2,
       "rep_range": "AMRAP", "weight_amount": null, "is_completed": true}
    ]},
    {"day": 3, "workout": [
      {"exercise_id": 30, "exercise_name": "Plank", "muscle_group": "Abs",
       "amount_of_sets": 3, "rep_range": "60s", "is_completed": true, "extra_field": 1}
    ]},
    {"day": 4, "workout": []}
  ]
}`

// TestDecodeValid verifies field mapping, optional weight handling and derived completion.
func TestDecodeValid(t *testing.T) {
	plan, err := Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(plan.Workouts) != 3 {
		t.Fatalf("got %d days, want 3", len(plan.Workouts))
	}

	bench := plan.Workouts[0].Workout[0]
	if bench.ExerciseID != 10 || bench.ExerciseName != "Bench Press" || bench.ExerciseThumb != "t10.jpg" ||
		bench.MuscleGroupImage != "chest.png" || bench.AmountOfSets != 4 || bench.RepRange != "8-10" {
		t.Errorf("bench = %+v", bench)
	}
	if bench.WeightAmount == nil || *bench.WeightAmount != "135" {
		t.Errorf("bench weight = %v, want 135", bench.WeightAmount)
	}
	if plan.Workouts[0].Workout[1].WeightAmount != nil {
		t.Error("null weight should decode to nil")
	}
	if plan.Workouts[1].Workout[0].WeightAmount != nil {
		t.Error("missing weight should decode to nil")
	}

	want := map[int]bool{1: false, 3: true, 4: true}
	for _, d := range plan.Workouts {
		if d.Completed != want[d.Day] {
			t.Errorf("day %d Completed = %v, want %v", d.Day, d.Completed, want[d.Day])
		}
	}
}

// TestDecodeInvalid verifies malformed documents and broken invariants are rejected.
func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		invalidPlan bool
	}{
		{"malformed", `{"workouts": [`, false},
		{"wrong type", `{"workouts": [{"day": "one"}]}`, false},
		{"duplicate day", `{"workouts": [{"day": 1, "workout": []}, {"day": 1, "workout": []}]}`, true},
		{"zero day", `{"workouts": [{"day": 0, "workout": []}]}`, true},
		{"duplicate exercise", `{"workouts": [{"day": 1, "workout": [{"exercise_id": 5}, {"exercise_id": 5}]}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrInvalidPlan); got != tt.invalidPlan {
				t.Errorf("errors.Is(err, ErrInvalidPlan) = %v, want %v (err: %v)", got, tt.invalidPlan, err)
			}
		})
	}
}

// TestDecodeSameExerciseIDAcrossDays verifies exercise ids only need to be unique within a day.
func TestDecodeSameExerciseIDAcrossDays(t *testing.T) {
	doc := `{"workouts": [{"day": 1, "workout": [{"exercise_id": 5}]}, {"day": 2, "workout": [{"exercise_id": 5}]}]}`
	if _, err := Decode(strings.NewReader(doc)); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

// TestEmbeddedBundledAsset verifies the asset shipped with the binary decodes.
func TestEmbeddedBundledAsset(t *testing.T) {
	plan, err := NewEmbedded(fitplan.AssetsFS).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(plan.Workouts) == 0 {
		t.Fatal("bundled plan has no days")
	}
	if plan.Workouts[0].Day != 1 {
		t.Errorf("first bundled day = %d, want 1", plan.Workouts[0].Day)
	}
}

// TestEmbeddedMissingAsset verifies a missing asset is an error, not a panic.
func TestEmbeddedMissingAsset(t *testing.T) {
	_, err := NewEmbedded(fstest.MapFS{}).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing asset")
	}
}

// TestFileSource verifies reading from disk and the missing-file error.
func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workouts.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}
	plan, err := (&File{Path: path}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(plan.Workouts) != 3 {
		t.Errorf("got %d days, want 3", len(plan.Workouts))
	}

	if _, err := (&File{Path: filepath.Join(t.TempDir(), "nope.json")}).Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

type fakeLoader struct {
	plan *models.Plan
	err  error
	id   string
}

func (f *fakeLoader) LoadPlan(ctx context.Context, planID string) (*models.Plan, error) {
	f.id = planID
	return f.plan, f.err
}

// TestCatalogSource verifies the catalog adapter passes the plan id and validates the result.
func TestCatalogSource(t *testing.T) {
	fl := &fakeLoader{plan: &models.Plan{Workouts: []models.Day{{Day: 2}}}}
	plan, err := (&Catalog{Loader: fl, PlanID: "five-day"}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fl.id != "five-day" {
		t.Errorf("plan id = %q, want five-day", fl.id)
	}
	if !plan.Workouts[0].Completed {
		t.Error("empty day should be derived as completed")
	}

	fl = &fakeLoader{err: storage.ErrPlanNotFound}
	if _, err := (&Catalog{Loader: fl, PlanID: "x"}).Load(context.Background()); !errors.Is(err, storage.ErrPlanNotFound) {
		t.Errorf("err = %v, want ErrPlanNotFound", err)
	}

	fl = &fakeLoader{plan: &models.Plan{Workouts: []models.Day{{Day: 1}, {Day: 1}}}}
	if _, err := (&Catalog{Loader: fl, PlanID: "x"}).Load(context.Background()); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("err = %v, want ErrInvalidPlan", err)
	}
}

// TestCatalogSourceNilPlan verifies a loader returning neither plan nor error is rejected.
func TestCatalogSourceNilPlan(t *testing.T) {
	fl := &fakeLoader{}
	plan, err := (&Catalog{Loader: fl, PlanID: "empty"}).Load(context.Background())
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("err = %v, want ErrInvalidPlan", err)
	}
	if plan != nil {
		t.Errorf("plan = %+v, want nil", plan)
	}
	if err := Validate(nil); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("Validate(nil) = %v, want ErrInvalidPlan", err)
	}
}

// TestStaticReturnsCopies verifies each Static load is independent of the template.
func TestStaticReturnsCopies(t *testing.T) {
	tmpl := &models.Plan{Workouts: []models.Day{{Day: 1, Workout: []models.Exercise{{ExerciseID: 1}}}}}
	s := &Static{Plan: tmpl}
	p, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p.Workouts[0].Workout[0].IsCompleted = true
	if tmpl.Workouts[0].Workout[0].IsCompleted {
		t.Error("Static leaked its template")
	}

	boom := errors.New("boom")
	if _, err := (&Static{Err: boom}).Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

// TestOpenSelectsSource verifies Open maps each configured source kind.
func TestOpenSelectsSource(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	src, closer, err := Open(ctx, cfg, fitplan.AssetsFS)
	if err != nil {
		t.Fatalf("Open embedded: %v", err)
	}
	closer.Close()
	if _, ok := src.(*Embedded); !ok {
		t.Errorf("embedded source type = %T", src)
	}

	cfg.Plan = config.PlanConfig{Source: config.SourceFile, Path: "/tmp/x.json"}
	src, closer, err = Open(ctx, cfg, fitplan.AssetsFS)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	closer.Close()
	if f, ok := src.(*File); !ok || f.Path != "/tmp/x.json" {
		t.Errorf("file source = %#v", src)
	}

	cfg.Plan = config.PlanConfig{Source: config.SourceSQLite, ID: "default"}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "fitplan.db")
	src, closer, err = Open(ctx, cfg, fitplan.AssetsFS)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer closer.Close()
	if _, err := src.Load(ctx); !errors.Is(err, storage.ErrPlanNotFound) {
		t.Errorf("empty sqlite catalog err = %v, want ErrPlanNotFound", err)
	}

	cfg.Plan = config.PlanConfig{Source: "s3"}
	if _, _, err := Open(ctx, cfg, fitplan.AssetsFS); err == nil {
		t.Error("expected error for unknown source")
	}
}
