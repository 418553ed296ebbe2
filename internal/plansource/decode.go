package plansource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/claude/fitplan/internal/models"
)

// ErrInvalidPlan is returned when a document decodes but breaks a plan invariant.
var ErrInvalidPlan = errors.New("invalid plan")

// Decode reads a workouts document and validates it. Day completion flags are
// derived from the exercises after decoding.
func Decode(r io.Reader) (*models.Plan, error) {
	var plan models.Plan
	if err := json.NewDecoder(r).Decode(&plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if err := Validate(&plan); err != nil {
		return nil, err
	}
	plan.RefreshCompletion()
	return &plan, nil
}

// Validate checks that day numbers are positive and unique, and that exercise
// ids are unique within their day.
func Validate(plan *models.Plan) error {
	if plan == nil {
		return fmt.Errorf("%w: no plan", ErrInvalidPlan)
	}
	days := make(map[int]bool, len(plan.Workouts))
	for _, d := range plan.Workouts {
		if d.Day < 1 {
			return fmt.Errorf("%w: day number %d must be >= 1", ErrInvalidPlan, d.Day)
		}
		if days[d.Day] {
			return fmt.Errorf("%w: duplicate day %d", ErrInvalidPlan, d.Day)
		}
		days[d.Day] = true

		ids := make(map[int]bool, len(d.Workout))
		for _, ex := range d.Workout {
			if ids[ex.ExerciseID] {
				return fmt.Errorf("%w: duplicate exercise %d in day %d", ErrInvalidPlan, ex.ExerciseID, d.Day)
			}
			ids[ex.ExerciseID] = true
		}
	}
	return nil
}
