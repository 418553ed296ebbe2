package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/fitplan/internal/models"
	"github.com/jackc/pgx/v5"
)

// ImportResult holds the outcome of writing a plan into a catalog.
type ImportResult struct {
	PlanID    string `json:"plan_id"`
	Days      int    `json:"days"`
	Exercises int    `json:"exercises"`
}

// PlanInfo lists one stored plan.
type PlanInfo struct {
	ID   string `json:"id"`
	Days int    `json:"days"`
}

// dayRow and exerciseRow are the flat catalog rows a plan is rebuilt from.
type dayRow struct {
	Day      int
	Position int
}

type exerciseRow struct {
	Day      int
	Position int
	Exercise models.Exercise
}

// flatten turns a plan into ordered catalog rows.
func flatten(plan *models.Plan) ([]dayRow, []exerciseRow) {
	days := make([]dayRow, 0, len(plan.Workouts))
	var exercises []exerciseRow
	for i, d := range plan.Workouts {
		days = append(days, dayRow{Day: d.Day, Position: i})
		for j, ex := range d.Workout {
			exercises = append(exercises, exerciseRow{Day: d.Day, Position: j, Exercise: ex})
		}
	}
	return days, exercises
}

// assemble rebuilds a plan from rows. Days must be sorted by position and
// exercises by (day position, position).
func assemble(days []dayRow, exercises []exerciseRow) *models.Plan {
	plan := &models.Plan{Workouts: make([]models.Day, 0, len(days))}
	index := make(map[int]int, len(days))
	for _, d := range days {
		index[d.Day] = len(plan.Workouts)
		plan.Workouts = append(plan.Workouts, models.Day{Day: d.Day, Workout: []models.Exercise{}})
	}
	for _, e := range exercises {
		i, ok := index[e.Day]
		if !ok {
			continue
		}
		plan.Workouts[i].Workout = append(plan.Workouts[i].Workout, e.Exercise)
	}
	plan.RefreshCompletion()
	return plan
}

// ImportPlan replaces the plan stored under planID in a single transaction.
func (db *DB) ImportPlan(ctx context.Context, planID string, plan *models.Plan) (*ImportResult, error) {
	days, exercises := flatten(plan)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM plans WHERE id = $1`, planID); err != nil {
		return nil, fmt.Errorf("deleting previous plan: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO plans (id) VALUES ($1)`, planID); err != nil {
		return nil, fmt.Errorf("inserting plan: %w", err)
	}

	if len(days) > 0 {
		query := `INSERT INTO plan_days (plan_id, day, position) VALUES `
		args := make([]any, 0, len(days)*3)
		valueStrings := make([]string, 0, len(days))
		for i, d := range days {
			base := i * 3
			valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
			args = append(args, planID, d.Day, d.Position)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return nil, fmt.Errorf("inserting plan days: %w", err)
		}
	}

	if len(exercises) > 0 {
		query := `INSERT INTO plan_exercises (plan_id, day, exercise_id, position, name, thumbnail,
			muscle_group, muscle_group_image, sets, rep_range, weight_amount, is_completed) VALUES `
		args := make([]any, 0, len(exercises)*12)
		valueStrings := make([]string, 0, len(exercises))
		for i, e := range exercises {
			base := i * 12
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6,
				base+7, base+8, base+9, base+10, base+11, base+12,
			))
			ex := e.Exercise
			args = append(args, planID, e.Day, ex.ExerciseID, e.Position, ex.ExerciseName, ex.ExerciseThumb,
				ex.MuscleGroup, ex.MuscleGroupImage, ex.AmountOfSets, ex.RepRange, ex.WeightAmount, ex.IsCompleted)
		}
		if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
			return nil, fmt.Errorf("inserting plan exercises: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return &ImportResult{PlanID: planID, Days: len(days), Exercises: len(exercises)}, nil
}

// LoadPlan reads the plan stored under planID.
func (db *DB) LoadPlan(ctx context.Context, planID string) (*models.Plan, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `SELECT true FROM plans WHERE id = $1`, planID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	dayRows, err := db.Pool.Query(ctx,
		`SELECT day, position FROM plan_days WHERE plan_id = $1 ORDER BY position ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan days: %w", err)
	}
	defer dayRows.Close()

	var days []dayRow
	for dayRows.Next() {
		var d dayRow
		if err := dayRows.Scan(&d.Day, &d.Position); err != nil {
			return nil, fmt.Errorf("scanning plan day: %w", err)
		}
		days = append(days, d)
	}
	if err := dayRows.Err(); err != nil {
		return nil, err
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT e.day, e.position, e.exercise_id, e.name, e.thumbnail, e.muscle_group,
		 e.muscle_group_image, e.sets, e.rep_range, e.weight_amount, e.is_completed
		 FROM plan_exercises e
		 JOIN plan_days d ON d.plan_id = e.plan_id AND d.day = e.day
		 WHERE e.plan_id = $1
		 ORDER BY d.position ASC, e.position ASC`, planID)
	if err != nil {
		return nil, fmt.Errorf("querying plan exercises: %w", err)
	}
	defer exRows.Close()

	exercises, err := scanExerciseRows(exRows)
	if err != nil {
		return nil, err
	}
	return assemble(days, exercises), nil
}

// ListPlans returns the stored plan ids with their day counts.
func (db *DB) ListPlans(ctx context.Context) ([]PlanInfo, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT p.id, COUNT(d.day)
		 FROM plans p LEFT JOIN plan_days d ON d.plan_id = p.id
		 GROUP BY p.id ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var result []PlanInfo
	for rows.Next() {
		var p PlanInfo
		if err := rows.Scan(&p.ID, &p.Days); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanExerciseRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]exerciseRow, error) {
	var result []exerciseRow
	for rows.Next() {
		var e exerciseRow
		ex := &e.Exercise
		if err := rows.Scan(&e.Day, &e.Position, &ex.ExerciseID, &ex.ExerciseName, &ex.ExerciseThumb,
			&ex.MuscleGroup, &ex.MuscleGroupImage, &ex.AmountOfSets, &ex.RepRange,
			&ex.WeightAmount, &ex.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning plan exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
