package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/claude/fitplan/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is a single-file plan catalog for deployments without PostgreSQL.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS plans (
	id          TEXT PRIMARY KEY,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS plan_days (
	plan_id  TEXT    NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
	day      INTEGER NOT NULL CHECK (day >= 1),
	position INTEGER NOT NULL,
	PRIMARY KEY (plan_id, day)
);
CREATE TABLE IF NOT EXISTS plan_exercises (
	plan_id            TEXT    NOT NULL,
	day                INTEGER NOT NULL,
	exercise_id        INTEGER NOT NULL,
	position           INTEGER NOT NULL,
	name               TEXT    NOT NULL,
	thumbnail          TEXT    NOT NULL DEFAULT '',
	muscle_group       TEXT    NOT NULL DEFAULT '',
	muscle_group_image TEXT    NOT NULL DEFAULT '',
	sets               INTEGER NOT NULL DEFAULT 0,
	rep_range          TEXT    NOT NULL DEFAULT '',
	weight_amount      TEXT,
	is_completed       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (plan_id, day, exercise_id),
	FOREIGN KEY (plan_id, day) REFERENCES plan_days(plan_id, day) ON DELETE CASCADE
);`

// OpenSQLite opens (or creates) the catalog at path and ensures its schema.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite catalog: %w", err)
	}
	// Single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog tables: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the catalog.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ImportPlan replaces the plan stored under planID in a single transaction.
func (s *SQLite) ImportPlan(ctx context.Context, planID string, plan *models.Plan) (*ImportResult, error) {
	days, exercises := flatten(plan)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, planID); err != nil {
		return nil, fmt.Errorf("deleting previous plan: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO plans (id) VALUES (?)`, planID); err != nil {
		return nil, fmt.Errorf("inserting plan: %w", err)
	}

	dayStmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_days (plan_id, day, position) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing day insert: %w", err)
	}
	defer dayStmt.Close()
	for _, d := range days {
		if _, err := dayStmt.ExecContext(ctx, planID, d.Day, d.Position); err != nil {
			return nil, fmt.Errorf("inserting day %d: %w", d.Day, err)
		}
	}

	exStmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_exercises (plan_id, day, exercise_id, position,
		name, thumbnail, muscle_group, muscle_group_image, sets, rep_range, weight_amount, is_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing exercise insert: %w", err)
	}
	defer exStmt.Close()
	for _, e := range exercises {
		ex := e.Exercise
		if _, err := exStmt.ExecContext(ctx, planID, e.Day, ex.ExerciseID, e.Position,
			ex.ExerciseName, ex.ExerciseThumb, ex.MuscleGroup, ex.MuscleGroupImage,
			ex.AmountOfSets, ex.RepRange, ex.WeightAmount, ex.IsCompleted); err != nil {
			return nil, fmt.Errorf("inserting exercise %d of day %d: %w", ex.ExerciseID, e.Day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return &ImportResult{PlanID: planID, Days: len(days), Exercises: len(exercises)}, nil
}

// LoadPlan reads the plan stored under planID.
func (s *SQLite) LoadPlan(ctx context.Context, planID string) (*models.Plan, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM plans WHERE id = ?`, planID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan: %w", err)
	}

	dayRows, err := s.db.QueryContext(ctx,
		`SELECT day, position FROM plan_days WHERE plan_id = ? ORDER BY position ASC`, planID)
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

	exRows, err := s.db.QueryContext(ctx,
		`SELECT e.day, e.position, e.exercise_id, e.name, e.thumbnail, e.muscle_group,
		 e.muscle_group_image, e.sets, e.rep_range, e.weight_amount, e.is_completed
		 FROM plan_exercises e
		 JOIN plan_days d ON d.plan_id = e.plan_id AND d.day = e.day
		 WHERE e.plan_id = ?
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
func (s *SQLite) ListPlans(ctx context.Context) ([]PlanInfo, error) {
	rows, err := s.db.QueryContext(ctx,
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
