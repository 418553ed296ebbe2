package models

import (
	"fmt"
	"strings"
)

// DefaultHeadline is shown for a day that has no exercises.
const DefaultHeadline = "Full Body"

// Plan is the root of the workouts document: an ordered list of days.
type Plan struct {
	Workouts []Day `json:"workouts"`
}

// Day is one numbered day of the plan.
type Day struct {
	Day     int        `json:"day"`
	Workout []Exercise `json:"workout"`

	// Computed (not read from input)
	Completed bool `json:"is_completed"`
}

// Exercise is a single prescribed movement within a day.
type Exercise struct {
	ExerciseID       int     `json:"exercise_id"`
	ExerciseName     string  `json:"exercise_name"`
	ExerciseThumb    string  `json:"exercise_thumbnail"`
	MuscleGroup      string  `json:"muscle_group"`
	MuscleGroupImage string  `json:"muscle_group_image"`
	AmountOfSets     int     `json:"amount_of_sets"`
	RepRange         string  `json:"rep_range"`
	WeightAmount     *string `json:"weight_amount"` // nil when absent or null
	IsCompleted      bool    `json:"is_completed"`
}

// Prescription renders the set/rep/weight line, e.g. "3 sets x 8-10 reps x 100 lb".
func (e Exercise) Prescription() string {
	s := fmt.Sprintf("%d sets x %s reps", e.AmountOfSets, e.RepRange)
	if e.WeightAmount != nil {
		s += " x " + *e.WeightAmount + " lb"
	}
	return s
}

// AllCompleted reports whether every exercise in the day is completed.
// A day with no exercises counts as completed.
func (d Day) AllCompleted() bool {
	for _, ex := range d.Workout {
		if !ex.IsCompleted {
			return false
		}
	}
	return true
}

// Exercise returns the index of the exercise with the given id, or -1.
func (d Day) Exercise(exerciseID int) int {
	for i, ex := range d.Workout {
		if ex.ExerciseID == exerciseID {
			return i
		}
	}
	return -1
}

// FilterByMuscle returns the exercises whose muscle group matches group
// (case-insensitive), in plan order. An empty group returns all exercises.
func (d Day) FilterByMuscle(group string) []Exercise {
	group = strings.TrimSpace(group)
	if group == "" {
		return d.Workout
	}
	var out []Exercise
	for _, ex := range d.Workout {
		if strings.EqualFold(ex.MuscleGroup, group) {
			out = append(out, ex)
		}
	}
	return out
}

// Clone returns a deep copy of the day.
func (d Day) Clone() Day {
	c := d
	c.Workout = make([]Exercise, len(d.Workout))
	for i, ex := range d.Workout {
		if ex.WeightAmount != nil {
			w := *ex.WeightAmount
			ex.WeightAmount = &w
		}
		c.Workout[i] = ex
	}
	return c
}

// Find returns the index of the day with the given number, or -1.
func (p *Plan) Find(day int) int {
	if p == nil {
		return -1
	}
	for i, d := range p.Workouts {
		if d.Day == day {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the plan. A nil plan clones to nil.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := &Plan{Workouts: make([]Day, len(p.Workouts))}
	for i, d := range p.Workouts {
		c.Workouts[i] = d.Clone()
	}
	return c
}

// RefreshCompletion recomputes every day's Completed flag from its exercises
// and returns the completion index (day number -> completed).
func (p *Plan) RefreshCompletion() map[int]bool {
	index := make(map[int]bool)
	if p == nil {
		return index
	}
	for i := range p.Workouts {
		d := &p.Workouts[i]
		d.Completed = d.AllCompleted()
		index[d.Day] = d.Completed
	}
	return index
}
