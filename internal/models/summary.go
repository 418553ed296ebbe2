package models

// DaySummary is the header shown above a day's exercise list.
type DaySummary struct {
	Day            int    `json:"day"`
	Headline       string `json:"headline"`
	ExerciseCount  int    `json:"exercise_count"`
	CompletedCount int    `json:"completed_count"`
	TotalSets      int    `json:"total_sets"`
	Completed      bool   `json:"is_completed"`
}

// PlanSummary aggregates the whole plan.
type PlanSummary struct {
	TotalDays     int      `json:"total_days"`
	CompletedDays int      `json:"completed_days"`
	MuscleGroups  []string `json:"muscle_groups"`
}

// Summarize builds the summary for a day. The headline is the muscle group of
// the first exercise, or DefaultHeadline for an empty day.
func (d Day) Summarize() DaySummary {
	s := DaySummary{
		Day:           d.Day,
		Headline:      DefaultHeadline,
		ExerciseCount: len(d.Workout),
		Completed:     d.AllCompleted(),
	}
	if len(d.Workout) > 0 && d.Workout[0].MuscleGroup != "" {
		s.Headline = d.Workout[0].MuscleGroup
	}
	for _, ex := range d.Workout {
		s.TotalSets += ex.AmountOfSets
		if ex.IsCompleted {
			s.CompletedCount++
		}
	}
	return s
}

// Summarize builds the plan-wide summary. Muscle groups are distinct and in
// first-seen order.
func (p *Plan) Summarize() PlanSummary {
	var s PlanSummary
	if p == nil {
		return s
	}
	seen := make(map[string]bool)
	s.TotalDays = len(p.Workouts)
	for _, d := range p.Workouts {
		if d.AllCompleted() {
			s.CompletedDays++
		}
		for _, ex := range d.Workout {
			if ex.MuscleGroup == "" || seen[ex.MuscleGroup] {
				continue
			}
			seen[ex.MuscleGroup] = true
			s.MuscleGroups = append(s.MuscleGroups, ex.MuscleGroup)
		}
	}
	return s
}
