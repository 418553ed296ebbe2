package models

import "testing"

func strPtr(s string) *string { return &s }

func samplePlan() *Plan {
	return &Plan{Workouts: []Day{
		{Day: 1, Workout: []Exercise{
			{ExerciseID: 10, ExerciseName: "Bench Press", MuscleGroup: "Chest", AmountOfSets: 4, RepRange: "8-10", WeightAmount: strPtr("135")},
			{ExerciseID: 11, ExerciseName: "Tricep Pushdown", MuscleGroup: "Triceps", AmountOfSets: 3, RepRange: "10-12", IsCompleted: true},
		}},
		{Day: 3, Workout: []Exercise{
			{ExerciseID: 10, ExerciseName: "Squat", MuscleGroup: "Quadriceps", AmountOfSets: 5, RepRange: "5", IsCompleted: true},
		}},
		{Day: 4},
	}}
}

// TestPrescription verifies the set/rep line with and without a weight.
func TestPrescription(t *testing.T) {
	tests := []struct {
		name string
		ex   Exercise
		want string
	}{
		{"with weight", Exercise{AmountOfSets: 3, RepRange: "8-10", WeightAmount: strPtr("100")}, "3 sets x 8-10 reps x 100 lb"},
		{"bodyweight", Exercise{AmountOfSets: 2, RepRange: "AMRAP"}, "2 sets x AMRAP reps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ex.Prescription(); got != tt.want {
				t.Errorf("Prescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestAllCompleted verifies the AND-reduction, including the empty-day policy.
func TestAllCompleted(t *testing.T) {
	p := samplePlan()
	if p.Workouts[0].AllCompleted() {
		t.Error("day 1 has an incomplete exercise, want false")
	}
	if !p.Workouts[1].AllCompleted() {
		t.Error("day 3 has only completed exercises, want true")
	}
	if !p.Workouts[2].AllCompleted() {
		t.Error("day 4 has no exercises, want true")
	}
}

// TestRefreshCompletion verifies the completion index and per-day flags are derived together.
func TestRefreshCompletion(t *testing.T) {
	p := samplePlan()
	index := p.RefreshCompletion()

	want := map[int]bool{1: false, 3: true, 4: true}
	if len(index) != len(want) {
		t.Fatalf("index has %d entries, want %d", len(index), len(want))
	}
	for day, done := range want {
		if index[day] != done {
			t.Errorf("index[%d] = %v, want %v", day, index[day], done)
		}
	}
	for _, d := range p.Workouts {
		if d.Completed != want[d.Day] {
			t.Errorf("day %d Completed = %v, want %v", d.Day, d.Completed, want[d.Day])
		}
	}

	var nilPlan *Plan
	if got := nilPlan.RefreshCompletion(); len(got) != 0 {
		t.Errorf("nil plan index = %v, want empty", got)
	}
}

// TestFindAndExercise verifies lookup by day number and by exercise id.
func TestFindAndExercise(t *testing.T) {
	p := samplePlan()
	if i := p.Find(3); i != 1 {
		t.Errorf("Find(3) = %d, want 1", i)
	}
	if i := p.Find(2); i != -1 {
		t.Errorf("Find(2) = %d, want -1", i)
	}
	if i := p.Workouts[0].Exercise(11); i != 1 {
		t.Errorf("Exercise(11) = %d, want 1", i)
	}
	if i := p.Workouts[0].Exercise(99); i != -1 {
		t.Errorf("Exercise(99) = %d, want -1", i)
	}
}

// TestCloneIsDeep verifies mutating a clone never leaks into the original.
func TestCloneIsDeep(t *testing.T) {
	p := samplePlan()
	c := p.Clone()

	c.Workouts[0].Workout[0].IsCompleted = true
	*c.Workouts[0].Workout[0].WeightAmount = "999"

	if p.Workouts[0].Workout[0].IsCompleted {
		t.Error("original exercise flag changed through clone")
	}
	if *p.Workouts[0].Workout[0].WeightAmount != "135" {
		t.Errorf("original weight = %q, want 135", *p.Workouts[0].Workout[0].WeightAmount)
	}

	var nilPlan *Plan
	if nilPlan.Clone() != nil {
		t.Error("Clone of nil plan should be nil")
	}
}

// TestFilterByMuscle verifies case-insensitive filtering keeps plan order.
func TestFilterByMuscle(t *testing.T) {
	d := samplePlan().Workouts[0]
	got := d.FilterByMuscle("chest")
	if len(got) != 1 || got[0].ExerciseID != 10 {
		t.Errorf("FilterByMuscle(chest) = %+v, want exercise 10", got)
	}
	if got := d.FilterByMuscle(""); len(got) != 2 {
		t.Errorf("FilterByMuscle(\"\") returned %d, want 2", len(got))
	}
	if got := d.FilterByMuscle("Calves"); len(got) != 0 {
		t.Errorf("FilterByMuscle(Calves) returned %d, want 0", len(got))
	}
}

// TestSummaries verifies day and plan summaries mirror the header shown to the user.
func TestSummaries(t *testing.T) {
	p := samplePlan()

	s := p.Workouts[0].Summarize()
	if s.Headline != "Chest" || s.ExerciseCount != 2 || s.CompletedCount != 1 || s.TotalSets != 7 || s.Completed {
		t.Errorf("day 1 summary = %+v", s)
	}

	empty := p.Workouts[2].Summarize()
	if empty.Headline != DefaultHeadline || empty.ExerciseCount != 0 || !empty.Completed {
		t.Errorf("empty day summary = %+v", empty)
	}

	ps := p.Summarize()
	if ps.TotalDays != 3 || ps.CompletedDays != 2 {
		t.Errorf("plan summary = %+v", ps)
	}
	wantGroups := []string{"Chest", "Triceps", "Quadriceps"}
	if len(ps.MuscleGroups) != len(wantGroups) {
		t.Fatalf("muscle groups = %v, want %v", ps.MuscleGroups, wantGroups)
	}
	for i, g := range wantGroups {
		if ps.MuscleGroups[i] != g {
			t.Errorf("muscle_groups[%d] = %q, want %q", i, ps.MuscleGroups[i], g)
		}
	}
}
