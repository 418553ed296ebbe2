package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/fitplan/internal/models"
	"github.com/claude/fitplan/internal/plansource"
	"github.com/claude/fitplan/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testPlan() *models.Plan {
	return &models.Plan{Workouts: []models.Day{
		{Day: 1, Workout: []models.Exercise{
			{ExerciseID: 10, ExerciseName: "Bench Press", MuscleGroup: "Chest", AmountOfSets: 4, RepRange: "8-10"},
			{ExerciseID: 11, ExerciseName: "Tricep Dip", MuscleGroup: "Triceps", AmountOfSets: 3, RepRange: "10"},
		}},
		{Day: 2, Workout: []models.Exercise{
			{ExerciseID: 20, ExerciseName: "Squat", MuscleGroup: "Quadriceps", AmountOfSets: 5, RepRange: "5"},
		}},
	}}
}

func newHandlers(t *testing.T, src store.Source) *handlers {
	t.Helper()
	s := store.New(src, discard)
	t.Cleanup(s.Close)
	s.Load(context.Background())
	return &handlers{ws: NewLocal(s), log: discard}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

// TestNewRegistersServer verifies the MCP server builds with the local backend.
func TestNewRegistersServer(t *testing.T) {
	s := store.New(&plansource.Static{Plan: testPlan()}, discard)
	defer s.Close()
	if New(NewLocal(s), "test", discard) == nil {
		t.Fatal("New returned nil")
	}
}

// TestGetPlan verifies the plan tool returns every day plus a summary.
func TestGetPlan(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	res, err := h.getPlan(context.Background(), call(nil))
	if err != nil || res.IsError {
		t.Fatalf("get_plan failed: %v %s", err, resultText(t, res))
	}
	var body struct {
		Plan    models.Plan        `json:"plan"`
		Summary models.PlanSummary `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Plan.Workouts) != 2 || body.Summary.TotalDays != 2 {
		t.Errorf("get_plan = %+v", body)
	}
}

// TestToolsWithoutPlan verifies a failed load is reported as a tool error, not a Go error.
func TestToolsWithoutPlan(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Err: errors.New("asset missing")})

	for name, fn := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_plan":        h.getPlan,
		"get_current_day": h.getCurrentDay,
	} {
		res, err := fn(context.Background(), call(nil))
		if err != nil {
			t.Fatalf("%s returned Go error: %v", name, err)
		}
		if !res.IsError || !strings.Contains(resultText(t, res), "asset missing") {
			t.Errorf("%s = %q, want load error", name, resultText(t, res))
		}
	}

	res, _ := h.selectDay(context.Background(), call(map[string]any{"day": 1}))
	if !res.IsError || !strings.Contains(resultText(t, res), "no_such_day") {
		t.Errorf("select_day without plan = %q", resultText(t, res))
	}
}

// TestSelectDayTool verifies selection success and rejection of absent days.
func TestSelectDayTool(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	res, err := h.selectDay(context.Background(), call(map[string]any{"day": float64(2)}))
	if err != nil || res.IsError {
		t.Fatalf("select_day failed: %v %s", err, resultText(t, res))
	}
	var day dayView
	if err := json.Unmarshal([]byte(resultText(t, res)), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.Day != 2 || len(day.Workout) != 1 || day.Workout[0].Prescription != "5 sets x 5 reps" {
		t.Errorf("select_day = %+v", day)
	}

	res, _ = h.selectDay(context.Background(), call(map[string]any{"day": 7}))
	if !res.IsError || !strings.Contains(resultText(t, res), "no_such_day") {
		t.Errorf("select_day(7) = %q", resultText(t, res))
	}
	res, _ = h.selectDay(context.Background(), call(nil))
	if !res.IsError {
		t.Error("select_day without day should fail")
	}

	snap, _ := h.ws.Snapshot(context.Background())
	if snap.SelectedDay != 2 {
		t.Errorf("selected = %d after rejected select, want 2", snap.SelectedDay)
	}
}

// TestFractionalArgumentsRejected verifies numeric arguments must be whole
// numbers and that a rejected call leaves the state alone.
func TestFractionalArgumentsRejected(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	res, _ := h.selectDay(context.Background(), call(map[string]any{"day": 2.7}))
	if !res.IsError || !strings.Contains(resultText(t, res), "whole number") {
		t.Errorf("select_day(2.7) = %q", resultText(t, res))
	}
	res, _ = h.toggleExercise(context.Background(), call(map[string]any{"day": float64(2), "exercise_id": 20.5}))
	if !res.IsError || !strings.Contains(resultText(t, res), "whole number") {
		t.Errorf("toggle_exercise(2, 20.5) = %q", resultText(t, res))
	}
	res, _ = h.selectDay(context.Background(), call(map[string]any{"day": "2"}))
	if res.IsError {
		t.Errorf("select_day(\"2\") = %q, want ok", resultText(t, res))
	}

	snap, _ := h.ws.Snapshot(context.Background())
	if snap.SelectedDay != 2 || snap.Completion[2] {
		t.Errorf("state after rejected calls: selected=%d completion=%v", snap.SelectedDay, snap.Completion)
	}
}

// TestToolsWhileLoading verifies mutations during the initial load report
// not_loaded instead of a missing day.
func TestToolsWhileLoading(t *testing.T) {
	s := store.New(&plansource.Static{Plan: testPlan()}, discard)
	t.Cleanup(s.Close)
	h := &handlers{ws: NewLocal(s), log: discard}

	res, _ := h.selectDay(context.Background(), call(map[string]any{"day": 2}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "not_loaded") {
		t.Errorf("select_day while loading = %q", resultText(t, res))
	}
	res, _ = h.toggleExercise(context.Background(), call(map[string]any{"day": 2, "exercise_id": 20}))
	if !res.IsError || !strings.HasPrefix(resultText(t, res), "not_loaded") {
		t.Errorf("toggle_exercise while loading = %q", resultText(t, res))
	}
}

// TestToggleExerciseTool verifies toggling completes a day and rejects unknown exercises.
func TestToggleExerciseTool(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	res, err := h.toggleExercise(context.Background(), call(map[string]any{"day": 2, "exercise_id": 20}))
	if err != nil || res.IsError {
		t.Fatalf("toggle_exercise failed: %v %s", err, resultText(t, res))
	}
	var day dayView
	if err := json.Unmarshal([]byte(resultText(t, res)), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.Day != 2 || !day.Completed || !day.Workout[0].IsCompleted {
		t.Errorf("toggle_exercise = %+v", day)
	}

	res, _ = h.toggleExercise(context.Background(), call(map[string]any{"day": 1, "exercise_id": 20}))
	if !res.IsError || !strings.Contains(resultText(t, res), "no_such_exercise") {
		t.Errorf("toggle(1,20) = %q", resultText(t, res))
	}
	res, _ = h.toggleExercise(context.Background(), call(map[string]any{"day": 1}))
	if !res.IsError {
		t.Error("toggle without exercise_id should fail")
	}

	res, _ = h.getCompletion(context.Background(), call(nil))
	var comp completionView
	if err := json.Unmarshal([]byte(resultText(t, res)), &comp); err != nil {
		t.Fatalf("decode completion: %v", err)
	}
	if comp.Completion[1] || !comp.Completion[2] {
		t.Errorf("completion = %v, want {1:false 2:true}", comp.Completion)
	}
}

// TestGetCurrentDayFilter verifies the muscle filter on the current-day tool.
func TestGetCurrentDayFilter(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	res, _ := h.getCurrentDay(context.Background(), call(map[string]any{"muscle": "triceps"}))
	var day dayView
	if err := json.Unmarshal([]byte(resultText(t, res)), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(day.Workout) != 1 || day.Workout[0].ExerciseID != 11 {
		t.Errorf("filtered day = %+v", day.Workout)
	}
	if day.Summary.ExerciseCount != 2 {
		t.Errorf("summary counts the whole day, got %d", day.Summary.ExerciseCount)
	}
}

// TestResources verifies both resources return JSON for the requested URI.
func TestResources(t *testing.T) {
	h := newHandlers(t, &plansource.Static{Plan: testPlan()})

	var req mcp.ReadResourceRequest
	req.Params.URI = "fitplan://completion"
	contents, err := h.completionResource(context.Background(), req)
	if err != nil || len(contents) != 1 {
		t.Fatalf("completion resource: %v (%d contents)", err, len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok || text.URI != "fitplan://completion" || !strings.Contains(text.Text, `"selected_day":1`) {
		t.Errorf("completion resource = %+v", contents[0])
	}

	req.Params.URI = "fitplan://plan"
	if _, err := h.planResource(context.Background(), req); err != nil {
		t.Errorf("plan resource: %v", err)
	}

	failed := newHandlers(t, &plansource.Static{Err: errors.New("asset missing")})
	if _, err := failed.planResource(context.Background(), req); err == nil {
		t.Error("plan resource without plan should fail")
	}
}
