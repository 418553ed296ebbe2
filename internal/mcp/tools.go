package mcp

import (
	"context"
	"fmt"
	"math"

	"github.com/claude/fitplan/internal/models"
	"github.com/claude/fitplan/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// exerciseView adds the formatted prescription line to an exercise.
type exerciseView struct {
	models.Exercise
	Prescription string `json:"prescription"`
}

type dayView struct {
	Day       int               `json:"day"`
	Completed bool              `json:"is_completed"`
	Workout   []exerciseView    `json:"workout"`
	Summary   models.DaySummary `json:"summary"`
}

func newDayView(d *models.Day, muscle string) dayView {
	exercises := d.FilterByMuscle(muscle)
	views := make([]exerciseView, len(exercises))
	for i, ex := range exercises {
		views[i] = exerciseView{Exercise: ex, Prescription: ex.Prescription()}
	}
	return dayView{Day: d.Day, Completed: d.Completed, Workout: views, Summary: d.Summarize()}
}

type completionView struct {
	SelectedDay int          `json:"selected_day"`
	Completion  map[int]bool `json:"completion"`
}

// notLoaded describes why a snapshot has no plan.
func notLoaded(snap store.Snapshot) string {
	if snap.LoadError != "" {
		return fmt.Sprintf("plan not loaded (%s): %s", snap.Status, snap.LoadError)
	}
	return fmt.Sprintf("plan not loaded (%s)", snap.Status)
}

// wholeArg reads a required numeric argument and rejects fractional values.
func wholeArg(req mcp.CallToolRequest, key string) (int, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
	}
	return int(v), nil
}

// rejected renders a non-OK outcome as a tool error.
func rejected(outcome store.Outcome, target string) *mcp.CallToolResult {
	if outcome == store.NotLoaded {
		return mcp.NewToolResultError(fmt.Sprintf("%s: the plan is still loading, retry shortly", outcome))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", outcome, target))
}

// --- Tool definitions ---

var toolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription("Return the whole workout plan: every day with its exercises (sets, rep range, weight, completion) and a summary of days completed and muscle groups trained."),
)

var toolGetCurrentDay = mcp.NewTool("get_current_day",
	mcp.WithDescription("Return the selected day's exercises in plan order with a one-line prescription each, plus the day summary."),
	mcp.WithString("muscle", mcp.Description("Only list exercises for this muscle group (case-insensitive, e.g. 'chest')")),
)

var toolSelectDay = mcp.NewTool("select_day",
	mcp.WithDescription("Focus a day of the plan. Fails with no_such_day if the plan has no such day; the selection is then unchanged."),
	mcp.WithNumber("day", mcp.Required(), mcp.Description("Day number as it appears in the plan")),
)

var toolToggleExercise = mcp.NewTool("toggle_exercise",
	mcp.WithDescription("Flip the completion flag of one exercise and recompute the day's completion. Fails with no_such_day or no_such_exercise without changing anything."),
	mcp.WithNumber("day", mcp.Required(), mcp.Description("Day number the exercise belongs to")),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise id within that day")),
)

var toolGetCompletion = mcp.NewTool("get_completion",
	mcp.WithDescription("Return which days are completed and which day is selected."),
)

// --- Tool handlers ---

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		h.log.Error("mcp get_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if snap.Plan == nil {
		return mcp.NewToolResultError(notLoaded(snap)), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"plan":    snap.Plan,
		"summary": snap.Plan.Summarize(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCurrentDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		h.log.Error("mcp get_current_day", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if snap.Plan == nil {
		return mcp.NewToolResultError(notLoaded(snap)), nil
	}
	if snap.CurrentDay == nil {
		return mcp.NewToolResultError(fmt.Sprintf("day %d is not in the plan", snap.SelectedDay)), nil
	}

	result, err := mcp.NewToolResultJSON(newDayView(snap.CurrentDay, req.GetString("muscle", "")))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) selectDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := wholeArg(req, "day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := h.ws.SelectDay(ctx, day)
	if err != nil {
		h.log.Error("mcp select_day", "error", err)
		return mcp.NewToolResultError("select failed: " + err.Error()), nil
	}
	if outcome != store.OK {
		return rejected(outcome, fmt.Sprintf("day %d", day)), nil
	}
	return h.currentDayResult(ctx)
}

func (h *handlers) toggleExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := wholeArg(req, "day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exerciseID, err := wholeArg(req, "exercise_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := h.ws.ToggleExerciseCompletion(ctx, day, exerciseID)
	if err != nil {
		h.log.Error("mcp toggle_exercise", "error", err)
		return mcp.NewToolResultError("toggle failed: " + err.Error()), nil
	}
	if outcome != store.OK {
		return rejected(outcome, fmt.Sprintf("day %d exercise %d", day, exerciseID)), nil
	}

	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	i := snap.Plan.Find(day)
	if i < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("day %d is no longer in the plan", day)), nil
	}

	result, err := mcp.NewToolResultJSON(newDayView(&snap.Plan.Workouts[i], ""))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCompletion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		h.log.Error("mcp get_completion", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(completionView{SelectedDay: snap.SelectedDay, Completion: snap.Completion})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// currentDayResult renders the selected day after a successful change.
func (h *handlers) currentDayResult(ctx context.Context) (*mcp.CallToolResult, error) {
	snap, err := h.ws.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if snap.CurrentDay == nil {
		return mcp.NewToolResultError(notLoaded(snap)), nil
	}
	result, err := mcp.NewToolResultJSON(newDayView(snap.CurrentDay, ""))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
