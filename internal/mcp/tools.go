package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/xpasha85/treadlogic-server/internal/models"
	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List every stored workout plan in collection order. Optionally filter by workout type."),
	mcp.WithString("type", mcp.Description("Only return plans of this workout type"),
		mcp.Enum("Recovery", "Easy", "Tempo", "Intervals", "LongRun", "Test")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout plan by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan id")),
)

var toolUpsertWorkout = mcp.NewTool("upsert_workout",
	mcp.WithDescription("Create a workout plan, or replace the plan with the same id in place. The whole plan is validated; nothing is stored if any field is wrong."),
	mcp.WithObject("plan", mcp.Required(), mcp.Description("Complete plan: {id, meta: {date, title, workoutType, description, totalDurationEstimateSec, coachNotes, gear, postWorkoutAction?, allowOvertime?}, segments: [...]}. Segments are {kind: \"simple\", stepType, title, durationSec, speedKph, inclinePercent, notes?} or {kind: \"complex\", title, repeatCount, skipLastRest?, steps: [simple...]}.")),
)

var toolDeleteWorkout = mcp.NewTool("delete_workout",
	mcp.WithDescription("Delete the workout plan with the given id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan id")),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.ds.ListAll(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if wt := req.GetString("type", ""); wt != "" {
		filtered := make([]models.Plan, 0, len(plans))
		for _, p := range plans {
			if string(p.Meta.WorkoutType) == wt {
				filtered = append(filtered, p)
			}
		}
		plans = filtered
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	plan, err := h.ds.Get(ctx, id)
	if err != nil {
		if errors.Is(err, workouts.ErrNotFound) {
			return mcp.NewToolResultError("workout not found: " + id), nil
		}
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) upsertWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arg, ok := req.GetArguments()["plan"]
	if !ok {
		return mcp.NewToolResultError("plan parameter is required"), nil
	}
	raw, err := json.Marshal(arg)
	if err != nil {
		return mcp.NewToolResultError("plan is not JSON-encodable: " + err.Error()), nil
	}

	plan, err := h.ds.Upsert(ctx, raw)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError("invalid plan: " + verr.Error()), nil
		}
		h.log.Error("mcp upsert_workout", "error", err)
		return mcp.NewToolResultError("save failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) deleteWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	if err := h.ds.Delete(ctx, id); err != nil {
		if errors.Is(err, workouts.ErrNotFound) {
			return mcp.NewToolResultError("workout not found: " + id), nil
		}
		h.log.Error("mcp delete_workout", "error", err)
		return mcp.NewToolResultError("delete failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}
