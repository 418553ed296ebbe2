package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ws Workouts, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("fitplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("fitplan workout plan server. Read the multi-day plan, focus a day, and mark exercises as done. A day counts as completed once every exercise in it is completed."),
	)

	h := &handlers{ws: ws, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolGetCurrentDay, Handler: h.getCurrentDay},
		server.ServerTool{Tool: toolSelectDay, Handler: h.selectDay},
		server.ServerTool{Tool: toolToggleExercise, Handler: h.toggleExercise},
		server.ServerTool{Tool: toolGetCompletion, Handler: h.getCompletion},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPlan, Handler: h.planResource},
		server.ServerResource{Resource: resCompletion, Handler: h.completionResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ws  Workouts
	log *slog.Logger
}

// --- Resource definitions ---

var resPlan = mcp.NewResource(
	"fitplan://plan",
	"Workout Plan",
	mcp.WithResourceDescription("Every day of the loaded plan with its exercises, completion flags and a plan summary"),
	mcp.WithMIMEType("application/json"),
)

var resCompletion = mcp.NewResource(
	"fitplan://completion",
	"Completion Index",
	mcp.WithResourceDescription("Day number to completed flag, plus the selected day"),
	mcp.WithMIMEType("application/json"),
)
