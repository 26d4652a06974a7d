package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("TreadLogic", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("TreadLogic treadmill workout plans. List, read, create/replace and delete structured workout plans. A plan has an id, meta (date, title, workoutType, ...) and an ordered list of segments; each segment is either kind \"simple\" (one step) or kind \"complex\" (steps repeated repeatCount times)."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolUpsertWorkout, Handler: h.upsertWorkout},
		server.ServerTool{Tool: toolDeleteWorkout, Handler: h.deleteWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resWorkouts, Handler: h.allWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resWorkouts = mcp.NewResource(
	"treadlogic://workouts",
	"Workout Plans",
	mcp.WithResourceDescription("Every stored workout plan in collection order"),
	mcp.WithMIMEType("application/json"),
)
