package mcp

import (
	"context"

	"github.com/xpasha85/treadlogic-server/internal/models"
	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

// DataSource abstracts the workout collection for MCP tools. Both
// *workouts.Service (local) and HTTPClient (remote via REST API) satisfy
// this interface.
type DataSource interface {
	ListAll(ctx context.Context) ([]models.Plan, error)
	Get(ctx context.Context, id string) (models.Plan, error)
	Upsert(ctx context.Context, raw []byte) (models.Plan, error)
	Delete(ctx context.Context, id string) error
}

// Compile-time check: *workouts.Service satisfies DataSource.
var _ DataSource = (*workouts.Service)(nil)
