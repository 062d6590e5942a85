package handler

import (
	"context"
	"log/slog"

	"github.com/ytgrab/ytgrab/internal/download"
	"github.com/ytgrab/ytgrab/internal/job"
	"github.com/ytgrab/ytgrab/internal/ytdlp"
)

// ToolProbe is the read-only surface of the external binary the handlers use.
type ToolProbe interface {
	Version(ctx context.Context) (string, error)
	Info(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
	List(ctx context.Context, url string) ([]ytdlp.PlaylistEntry, error)
}

// Starter accepts download requests.
type Starter interface {
	Start(ctx context.Context, req download.Request) (*download.Result, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Tool         ToolProbe
	Jobs         *job.Registry
	Orchestrator Starter
}

// APIHandler handles all HTTP requests of the download front-end.
type APIHandler struct {
	logger       *slog.Logger
	tool         ToolProbe
	jobs         *job.Registry
	orchestrator Starter
}

// NewAPIHandler creates a new APIHandler instance
func NewAPIHandler(deps *Dependencies) *APIHandler {
	return &APIHandler{
		logger:       deps.Logger,
		tool:         deps.Tool,
		jobs:         deps.Jobs,
		orchestrator: deps.Orchestrator,
	}
}
