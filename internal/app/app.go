package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/veyucu/fastits/internal/config"
	"github.com/veyucu/fastits/internal/observability"
)

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *http.Server
	Runtime *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Runtime: runtime}
}

// Shutdown stops the http server first so in-flight requests finish before
// the telemetry pipeline flushes.
func (a *App) Shutdown(ctx context.Context) {
	if err := a.Server.Shutdown(ctx); err != nil {
		a.Logger.Error("http server shutdown", "error", err)
	}
	if err := a.Runtime.Shutdown(ctx); err != nil {
		a.Logger.Error("telemetry shutdown", "error", err)
	}
}
