package app

import (
	"context"
	"fmt"
	"log/slog"
)

type App struct {
	Name string
	Cfg  *Config
	Log  *slog.Logger
}

func New(name string, cfg *Config, log *slog.Logger) *App {
	return &App{
		Name: name,
		Cfg:  cfg,
		Log:  log,
	}
}

func (a *App) Run(ctx context.Context) error {
	a.Log.Info("running engagement bot",
		"storage", a.Cfg.Storage.Backend,
		"timezone", a.Cfg.Engagement.Timezone)

	deps, err := a.initDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to init dependencies: %w", err)
	}

	return a.runServices(ctx, deps)
}
