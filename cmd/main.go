package main

import (
	"context"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/Pelanglene/213bot/internal/app"
	"github.com/Pelanglene/213bot/internal/pkg/logger"
)

const appName = "engagement_bot"

func main() {
	cfg, err := app.NewEnvConfig(appName)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(appName, cfg.Log)
	if err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := app.New(appName, cfg, log)

	if err := app.Run(ctx); err != nil {
		panic(err)
	}
}
