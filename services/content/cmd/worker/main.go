package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"content-engine/pkg/config"
	app "content-engine/services/content/internal/app"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.RunWorker(ctx); err != nil {
		application.Logger().Error("Worker stopped: %v", err)
		os.Exit(1)
	}
	application.Logger().Info("Content worker exited")
}
