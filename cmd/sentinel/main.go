package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/kappapiana/sentinel-solo/internal/cli"
	"github.com/kappapiana/sentinel-solo/internal/config"
	"github.com/kappapiana/sentinel-solo/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := logging.NewSlogLogger(slog.New(handler))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
