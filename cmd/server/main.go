package main

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/rps-showdown/backend/internal/config"
	"github.com/rps-showdown/backend/internal/httpapi"
	"github.com/rps-showdown/backend/internal/registry"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx := context.Background()
	reg := registry.New(ctx, clockwork.NewRealClock(), log)

	// Build the router *with* the registry injected
	handler := httpapi.SetupRoutes(reg, log, cfg.StaticDir)

	log.Infow("listening", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.Fatal(err)
	}
}
