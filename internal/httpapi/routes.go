package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/rps-showdown/backend/internal/registry"
	"github.com/rps-showdown/backend/internal/ws"
)

func SetupRoutes(reg *registry.Registry, log *zap.SugaredLogger, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	r.Use(httprate.Limit(60, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)))

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(reg, log))
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	return r
}
