package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Alcatecable/Procedure/internal/api"
	"github.com/Alcatecable/Procedure/internal/authn"
	"github.com/Alcatecable/Procedure/internal/config"
	"github.com/Alcatecable/Procedure/internal/migrate"
	"github.com/Alcatecable/Procedure/internal/store"
	"github.com/Alcatecable/Procedure/pkg/db"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "procedurehub").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx := context.Background()
	pool := db.MustConnect(ctx)
	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	st := store.New(pool)
	auth := authn.New(pool, cfg.SessionTTL, cfg.BcryptCost, cfg.MinPassword)
	h := api.NewHandler(st, auth)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Method("GET", "/metrics", promhttp.Handler())
	h.Routes(r)

	log.Info().Str("port", cfg.Port).Msg("listening")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
