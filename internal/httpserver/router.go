// Package httpserver wires the HTTP routes onto the video gateway.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/ldynamics/vidstore/internal/config"
	appMiddleware "github.com/ldynamics/vidstore/internal/middleware"
	"github.com/ldynamics/vidstore/internal/video"

	_ "github.com/ldynamics/vidstore/docs/swagger"
)

// NewRouter returns the service's root handler.
func NewRouter(cfg *config.Config, gw *video.Gateway) http.Handler {
	videos := video.NewHandler(gw, cfg.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

		r.Get("/list", videos.List)
		r.Post("/downloadFile", videos.Download)

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/upload", videos.Upload)
			r.Post("/deleteFile", videos.Delete)
		})
	})

	return r
}
