package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"garage-assistant/internal/common/logger"
)

// NewRouter assembles the full route table.
func NewRouter(h *Handler, log logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Post("/chat/audio", h.ChatAudio)

		r.Get("/services", h.ListServices)
		r.Get("/services/active", h.ListActiveServices)
		r.Get("/services/{id}", h.GetService)

		r.Get("/clients", h.ListClients)
		r.Get("/clients/{id}/cars", h.ListClientCars)
	})

	return r
}
