package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/log", s.handleSettingLog)
		r.Get("/runs", s.handleListRuns)

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Get("/busy", s.handleDeviceBusy)

				r.Get("/settings", s.handleListSettings)
				r.Get("/settings/{setting}", s.handleGetSetting)
				r.Put("/settings/{setting}", s.handleSetSetting)
				r.Post("/command", s.handleDeviceCommand)

				// Camera endpoints; non-cameras return 404
				r.Post("/snap", s.handleSnap)
				r.Get("/image", s.handleImage)
				r.Get("/acquisition", s.handleAcquisitionStatus)
				r.Post("/acquisition/start", s.handleAcquisitionStart)
				r.Post("/acquisition/stop", s.handleAcquisitionStop)
				r.Get("/frames", s.handleListFrames)
				r.Get("/buffer", s.handleBuffer)
			})
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
