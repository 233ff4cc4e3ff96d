package router

import (
	"os"

	"solo-persona/backend/internal/api"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	h := api.NewHealthHandler(r.Container.Health, os.Getenv("APP_VERSION"))

	// Both paths are served for load balancers that probe the root
	r.Engine.GET("/health", h.Health)
	h.RegisterHealthRoutes(r.Engine.Group("/api/v1"))
}
