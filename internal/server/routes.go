package server

import (
	"github.com/nulzo/ai-gateway/internal/server/middleware"
	v1 "github.com/nulzo/ai-gateway/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	if s.config.Tracing.Enabled {
		s.router.Use(middleware.Tracing("ai-gateway"))
	}

	// Health check stays public
	healthHandler := v1.NewHealthHandler(s.version)
	s.router.GET("/health", healthHandler.Health)

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Auth.APIKeys))
	api.Use(limiter.Middleware())
	{
		aiHandler := v1.NewAIHandler(s.service, s.logger)
		api.POST("/ai", aiHandler.Handle)

		modelHandler := v1.NewModelHandler(s.service)
		api.GET("/models", modelHandler.ListModels)
		api.POST("/models/reload", modelHandler.ReloadModels)
	}
}
