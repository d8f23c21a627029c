package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/surgecast/internal/domain/auth"
	"github.com/yanqian/surgecast/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", handler.Metrics)

	router.POST("/predict", handler.Predict)
	router.POST("/predict-area-risk", handler.PredictAreaRisk)

	api := router.Group("/api/v1")
	{
		api.POST("/predictions", handler.CreatePrediction)
		api.GET("/predictions", handler.ListPredictions)
		api.GET("/predictions/:id", handler.GetPrediction)
		api.GET("/analytics", handler.Analytics)
		api.POST("/area-risk", handler.PredictAreaRisk)
		api.POST("/auth/token", handler.Login)
		api.POST("/auth/refresh", handler.Refresh)
		if handler.alerts != nil {
			api.GET("/alerts/stream", gin.WrapH(handler.alerts))
		}

		admin := api.Group("")
		admin.Use(authMiddleware(handler.authSvc), requireRole(auth.RoleAdmin))
		admin.DELETE("/predictions/:id", handler.DeletePrediction)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
