package server

import (
	"github.com/gin-gonic/gin"

	"github.com/lyfeworks/toolkit-backend/internal/http/handlers"
	"github.com/lyfeworks/toolkit-backend/internal/http/middleware"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	DownloadHandler *handlers.DownloadHandler
	QuizHandler     *handlers.QuizHandler
	WaitlistHandler *handlers.WaitlistHandler
	CheckoutHandler *handlers.CheckoutHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.AttachTraceContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	healthHandler := handlers.NewHealthHandler()
	router.GET("/healthcheck", healthHandler.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/verify-purchase", cfg.DownloadHandler.VerifyPurchase)
		api.POST("/quiz-results", cfg.QuizHandler.SubmitResults)
		api.POST("/waitlist", cfg.WaitlistHandler.Join)
		api.POST("/waitlist/confirm", cfg.WaitlistHandler.Confirm)
		api.POST("/create-checkout-session", cfg.CheckoutHandler.CreateSession)
	}

	return router
}
