package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/repricelab/ebay-connect/internal/config"
	"github.com/repricelab/ebay-connect/internal/http/handler"
	"github.com/repricelab/ebay-connect/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, ebayHandler *handler.EbayHandler, authMiddleware *middleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "eBay Connect API"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", authMiddleware.RequireUser, authHandler.Me)
	}

	ebay := r.Group("/ebay", authMiddleware.RequireUser)
	{
		ebay.POST("/initiate-oauth", ebayHandler.InitiateOAuth)
		ebay.GET("/callback", ebayHandler.Callback)
		ebay.GET("/accounts", ebayHandler.Accounts)
		ebay.DELETE("/accounts/:accountId", ebayHandler.Disconnect)
		ebay.PUT("/accounts/:accountId/refresh", ebayHandler.Refresh)
		ebay.GET("/accounts/:accountId/sync", ebayHandler.Sync)
	}

	return r
}
