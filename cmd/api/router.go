package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zkreview-backend/internal/shared/middleware"
	"zkreview-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		setupReviewRoutes(v1, c)
		setupProductRoutes(v1, c)
		setupReviewerRoutes(v1, c)
	}

	return router
}

// ========================================
// REVIEW ROUTES
// ========================================
func setupReviewRoutes(v1 *gin.RouterGroup, c *container.Container) {
	reviews := v1.Group("/reviews")
	{
		// Submission is open: the proof is the credential, not a session.
		reviews.POST("", c.ReviewHandler.SubmitReview)
		reviews.GET("/recent", c.ReviewHandler.ListRecent)
		reviews.GET("/:id", c.ReviewHandler.GetReview)
	}
}

// ========================================
// PRODUCT ROUTES
// ========================================
func setupProductRoutes(v1 *gin.RouterGroup, c *container.Container) {
	products := v1.Group("/products")
	{
		products.GET("", c.ProductHandler.ListProducts)
		products.GET("/:id", c.ProductHandler.GetProduct)
		products.GET("/:id/reviews", c.ReviewHandler.ListByProduct)
	}

	// Explicit product registration is an admin operation.
	adminProducts := v1.Group("/products")
	adminProducts.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.AdminMiddleware(),
	)
	{
		adminProducts.POST("", c.ProductHandler.CreateProduct)
	}
}

// ========================================
// REVIEWER ROUTES
// ========================================
func setupReviewerRoutes(v1 *gin.RouterGroup, c *container.Container) {
	reviewers := v1.Group("/reviewers")
	{
		reviewers.GET("/:identity", c.ReviewHandler.GetReviewer)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"backend":   appCtx.Config.App.Backend,
		}

		// Check storage backend
		storeStatus := "ok"
		{
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.HealthCheck(ctx); err != nil {
				storeStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis; cache being down only degrades, never fails.
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"store": storeStatus,
			"redis": redisStatus,
		}

		statusCode := http.StatusOK
		if storeStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
