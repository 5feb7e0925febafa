package handler

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dopetechnp-dotcom/dopetechnp/internal/database"
	"github.com/dopetechnp-dotcom/dopetechnp/internal/service"
)

// NewRouter builds the gin engine: CORS on every response, request ids
// for log correlation, the checkout endpoint and a DB health probe.
func NewRouter(svc service.CheckoutService, db *sql.DB) *gin.Engine {
	router := gin.Default()
	router.HandleMethodNotAllowed = true

	router.Use(requestID())
	router.Use(corsHeaders())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"Content-Type"},
		OptionsResponseStatusCode: http.StatusOK,
	}))

	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	checkout := NewCheckoutHandler(svc)
	router.POST("/api/checkout", checkout.Submit)
	// Preflights carrying an Origin header are answered by the CORS
	// middleware; this covers bare OPTIONS probes.
	router.OPTIONS("/api/checkout", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, database.Health(db))
	})

	return router
}

// corsHeaders attaches the storefront's CORS headers to every response,
// Origin header or not. The cors middleware still negotiates preflights.
func corsHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Next()
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
