package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mara/billdesk/internal/app"
)

// Server exposes the application over HTTP
type Server struct {
	app    *app.App
	router *gin.Engine
}

// New creates a new HTTP server with all routes registered
func New(application *app.App) *Server {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(recordMetrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s := &Server{app: application, router: router}

	api := router.Group("/api", requireUser())
	{
		newInvoiceHandler(application).registerRoutes(api)
		newClientHandler(application).registerRoutes(api)
		newDashboardHandler(application).registerRoutes(api)
	}

	return s
}

// Run starts the server on the given address and blocks
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the underlying router (useful for testing)
func (s *Server) Handler() http.Handler {
	return s.router
}

const userIDKey = "userID"

// requireUser resolves the acting account from the X-User-ID header.
// Authentication proper happens upstream; this layer only needs identity.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
			return
		}

		userID, err := strconv.ParseInt(header, 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-User-ID format"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
