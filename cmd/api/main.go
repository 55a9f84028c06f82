// The api command runs the sync backend that the tracker's apiEndpoint
// setting points at. It receives batched product records and exposes the
// aggregated cart.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cart-tracker/internal/types"
	"cart-tracker/storage"
)

// SyncRequest mirrors the envelope posted by the syncer
type SyncRequest struct {
	Products  []types.Product `json:"products"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
}

// APIResponse is the common response envelope
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server holds the API server state
type Server struct {
	logger *logrus.Logger
	store  *storage.MemoryStore
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Server{
		logger: logger,
		store:  storage.NewMemoryStore(),
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/api/cart/sync", s.handleSync)
	router.GET("/api/cart", s.handleGetCart)
	router.GET("/health", s.handleHealth)

	return router
}

// handleSync receives a batch of product records
func (s *Server) handleSync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "Invalid request body"})
		return
	}
	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: "No products provided"})
		return
	}

	s.logger.Infof("Sync request from %q with %d products", req.Source, len(req.Products))

	for _, product := range req.Products {
		if err := s.store.AddToCart(c.Request.Context(), product); err != nil {
			s.logger.Errorf("Failed to store product %s: %v", product.ID, err)
			c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "Failed to store products"})
			return
		}
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    gin.H{"synced": len(req.Products), "total": s.store.Len()},
	})
}

// handleGetCart returns the aggregated cart with per-store stats
func (s *Server) handleGetCart(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := s.store.GetCart(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "Failed to read cart"})
		return
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, APIResponse{Success: false, Error: "Failed to read cart stats"})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    gin.H{"cart": items, "stats": stats},
	})
}

// handleHealth is the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Start starts the API server
func (s *Server) Start(port string) error {
	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /api/cart/sync - Receive synced product batches")
	s.logger.Info("  GET  /api/cart      - Aggregated cart with stats")
	s.logger.Info("  GET  /health        - Health check")

	return s.Router().Run(":" + port)
}

func main() {
	port := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		port = envPort
		fmt.Printf("Using port from environment variable API_PORT: %s\n", port)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := NewServer()
	if err := server.Start(port); err != nil {
		server.logger.Fatalf("Server failed: %v", err)
	}
}
