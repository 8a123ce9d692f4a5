package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/history"
	"github.com/personachat/personachat/internal/llm"
	"github.com/personachat/personachat/internal/logger"
	"github.com/personachat/personachat/internal/models"
	"github.com/personachat/personachat/internal/plugins"
	"github.com/personachat/personachat/internal/rag"
	"github.com/personachat/personachat/internal/services"
)

// Server is the HTTP API server
type Server struct {
	cfg          *config.Config
	store        history.Store
	registry     *llm.Registry
	manager      *plugins.Manager
	rag          *rag.Service
	chat         *services.ChatService
	integrations *services.Integrations
	router       *gin.Engine
}

// NewServer creates a new API server with all routes registered
func NewServer(cfg *config.Config, store history.Store, registry *llm.Registry, manager *plugins.Manager, ragSvc *rag.Service, chat *services.ChatService, integrations *services.Integrations) *Server {
	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:          cfg,
		store:        store,
		registry:     registry,
		manager:      manager,
		rag:          ragSvc,
		chat:         chat,
		integrations: integrations,
		router:       gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.corsMiddleware())
	s.setupRoutes()

	return s
}

// Run starts the server on the given address
func (s *Server) Run(addr string) error {
	logger.Info("API server listening on %s", addr)
	if err := s.router.Run(addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.GET("/stats", s.stats)

		v1.POST("/chat", s.postChat)

		v1.GET("/history", s.listConversations)
		v1.POST("/history", s.createConversation)
		v1.GET("/history/:id", s.getConversation)
		v1.PUT("/history/:id/title", s.renameConversation)
		v1.DELETE("/history/:id", s.deleteConversation)

		v1.GET("/providers", s.listProviders)
		v1.GET("/providers/:name/models", s.listProviderModels)

		v1.GET("/integrations", s.listIntegrations)

		v1.GET("/plugins", s.listPlugins)
		v1.POST("/plugins/:id/enable", s.enablePlugin)
		v1.POST("/plugins/:id/disable", s.disablePlugin)

		v1.POST("/documents", s.ingestDocument)
		v1.POST("/documents/search", s.searchDocuments)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// successResponse sends a successful API response
func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
	})
}

// errorResponse sends an error API response
func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// health handles GET /api/v1/health
func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.errorResponse(c, http.StatusServiceUnavailable, "History store unreachable: "+err.Error())
		return
	}
	s.successResponse(c, gin.H{"status": "ok"})
}

// stats handles GET /api/v1/stats
func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to compute stats: "+err.Error())
		return
	}
	s.successResponse(c, stats)
}
