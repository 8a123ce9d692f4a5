package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listProviders handles GET /api/v1/providers
func (s *Server) listProviders(c *gin.Context) {
	s.successResponse(c, gin.H{
		"providers": s.registry.Names(),
		"default":   s.cfg.DefaultProvider,
	})
}

// listProviderModels handles GET /api/v1/providers/:name/models
func (s *Server) listProviderModels(c *gin.Context) {
	name := c.Param("name")

	provider, ok := s.registry.Get(name)
	if !ok {
		s.errorResponse(c, http.StatusNotFound, "Provider not configured: "+name)
		return
	}

	models, err := provider.ListModels(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusBadGateway, "Failed to list models: "+err.Error())
		return
	}

	s.successResponse(c, models)
}
