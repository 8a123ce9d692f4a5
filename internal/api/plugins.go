package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listPlugins handles GET /api/v1/plugins
func (s *Server) listPlugins(c *gin.Context) {
	s.successResponse(c, s.manager.List())
}

// enablePlugin handles POST /api/v1/plugins/:id/enable
func (s *Server) enablePlugin(c *gin.Context) {
	s.setPluginState(c, true)
}

// disablePlugin handles POST /api/v1/plugins/:id/disable
func (s *Server) disablePlugin(c *gin.Context) {
	s.setPluginState(c, false)
}

func (s *Server) setPluginState(c *gin.Context, enabled bool) {
	id := c.Param("id")

	if err := s.manager.SetEnabled(id, enabled); err != nil {
		s.errorResponse(c, http.StatusNotFound, "Failed to update plugin: "+err.Error())
		return
	}

	s.successResponse(c, gin.H{"id": id, "enabled": enabled})
}
