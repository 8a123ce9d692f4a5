package api

import (
	"github.com/gin-gonic/gin"
)

// listIntegrations handles GET /api/v1/integrations
func (s *Server) listIntegrations(c *gin.Context) {
	s.successResponse(c, s.integrations.Status())
}
