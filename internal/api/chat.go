package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personachat/personachat/internal/config"
	"github.com/personachat/personachat/internal/services"
)

// postChat handles POST /api/v1/chat
func (s *Server) postChat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if req.Provider != "" && !config.KnownProvider(req.Provider) {
		s.errorResponse(c, http.StatusBadRequest, "Unknown provider: "+req.Provider)
		return
	}

	result, err := s.chat.Chat(c.Request.Context(), &req)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Chat failed: "+err.Error())
		return
	}

	s.successResponse(c, result)
}
