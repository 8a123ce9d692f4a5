package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type RenameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

func conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// listConversations handles GET /api/v1/history
func (s *Server) listConversations(c *gin.Context) {
	conversations, err := s.store.ListConversations(c.Request.Context())
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to list conversations: "+err.Error())
		return
	}
	s.successResponse(c, conversations)
}

// createConversation handles POST /api/v1/history
func (s *Server) createConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	conv, err := s.store.CreateConversation(c.Request.Context(), req.Title)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to create conversation: "+err.Error())
		return
	}
	s.successResponse(c, conv)
}

// getConversation handles GET /api/v1/history/:id
func (s *Server) getConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		s.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	conv, err := s.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		s.errorResponse(c, http.StatusNotFound, "Conversation not found: "+err.Error())
		return
	}

	messages, err := s.store.ListMessages(c.Request.Context(), id, 0)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to load messages: "+err.Error())
		return
	}

	s.successResponse(c, gin.H{
		"conversation": conv,
		"messages":     messages,
	})
}

// renameConversation handles PUT /api/v1/history/:id/title
func (s *Server) renameConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		s.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := s.store.RenameConversation(c.Request.Context(), id, req.Title); err != nil {
		s.errorResponse(c, http.StatusNotFound, "Failed to rename conversation: "+err.Error())
		return
	}

	s.successResponse(c, gin.H{"id": id, "title": req.Title})
}

// deleteConversation handles DELETE /api/v1/history/:id
func (s *Server) deleteConversation(c *gin.Context) {
	id, ok := conversationID(c)
	if !ok {
		s.errorResponse(c, http.StatusBadRequest, "Invalid conversation ID")
		return
	}

	if err := s.store.DeleteConversation(c.Request.Context(), id); err != nil {
		s.errorResponse(c, http.StatusNotFound, "Failed to delete conversation: "+err.Error())
		return
	}

	s.successResponse(c, gin.H{"id": id, "deleted": true})
}
