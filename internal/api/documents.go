package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type IngestDocumentRequest struct {
	Source string `json:"source" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type SearchDocumentsRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// ingestDocument handles POST /api/v1/documents
func (s *Server) ingestDocument(c *gin.Context) {
	if s.rag == nil || !s.rag.Available() {
		s.errorResponse(c, http.StatusServiceUnavailable, "Retrieval is not configured. Set QDRANT_URL and HUGGINGFACE_HUB_TOKEN to enable it.")
		return
	}

	var req IngestDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	chunks, err := s.rag.IngestText(c.Request.Context(), req.Source, req.Text)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Failed to ingest document: "+err.Error())
		return
	}

	s.successResponse(c, gin.H{"source": req.Source, "chunks": chunks})
}

// searchDocuments handles POST /api/v1/documents/search
func (s *Server) searchDocuments(c *gin.Context) {
	if s.rag == nil || !s.rag.Available() {
		s.errorResponse(c, http.StatusServiceUnavailable, "Retrieval is not configured. Set QDRANT_URL and HUGGINGFACE_HUB_TOKEN to enable it.")
		return
	}

	var req SearchDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.errorResponse(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	results, err := s.rag.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		s.errorResponse(c, http.StatusInternalServerError, "Search failed: "+err.Error())
		return
	}

	s.successResponse(c, results)
}
