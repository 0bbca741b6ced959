package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/terrainnova-ai/server/internal/documents"
	"github.com/terrainnova-ai/server/internal/model"
)

func (h *handler) uploadPDF(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStatus(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		badRequest(c, "file is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		badRequest(c, "only PDF files are allowed")
		return
	}
	if file.Size > h.MaxUploadBytes {
		writeErrorStatus(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.MaxUploadBytes+1))
	if err != nil {
		badRequest(c, "could not read file")
		return
	}

	res, err := h.Documents.Ingest(c.Request.Context(), documents.IngestRequest{
		UserID:   c.PostForm("user_id"),
		DocName:  c.PostForm("doc_name"),
		Filename: file.Filename,
		Data:     data,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type searchRequest struct {
	Query string `json:"query" form:"query"`
	TopK  int    `json:"top_k" form:"top_k"`
}

// searchDocuments accepts query and top_k as query parameters or a JSON body.
func (h *handler) searchDocuments(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "top_k must be an integer")
		return
	}
	if req.Query == "" && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid search request")
			return
		}
	}

	results, err := h.Documents.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}
	if results == nil {
		results = []model.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{
		"query":         req.Query,
		"results":       results,
		"total_results": len(results),
	})
}

func (h *handler) listDocuments(c *gin.Context) {
	userID := c.Param("user_id")
	docs, err := h.Documents.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "documents": docs, "total": len(docs)})
}

func (h *handler) deleteDocument(c *gin.Context) {
	docID := c.Param("doc_id")
	n, err := h.Documents.DeleteDocument(c.Request.Context(), docID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doc_id": docID, "deleted_chunks": n})
}
