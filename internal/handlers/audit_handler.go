package handler

import (
	"net/http"
	"strconv"

	"budget-buddy-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// AuditReader exposes the stored save audit trail. May be nil when the
// database is not configured.
type AuditReader interface {
	ListByReceipt(receiptID string) ([]models.SaveAuditLog, error)
	ListRecent(limit int) ([]models.SaveAuditLog, error)
}

type AuditHandler struct {
	repo AuditReader
}

func NewAuditHandler(repo AuditReader) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ByReceipt returns the audit entries recorded for one receipt id, newest
// first.
func (h *AuditHandler) ByReceipt(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is not configured"})
		return
	}
	entries, err := h.repo.ListByReceipt(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// Recent returns the latest saves across all receipts.
func (h *AuditHandler) Recent(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log is not configured"})
		return
	}
	limit := 0
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative number"})
			return
		}
		limit = n
	}
	entries, err := h.repo.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}
