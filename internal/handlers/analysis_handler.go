package handler

import (
	"net/http"
	"strconv"
	"strings"

	"budget-buddy-backend/internal/services/analysis"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	service *analysis.Service
}

func NewAnalysisHandler(service *analysis.Service) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Trends returns spending time series per category.
func (h *AnalysisHandler) Trends(c *gin.Context) {
	data, err := h.service.Trends(
		c.DefaultQuery("period", "monthly"),
		c.DefaultQuery("date_filter", "all"),
		c.Query("start_date"),
		c.Query("end_date"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// Forecast projects next-month spending per category.
func (h *AnalysisHandler) Forecast(c *gin.Context) {
	data, err := h.service.Forecast()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// Categorization breaks down spending per category for a filtered window.
func (h *AnalysisHandler) Categorization(c *gin.Context) {
	filters := analysis.CategoryFilters{}
	if raw := c.Query("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				filters.Categories = append(filters.Categories, cat)
			}
		}
	}
	if raw := c.Query("min_amount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinAmount = &v
		}
	}
	if raw := c.Query("max_amount"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MaxAmount = &v
		}
	}

	data, err := h.service.Categories(
		c.DefaultQuery("period", "all"),
		c.Query("start_date"),
		c.Query("end_date"),
		filters,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// BudgetStatus reports every budget with live spend numbers.
func (h *AnalysisHandler) BudgetStatus(c *gin.Context) {
	data, err := h.service.BudgetStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}
