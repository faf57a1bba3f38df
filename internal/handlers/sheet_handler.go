package handler

import (
	"errors"
	"net/http"
	"strconv"

	"budget-buddy-backend/internal/services/sheetstore"

	"github.com/gin-gonic/gin"
)

// SheetHandler exposes raw workbook access for the spreadsheet-style editor.
type SheetHandler struct {
	store *sheetstore.Store
}

func NewSheetHandler(store *sheetstore.Store) *SheetHandler {
	return &SheetHandler{store: store}
}

// ListSheets returns the worksheet names.
func (h *SheetHandler) ListSheets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sheets": h.store.SheetNames()})
}

// Rows returns a worksheet's rows, header included.
func (h *SheetHandler) Rows(c *gin.Context) {
	rows, err := h.store.Rows(c.Param("sheet"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// UpdateCell writes one cell of a worksheet.
func (h *SheetHandler) UpdateCell(c *gin.Context) {
	var payload struct {
		Cell  string `json:"cell"`
		Value any    `json:"value"`
	}
	if err := c.BindJSON(&payload); err != nil || payload.Cell == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell and value are required"})
		return
	}
	if err := h.store.UpdateCell(c.Param("sheet"), payload.Cell, payload.Value); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cell updated"})
}

// UpdateRow replaces the values of one row.
func (h *SheetHandler) UpdateRow(c *gin.Context) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row number"})
		return
	}
	var payload struct {
		Values []any `json:"values"`
	}
	if err := c.BindJSON(&payload); err != nil || len(payload.Values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "values are required"})
		return
	}
	if err := h.store.UpdateRow(c.Param("sheet"), row, payload.Values); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "row updated"})
}

// DeleteRow removes one row from a worksheet.
func (h *SheetHandler) DeleteRow(c *gin.Context) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row number"})
		return
	}
	if err := h.store.DeleteRow(c.Param("sheet"), row); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "row deleted"})
}

// AppendRow appends one row to a worksheet.
func (h *SheetHandler) AppendRow(c *gin.Context) {
	var payload struct {
		Values []any `json:"values"`
	}
	if err := c.BindJSON(&payload); err != nil || len(payload.Values) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "values are required"})
		return
	}
	if err := h.store.AppendRow(c.Param("sheet"), payload.Values); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "row appended"})
}

func (h *SheetHandler) storeError(c *gin.Context, err error) {
	if errors.Is(err, sheetstore.ErrSheetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "sheet not found"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
