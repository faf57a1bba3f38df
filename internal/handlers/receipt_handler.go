package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"budget-buddy-backend/internal/constants"
	"budget-buddy-backend/internal/models"
	"budget-buddy-backend/internal/services/dedupe"
	"budget-buddy-backend/internal/services/upload"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// ReceiptStore is the slice of the row store the receipt handler needs.
type ReceiptStore interface {
	AppendReceipt(models.Receipt) error
	ListReceipts() ([]models.StoredReceipt, error)
}

// AuditWriter records confirmed saves.
type AuditWriter interface {
	Create(entry *models.SaveAuditLog) error
}

// CategorySource supplies per-user custom categories. May be nil when the
// database is not configured.
type CategorySource interface {
	ListByUser(userID string) ([]models.Category, error)
}

type ReceiptHandler struct {
	jobs       *upload.Service
	store      ReceiptStore
	detector   *dedupe.Detector
	audit      AuditWriter
	categories CategorySource
}

func NewReceiptHandler(jobs *upload.Service, store ReceiptStore, detector *dedupe.Detector, audit AuditWriter, categories CategorySource) *ReceiptHandler {
	return &ReceiptHandler{jobs: jobs, store: store, detector: detector, audit: audit, categories: categories}
}

// allowedCategories merges the default taxonomy with the user's custom
// categories when a user is authenticated.
func (h *ReceiptHandler) allowedCategories(c *gin.Context) []string {
	categories := constants.DefaultCategories()
	if h.categories == nil {
		return categories
	}
	userID := c.GetString("user_id")
	if userID == "" {
		return categories
	}
	custom, err := h.categories.ListByUser(userID)
	if err != nil {
		log.Printf("list custom categories: %v", err)
		return categories
	}
	for _, cat := range custom {
		categories = append(categories, cat.Name)
	}
	return categories
}

func readUpload(fh *multipart.FileHeader) (models.SubmittedInput, error) {
	f, err := fh.Open()
	if err != nil {
		return models.SubmittedInput{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.SubmittedInput{}, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = constants.ContentTypeForExt(filepath.Ext(fh.Filename))
	}
	return models.SubmittedInput{
		Kind:        models.InputFile,
		Filename:    fh.Filename,
		ContentType: ct,
		Data:        data,
	}, nil
}

func (h *ReceiptHandler) createJob(c *gin.Context, inputs []models.SubmittedInput) {
	opts := models.ExtractOptions{AllowedCategories: h.allowedCategories(c)}
	id, err := h.jobs.CreateJob(inputs, opts)
	if err != nil {
		var verr *upload.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": id, "status": models.StatusPending})
}

// Upload accepts one receipt file and starts a background extraction.
func (h *ReceiptHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	input, err := readUpload(fh)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	h.createJob(c, []models.SubmittedInput{input})
}

// UploadMultiple accepts several pages of the same receipt in one job.
func (h *ReceiptHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}

	inputs := make([]models.SubmittedInput, 0, len(files))
	for _, fh := range files {
		input, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file " + fh.Filename})
			return
		}
		inputs = append(inputs, input)
	}
	h.createJob(c, inputs)
}

// Describe starts an extraction from pasted receipt text instead of a file.
func (h *ReceiptHandler) Describe(c *gin.Context) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	h.createJob(c, []models.SubmittedInput{{Kind: models.InputText, Text: payload.Text}})
}

// Status reports the job state the frontend polls for.
func (h *ReceiptHandler) Status(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// List returns every tracked job, newest first.
func (h *ReceiptHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.ListJobs()})
}

// Get returns one job with its extracted receipt.
func (h *ReceiptHandler) Get(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// Delete discards a job without saving.
func (h *ReceiptHandler) Delete(c *gin.Context) {
	if _, err := h.jobs.GetJob(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	h.jobs.DeleteJob(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

func (h *ReceiptHandler) fileInputs(c *gin.Context) ([]models.SubmittedInput, bool) {
	inputs, err := h.jobs.Inputs(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return nil, false
	}
	files := make([]models.SubmittedInput, 0, len(inputs))
	for _, in := range inputs {
		if in.Kind == models.InputFile {
			files = append(files, in)
		}
	}
	return files, true
}

// Images lists the stored file inputs of a job, so the review UI can show
// which scans back the extracted receipt.
func (h *ReceiptHandler) Images(c *gin.Context) {
	files, ok := h.fileInputs(c)
	if !ok {
		return
	}
	images := make([]gin.H, 0, len(files))
	for i, in := range files {
		images = append(images, gin.H{
			"index":        i,
			"filename":     in.Filename,
			"content_type": in.ContentType,
			"size":         len(in.Data),
		})
	}
	c.JSON(http.StatusOK, gin.H{"images": images, "count": len(images)})
}

// Image serves one stored file input back, the first unless index is given.
func (h *ReceiptHandler) Image(c *gin.Context) {
	files, ok := h.fileInputs(c)
	if !ok {
		return
	}
	index := 0
	if q := c.Query("index"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a number"})
			return
		}
		index = n
	}
	if index < 0 || index >= len(files) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no stored image at that index"})
		return
	}
	in := files[index]
	c.Header("Content-Disposition", `inline; filename="`+in.Filename+`"`)
	c.Data(http.StatusOK, in.ContentType, in.Data)
}

// CheckDuplicates runs the duplicate detector for a completed job without
// saving anything.
func (h *ReceiptHandler) CheckDuplicates(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if job.Receipt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job has no extracted receipt yet"})
		return
	}
	matches, err := h.findDuplicates(*job.Receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"duplicate_detected": len(matches) > 0,
		"duplicates":         matches,
	})
}

func (h *ReceiptHandler) findDuplicates(receipt models.Receipt) ([]dedupe.Match, error) {
	existing, err := h.store.ListReceipts()
	if err != nil {
		return nil, err
	}
	return h.detector.FindDuplicates(receipt, existing), nil
}

// Confirm validates the (possibly edited) receipt, runs the duplicate check
// unless force_save is set, persists the rows and drops the job.
func (h *ReceiptHandler) Confirm(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.jobs.GetJob(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	var payload models.ReceiptConfirmRequest
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	receipt := payload.Receipt
	receipt.Normalize()
	if err := receipt.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	forceSave := strings.EqualFold(c.Query("force_save"), "true")
	var matches []dedupe.Match
	if !forceSave {
		var err error
		matches, err = h.findDuplicates(receipt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(matches) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"duplicate_detected": true,
				"duplicates":         matches,
				"message":            "possible duplicate found, retry with force_save=true to save anyway",
			})
			return
		}
	} else if h.audit != nil {
		// the save proceeds regardless, but the audit trail records what
		// the override skipped past
		matches, _ = h.findDuplicates(receipt)
	}

	if err := h.store.AppendReceipt(receipt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save receipt"})
		return
	}
	h.writeAudit(c, id, receipt, forceSave, matches)
	h.jobs.DeleteJob(id)

	c.JSON(http.StatusOK, gin.H{
		"message": "receipt saved",
		"receipt": receipt,
	})
}

func (h *ReceiptHandler) writeAudit(c *gin.Context, jobID string, receipt models.Receipt, forced bool, matches []dedupe.Match) {
	if h.audit == nil {
		return
	}
	entry := &models.SaveAuditLog{
		ReceiptID:      jobID,
		Merchant:       receipt.MerchantDetails.Name,
		PurchaseDate:   receipt.PurchaseDate,
		Total:          receipt.TotalAmounts.Total,
		ItemsSaved:     len(receipt.LineItems),
		Forced:         forced,
		DuplicateCount: len(matches),
		PerformedBy:    c.GetString("user_id"),
	}
	if len(matches) > 0 {
		if b, err := json.Marshal(matches); err == nil {
			entry.Duplicates = datatypes.JSON(b)
		}
	}
	if err := h.audit.Create(entry); err != nil {
		log.Printf("save audit log: %v", err)
	}
}

// Reprocess re-runs the extraction with user feedback and returns the
// corrected receipt.
func (h *ReceiptHandler) Reprocess(c *gin.Context) {
	var payload models.ReceiptReprocessRequest
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.UserFeedback) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_feedback is required"})
		return
	}

	opts := models.ExtractOptions{
		AllowedCategories: h.allowedCategories(c),
		UserFeedback:      payload.UserFeedback,
		Previous:          payload.OriginalReceipt,
	}
	receipt, err := h.jobs.Reprocess(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		default:
			var verr *upload.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "receipt reprocessed", "receipt": receipt})
}

// History lists the receipts already saved to the workbook.
func (h *ReceiptHandler) History(c *gin.Context) {
	receipts, err := h.store.ListReceipts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": receipts, "count": len(receipts)})
}
