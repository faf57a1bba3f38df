package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budget-buddy-backend/internal/models"
	"budget-buddy-backend/internal/services/dedupe"
	"budget-buddy-backend/internal/services/sheetstore"
	"budget-buddy-backend/internal/services/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, inputs []models.SubmittedInput, opts models.ExtractOptions) (*models.Receipt, error) {
	return &models.Receipt{
		MerchantDetails: models.MerchantDetails{Name: "Corner Shop"},
		PurchaseDate:    "15-01-2026",
		TotalAmounts:    models.TotalAmounts{Total: 3.5},
	}, nil
}

func newRouter(t *testing.T, secret []byte) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sheetstore.Open(filepath.Join(t.TempDir(), "receipts.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	r := gin.New()
	RegisterRoutes(r, Dependencies{
		Jobs:      upload.NewService(stubExtractor{}, upload.Limits{}, time.Second),
		Store:     store,
		Detector:  dedupe.NewDetector(dedupe.DefaultConfig()),
		JWTSecret: secret,
	})
	return r
}

func TestAnonymousUploadAllowedWithSecretSet(t *testing.T) {
	r := newRouter(t, []byte("router-test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/api/receipts/describe",
		strings.NewReader(`{"text":"corner shop, total 3.50"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job_id")
}

func TestAnonymousPollingAllowedWithSecretSet(t *testing.T) {
	r := newRouter(t, []byte("router-test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/receipts", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoriesRejectAnonymousWhenSecretSet(t *testing.T) {
	r := newRouter(t, []byte("router-test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/users/categories", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCategoriesOpenWithoutSecret(t *testing.T) {
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users/categories", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	r := newRouter(t, []byte("router-test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
