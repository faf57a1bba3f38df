package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budget-buddy-backend/internal/auth"
	handler "budget-buddy-backend/internal/handlers"
	"budget-buddy-backend/internal/repository"
	"budget-buddy-backend/internal/services/analysis"
	"budget-buddy-backend/internal/services/dedupe"
	"budget-buddy-backend/internal/services/sheetstore"
	"budget-buddy-backend/internal/services/upload"
)

// Dependencies carries the shared services the routes are built on. DB may be
// nil, in which case audit logging and custom categories are disabled.
type Dependencies struct {
	DB        *gorm.DB
	Jobs      *upload.Service
	Store     *sheetstore.Store
	Detector  *dedupe.Detector
	JWTSecret []byte
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	var (
		categoryRepo *repository.CategoryRepository
		auditRepo    *repository.AuditRepository
	)
	if deps.DB != nil {
		categoryRepo = repository.NewCategoryRepository(deps.DB)
		auditRepo = repository.NewAuditRepository(deps.DB)
	}

	analysisService := analysis.NewService(deps.Store, deps.Store)

	var categorySource handler.CategorySource
	var auditWriter handler.AuditWriter
	var auditReader handler.AuditReader
	if categoryRepo != nil {
		categorySource = categoryRepo
	}
	if auditRepo != nil {
		auditWriter = auditRepo
		auditReader = auditRepo
	}

	receiptHandler := handler.NewReceiptHandler(deps.Jobs, deps.Store, deps.Detector, auditWriter, categorySource)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	budgetHandler := handler.NewBudgetHandler(deps.Store)
	sheetHandler := handler.NewSheetHandler(deps.Store)
	categoryHandler := handler.NewCategoryHandler(categoryRepo)
	auditHandler := handler.NewAuditHandler(auditReader)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Anonymous uploads and polling are allowed; a valid token only scopes
	// custom categories and the audit trail.
	api.Use(auth.OptionalAuth(deps.JWTSecret))

	// Receipt upload and job tracking
	receipts := api.Group("/receipts")
	receipts.POST("/upload", receiptHandler.Upload)
	receipts.POST("/upload-multiple", receiptHandler.UploadMultiple)
	receipts.POST("/describe", receiptHandler.Describe)
	receipts.GET("", receiptHandler.List)
	receipts.GET("/history", receiptHandler.History)
	receipts.GET("/:id", receiptHandler.Get)
	receipts.GET("/:id/status", receiptHandler.Status)
	receipts.GET("/:id/check-duplicates", receiptHandler.CheckDuplicates)
	receipts.GET("/:id/image", receiptHandler.Image)
	receipts.HEAD("/:id/image", receiptHandler.Image)
	receipts.GET("/:id/images", receiptHandler.Images)
	receipts.GET("/:id/audit", auditHandler.ByReceipt)
	receipts.PUT("/:id/confirm", receiptHandler.Confirm)
	receipts.POST("/:id/reprocess", receiptHandler.Reprocess)
	receipts.DELETE("/:id", receiptHandler.Delete)

	// Save audit trail
	api.GET("/audit-logs", auditHandler.Recent)

	// Analytics
	analysisGroup := api.Group("/analysis")
	analysisGroup.GET("/trends", analysisHandler.Trends)
	analysisGroup.GET("/forecast", analysisHandler.Forecast)
	analysisGroup.GET("/categorization", analysisHandler.Categorization)
	analysisGroup.GET("/budget-status", analysisHandler.BudgetStatus)

	// Budgets and goals
	budgets := api.Group("/budgets")
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.POST("", budgetHandler.SaveBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	goals := api.Group("/goals")
	goals.GET("", budgetHandler.ListGoals)
	goals.POST("", budgetHandler.SaveGoal)
	goals.DELETE("/:id", budgetHandler.DeleteGoal)
	goals.GET("/:id/transactions", budgetHandler.ListGoalTransactions)
	goals.POST("/:id/transactions", budgetHandler.AddGoalTransaction)

	// Raw workbook access
	sheets := api.Group("/sheets")
	sheets.GET("", sheetHandler.ListSheets)
	sheets.GET("/:sheet/rows", sheetHandler.Rows)
	sheets.POST("/:sheet/rows", sheetHandler.AppendRow)
	sheets.PUT("/:sheet/rows/:row", sheetHandler.UpdateRow)
	sheets.DELETE("/:sheet/rows/:row", sheetHandler.DeleteRow)
	sheets.PUT("/:sheet/cell", sheetHandler.UpdateCell)

	// Custom categories, per-user so a verified token is required
	categories := api.Group("/users/categories")
	if len(deps.JWTSecret) > 0 {
		categories.Use(auth.RequireAuth(deps.JWTSecret))
	}
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.PUT("/:id", categoryHandler.Rename)
	categories.DELETE("/:id", categoryHandler.Delete)
}
