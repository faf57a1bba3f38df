package main

import (
	"context"
	"log"
	"time"

	"budget-buddy-backend/internal/config"
	"budget-buddy-backend/internal/ingest"
	"budget-buddy-backend/internal/models"
	"budget-buddy-backend/internal/routes"
	"budget-buddy-backend/internal/services/dedupe"
	"budget-buddy-backend/internal/services/extraction"
	"budget-buddy-backend/internal/services/sheetstore"
	"budget-buddy-backend/internal/services/upload"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()

	var db *gorm.DB
	if cfg.Database.DSN != "" {
		db = config.InitDB(cfg.Database.DSN)
		if err := db.AutoMigrate(&models.Category{}, &models.SaveAuditLog{}); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, audit log and custom categories disabled")
	}

	store, err := sheetstore.Open(cfg.Sheet.WorkbookPath)
	if err != nil {
		log.Fatalf("open workbook: %v", err)
	}
	defer store.Close()

	extractor, err := extraction.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		log.Fatalf("init extraction client: %v", err)
	}

	jobs := upload.NewService(extractor, upload.Limits{
		MaxFileSize: cfg.Upload.MaxFileSize,
		MaxFiles:    cfg.Upload.MaxFiles,
	}, cfg.LLM.Timeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs.StartJanitor(ctx, 10*time.Minute, cfg.Upload.JobRetention)

	if len(cfg.Watch.Dirs) > 0 {
		watcher := ingest.NewWatcher(jobs, cfg.Watch.Dirs, 500*time.Millisecond)
		if err := watcher.Start(ctx); err != nil {
			log.Fatalf("start watch folders: %v", err)
		}
		log.Printf("watching %d folder(s) for receipt files", len(cfg.Watch.Dirs))
	}

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Dependencies{
		DB:        db,
		Jobs:      jobs,
		Store:     store,
		Detector:  dedupe.NewDetector(dedupe.DefaultConfig()),
		JWTSecret: []byte(cfg.Auth.JWTSecret),
	})

	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
