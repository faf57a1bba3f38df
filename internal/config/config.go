package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration, loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	LLM      LLMConfig
	Sheet    SheetConfig
	Auth     AuthConfig
	Watch    WatchConfig
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN string
}

// UploadConfig bounds what a single submission may contain.
type UploadConfig struct {
	Dir          string
	MaxFileSize  int64 // bytes, per file
	MaxFiles     int   // per submission
	JobRetention time.Duration
}

type LLMConfig struct {
	Model   string
	APIKey  string
	Timeout time.Duration
}

// SheetConfig points at the workbook acting as the row store.
type SheetConfig struct {
	WorkbookPath string
}

type AuthConfig struct {
	JWTSecret string
}

type WatchConfig struct {
	Dirs []string
}

// Load reads configuration from the environment with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        getEnv("ADDR", ":8080"),
			CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_URL", ""),
		},
		Upload: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize:  getEnvAsInt64("MAX_UPLOAD_SIZE", 10*1024*1024),
			MaxFiles:     getEnvAsInt("MAX_UPLOAD_FILES", 5),
			JobRetention: getEnvAsDuration("JOB_RETENTION", time.Hour),
		},
		LLM: LLMConfig{
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Sheet: SheetConfig{
			WorkbookPath: getEnv("WORKBOOK_PATH", "data/receipts.xlsx"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Watch: WatchConfig{
			Dirs: getEnvAsList("WATCH_DIRS", nil),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
