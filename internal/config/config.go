package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBDriver string // sqlite | mysql
	DBDSN    string
	LogFile  string

	CacheBackend string // memory | redis
	RedisAddr    string

	ImageBaseURL     string
	UploadServiceURL string

	WhatsAppNumber string
	Currency       string

	MetaPixelID     string
	MetaAccessToken string
	MetaAPIURL      string

	AdminEmail    string
	AdminPassword string

	DBRetryDelay time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using process environment")
	}

	cfg := Config{
		Port:             getenv("PORT", "8080"),
		DBDriver:         getenv("DB_DRIVER", "sqlite"),
		DBDSN:            getenv("DB_DSN", "vintagestore.db"), // sqlite file in project root
		LogFile:          getenv("LOG_FILE", "./vintagestore.log"),
		CacheBackend:     getenv("CACHE_BACKEND", "memory"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		ImageBaseURL:     getenv("IMAGE_BASE_URL", "https://images.vintagestore.test"),
		UploadServiceURL: getenv("UPLOAD_SERVICE_URL", "http://localhost:4000/upload"),
		WhatsAppNumber:   getenv("WHATSAPP_NUMBER", ""),
		Currency:         getenv("CURRENCY", "ARS"),
		MetaPixelID:      getenv("META_PIXEL_ID", ""),
		MetaAccessToken:  getenv("META_ACCESS_TOKEN", ""),
		MetaAPIURL:       getenv("META_API_URL", "https://graph.facebook.com/v18.0"),
		AdminEmail:       getenv("ADMIN_EMAIL", "admin@vintagestore.test"),
		AdminPassword:    getenv("ADMIN_PASSWORD", "Passw0rd!"),
		DBRetryDelay:     getduration("DB_RETRY_DELAY", 500*time.Millisecond),
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s CACHE_BACKEND=%s IMAGE_BASE_URL=%s UPLOAD_SERVICE_URL=%s LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, cfg.CacheBackend, cfg.ImageBaseURL, cfg.UploadServiceURL, cfg.LogFile)
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getduration accepts Go durations ("750ms") or plain milliseconds ("750").
func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("[config] ignoring invalid %s=%q", k, v)
	return def
}
