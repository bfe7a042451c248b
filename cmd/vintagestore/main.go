package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"vintagestore/internal/cache"
	"vintagestore/internal/config"
	"vintagestore/internal/http/handlers"
	applog "vintagestore/internal/log"
	"vintagestore/internal/repos"
	"vintagestore/internal/tracking"
	"vintagestore/internal/upload"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fatal("db.open.fail", err, map[string]any{"driver": cfg.DBDriver})
	}
	db.WithRetry(repos.DefaultMaxRetries, cfg.DBRetryDelay)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := openCache(ctx, cfg)

	if created, err := repos.NewUserRepo(db).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		fatal("admin.bootstrap.fail", err, map[string]any{"email": cfg.AdminEmail})
	} else if created {
		applog.Event("admin.bootstrap", map[string]any{"email": cfg.AdminEmail})
	}

	uploader := upload.New(cfg.UploadServiceURL, 30*time.Second)
	sender := tracking.NewSender(cfg.MetaAPIURL, cfg.MetaPixelID, cfg.MetaAccessToken, 10*time.Second)

	deps := handlers.NewDeps(db, cfg, c, uploader, sender)
	app := handlers.NewApp(deps, handlers.Limits{})

	if err := app.Listen(":" + cfg.Port); err != nil {
		fatal("server.listen.fail", err, map[string]any{"port": cfg.Port})
	}
}

// fatal records a startup failure as an error event and exits.
func fatal(action string, err error, fields map[string]any) {
	applog.Fail(action, err, fields)
	os.Exit(1)
}

// openCache falls back to the in-process cache when Redis is unreachable.
func openCache(ctx context.Context, cfg config.Config) cache.Cache {
	if cfg.CacheBackend == "redis" {
		r := cache.NewRedis(cache.NewRedisClient(cfg.RedisAddr), "vintagestore:")
		err := r.Ping(ctx)
		if err == nil {
			log.Printf("[cache] redis at %s", cfg.RedisAddr)
			return r
		}
		applog.Warn("cache.redis.unavailable", err, map[string]any{"addr": cfg.RedisAddr})
		_ = r.Close()
	}
	log.Printf("[cache] in-memory")
	return cache.NewMemory(time.Minute)
}
