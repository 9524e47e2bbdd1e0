package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/kydy-backend/internal/db"
	"github.com/yungbote/kydy-backend/internal/handlers"
	"github.com/yungbote/kydy-backend/internal/logger"
	"github.com/yungbote/kydy-backend/internal/observability"
	"github.com/yungbote/kydy-backend/internal/primcache"
	"github.com/yungbote/kydy-backend/internal/repos"
	"github.com/yungbote/kydy-backend/internal/server"
	"github.com/yungbote/kydy-backend/internal/services"
	"github.com/yungbote/kydy-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Observability
	observability.Init()
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "kydy-backend",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				log.Warn("OTel shutdown failed", "error", err)
			}
		}()
	}

	// Database
	dbService, err := db.NewDBService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := dbService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	lessonRepo := repos.NewLessonRepo(theDB, log)
	sessionRepo := repos.NewSessionRepo(theDB, log)

	// Primitive cache
	log.Info("Setting up primitive cache from main...")
	var cacheStore primcache.Store
	if redisAddr := utils.GetEnv("REDIS_ADDR", "", log); redisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: utils.GetEnv("REDIS_PASSWORD", "", nil),
		})
		cacheStore = primcache.NewRedisStore(client, utils.GetEnv("REDIS_CACHE_KEY", "", nil), log)
	} else {
		cachePath := utils.GetEnv("PRIMITIVES_CACHE_FILE", filepath.Join("data", "primitives_cache.json"), log)
		cacheStore = primcache.NewFileStore(cachePath, log)
	}
	cache, err := primcache.New(cacheStore, log)
	if err != nil {
		log.Error("Could not load primitive cache", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	starvector := services.NewStarVectorClient(log)
	resolver := services.NewPrimitiveResolver(cache, starvector, log)
	assetStore := services.NewFileAssetStore(log)
	renderedStore := services.NewFileRenderedStore(log)
	extractor := services.NewGeminiExtractor(log)
	assembler := services.NewLessonAssembler(resolver, assetStore, log)
	lessonService := services.NewLessonService(extractor, assembler, lessonRepo, assetStore, renderedStore, log)
	sessionService := services.NewSessionService(sessionRepo, lessonService, renderedStore, log)

	// Handlers
	log.Info("Setting up handlers from main...")
	lessonHandler := handlers.NewLessonHandler(lessonService, renderedStore)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		LessonHandler:  lessonHandler,
		SessionHandler: sessionHandler,
		AssetsDir:      assetStore.Dir(),
	})

	port := utils.GetEnv("PORT", "8000", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
