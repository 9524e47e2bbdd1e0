package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/kydy-backend/internal/handlers"
	"github.com/yungbote/kydy-backend/internal/utils"
)

type RouterConfig struct {
	LessonHandler  *handlers.LessonHandler
	SessionHandler *handlers.SessionHandler
	AssetsDir      string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	origins := strings.Split(utils.GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173", nil), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("kydy-backend"))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/metricsz", handlers.Metrics)

	// Lessons
	router.POST("/generate", cfg.LessonHandler.Generate)
	router.GET("/lesson/:id", cfg.LessonHandler.GetLesson)
	router.GET("/lessons", cfg.LessonHandler.ListLessons)
	router.GET("/render/:id", cfg.LessonHandler.RenderLesson)
	router.GET("/render/:id/embed", cfg.LessonHandler.RenderLessonEmbed)
	router.GET("/rendered", cfg.LessonHandler.ListRendered)
	router.GET("/rendered/:filename", cfg.LessonHandler.GetRendered)

	// Sessions
	router.POST("/sessions", cfg.SessionHandler.Save)
	router.GET("/sessions", cfg.SessionHandler.List)
	router.GET("/sessions/:id", cfg.SessionHandler.Get)
	router.PUT("/sessions/:id", cfg.SessionHandler.Update)
	router.GET("/sessions/:id/render", cfg.SessionHandler.Render)
	router.GET("/sessions/:id/render/embed", cfg.SessionHandler.RenderEmbed)

	// Assets
	router.Static("/assets", cfg.AssetsDir)

	return router
}
