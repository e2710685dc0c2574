package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/pawquest-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName    string
	SessionHandler *handlers.SessionHandler
	ContentHandler *handlers.ContentHandler
	AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/paths", cfg.SessionHandler.ListPaths)
		api.GET("/content/categories", cfg.ContentHandler.ListCategories)
		api.GET("/content/cache/stats", cfg.ContentHandler.CacheStats)

		api.POST("/sessions", cfg.SessionHandler.Start)
		api.GET("/sessions/:id", cfg.SessionHandler.Get)
		api.POST("/sessions/:id/questions", cfg.SessionHandler.Draw)
		api.POST("/sessions/:id/answers", cfg.SessionHandler.Answer)
		api.POST("/sessions/:id/gameover", cfg.SessionHandler.GameOver)
		api.GET("/sessions/:id/progress", cfg.SessionHandler.Progress)
		api.DELETE("/sessions/:id", cfg.SessionHandler.End)
	}

	return router
}
