package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/loungely/knowledge-backend/internal/handlers"
	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	CategoryHandler *handlers.CategoryHandler
	PromptHandler   *handlers.PromptHandler
	FAQHandler      *handlers.FAQHandler
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	ChatHandler     *handlers.ChatHandler
	JobsHandler     *handlers.JobsHandler
	SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(envutil.Get("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Categories
		protected.POST("/categories", cfg.CategoryHandler.Create)
		protected.GET("/categories", cfg.CategoryHandler.List)
		protected.GET("/categories/:id", cfg.CategoryHandler.GetByID)
		protected.PATCH("/categories/:id", cfg.CategoryHandler.Update)
		protected.DELETE("/categories/:id", cfg.CategoryHandler.Delete)

		// Prompts
		protected.POST("/prompts", cfg.PromptHandler.Create)
		protected.GET("/prompts", cfg.PromptHandler.List)
		protected.GET("/prompts/:id", cfg.PromptHandler.GetByID)
		protected.PATCH("/prompts/:id", cfg.PromptHandler.Update)
		protected.DELETE("/prompts/:id", cfg.PromptHandler.Delete)

		// FAQs
		protected.POST("/faqs", cfg.FAQHandler.Create)
		protected.GET("/faqs", cfg.FAQHandler.List)
		protected.GET("/faqs/:id", cfg.FAQHandler.GetByID)
		protected.PATCH("/faqs/:id", cfg.FAQHandler.Update)
		protected.DELETE("/faqs/:id", cfg.FAQHandler.Delete)

		// Documents
		protected.POST("/documents", cfg.DocumentHandler.Upload)
		protected.GET("/documents", cfg.DocumentHandler.List)
		protected.GET("/documents/:id", cfg.DocumentHandler.GetByID)
		protected.GET("/documents/:id/chunks", cfg.DocumentHandler.ListChunks)
		protected.PATCH("/documents/:id", cfg.DocumentHandler.Update)
		protected.POST("/documents/:id/reprocess", cfg.DocumentHandler.Reprocess)
		protected.DELETE("/documents/:id", cfg.DocumentHandler.Delete)

		// Search + chat
		protected.POST("/search", cfg.SearchHandler.Search)
		protected.POST("/chat", cfg.ChatHandler.Ask)

		// Jobs
		protected.GET("/jobs", cfg.JobsHandler.List)
		protected.GET("/jobs/:id", cfg.JobsHandler.GetByID)
		protected.GET("/jobs/entity/:type/:id", cfg.JobsHandler.ListByEntity)
		protected.POST("/jobs/bulk-embed", cfg.JobsHandler.EnqueueBulkEmbed)

		// SSE
		protected.GET("/sse/stream", cfg.SSEHandler.Stream)
	}

	return router
}
