package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/loungely/knowledge-backend/internal/clients/blob"
	"github.com/loungely/knowledge-backend/internal/clients/openai"
	"github.com/loungely/knowledge-backend/internal/clients/redis"
	"github.com/loungely/knowledge-backend/internal/db"
	"github.com/loungely/knowledge-backend/internal/handlers"
	"github.com/loungely/knowledge-backend/internal/jobs/pipeline/bulk_embedding"
	"github.com/loungely/knowledge-backend/internal/jobs/pipeline/document_processing"
	"github.com/loungely/knowledge-backend/internal/jobs/pipeline/faq_embedding"
	"github.com/loungely/knowledge-backend/internal/jobs/pipeline/prompt_embedding"
	"github.com/loungely/knowledge-backend/internal/jobs/runtime"
	"github.com/loungely/knowledge-backend/internal/jobs/worker"
	"github.com/loungely/knowledge-backend/internal/middleware"
	"github.com/loungely/knowledge-backend/internal/pkg/envutil"
	"github.com/loungely/knowledge-backend/internal/pkg/logger"
	"github.com/loungely/knowledge-backend/internal/repos"
	"github.com/loungely/knowledge-backend/internal/retrieval"
	"github.com/loungely/knowledge-backend/internal/server"
	"github.com/loungely/knowledge-backend/internal/services"
	"github.com/loungely/knowledge-backend/internal/sse"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.Get("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	promptRepo := repos.NewPromptRepo(thePG, log)
	faqRepo := repos.NewFAQRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	chunkRepo := repos.NewDocumentChunkRepo(thePG, log)
	jobRepo := repos.NewBackgroundJobRepo(thePG, log)

	// SSE hub + optional Redis fanout
	sseHub := sse.NewSSEHub(log)
	ctx := context.Background()

	var sseBus redis.SSEBus
	var jobLock redis.JobLock
	if envutil.Get("REDIS_ADDR", "") != "" {
		sseBus, err = redis.NewSSEBus(log)
		if err != nil {
			log.Fatal("Redis SSE bus init failed", "error", err)
		}
		if err := sseBus.StartForwarder(ctx, sseHub.Broadcast); err != nil {
			log.Fatal("Redis SSE forwarder failed", "error", err)
		}
		jobLock, err = redis.NewJobLock(log)
		if err != nil {
			log.Fatal("Redis job lock init failed", "error", err)
		}
	} else {
		log.Warn("REDIS_ADDR not set, using in-process job lock; run a single instance")
		jobLock = redis.NewLocalJobLock()
	}

	// Clients
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("OpenAI client init failed", "error", err)
	}
	var blobStore blob.Store
	if envutil.Get("DOCUMENT_GCS_BUCKET_NAME", "") != "" {
		blobStore, err = blob.NewGCSStore(log)
	} else {
		blobStore, err = blob.NewLocalStore(log, envutil.Get("DOCUMENT_STORAGE_DIR", "./data/documents"))
	}
	if err != nil {
		log.Fatal("Blob store init failed", "error", err)
	}

	// Services
	log.Info("Setting up services...")
	jobNotifier := services.NewJobNotifier(log, sseHub, sseBus)
	jobService := services.NewJobService(thePG, log, jobRepo, jobLock, jobNotifier)
	authService, err := services.NewAuthService(thePG, log, userRepo)
	if err != nil {
		log.Fatal("auth service setup failed", "error", err)
	}
	categoryService := services.NewCategoryService(thePG, log, categoryRepo, promptRepo, faqRepo, documentRepo)
	promptService := services.NewPromptService(thePG, log, promptRepo, jobService)
	faqService := services.NewFAQService(thePG, log, faqRepo, jobService)
	documentService := services.NewDocumentService(thePG, log, documentRepo, chunkRepo, blobStore, jobService)

	engine := retrieval.NewEngine(log, openaiClient, promptRepo, faqRepo, documentRepo, chunkRepo)
	chatService := services.NewChatService(log, engine, openaiClient)

	// Job worker
	registry := runtime.NewRegistry()
	for _, h := range []runtime.Handler{
		prompt_embedding.New(log, promptRepo, openaiClient),
		faq_embedding.New(log, faqRepo, openaiClient),
		document_processing.New(log, documentRepo, chunkRepo, blobStore, openaiClient),
		bulk_embedding.New(log, promptRepo, faqRepo, documentRepo, openaiClient),
	} {
		if err := registry.Register(h); err != nil {
			log.Fatal("handler registration failed", "job_type", h.Type(), "error", err)
		}
	}
	jobWorker := worker.NewWorker(thePG, log, jobRepo, registry, jobNotifier)
	jobWorker.Start(ctx)

	// Handlers
	log.Info("Setting up handlers...")
	authHandler := handlers.NewAuthHandler(log, authService)
	categoryHandler := handlers.NewCategoryHandler(log, categoryService)
	promptHandler := handlers.NewPromptHandler(log, promptService)
	faqHandler := handlers.NewFAQHandler(log, faqService)
	documentHandler := handlers.NewDocumentHandler(log, documentService)
	searchHandler := handlers.NewSearchHandler(log, engine)
	chatHandler := handlers.NewChatHandler(log, chatService)
	jobsHandler := handlers.NewJobsHandler(log, jobService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		CategoryHandler: categoryHandler,
		PromptHandler:   promptHandler,
		FAQHandler:      faqHandler,
		DocumentHandler: documentHandler,
		SearchHandler:   searchHandler,
		ChatHandler:     chatHandler,
		JobsHandler:     jobsHandler,
		SSEHandler:      sseHandler,
	})

	port := envutil.Get("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
