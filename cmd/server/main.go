package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/bloomworks/florapost/configs"
	"github.com/bloomworks/florapost/internal/ai"
	"github.com/bloomworks/florapost/internal/api/handlers"
	"github.com/bloomworks/florapost/internal/api/middleware"
	job "github.com/bloomworks/florapost/internal/jobs"
	"github.com/bloomworks/florapost/internal/pipeline"
	"github.com/bloomworks/florapost/internal/queue"
	"github.com/bloomworks/florapost/internal/repository"
	"github.com/bloomworks/florapost/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	claudeClient := ai.NewClient(cfg.AnthropicAPIKey)

	authService := service.NewAuthService(*cfg)
	storageService := service.NewStorageService(*cfg)
	analyzerService := service.NewAnalyzerService(*cfg, claudeClient)
	contentService := service.NewContentService(*cfg, claudeClient)
	videoService := service.NewVideoService(*cfg, storageService)
	postService := service.NewPostService(*cfg, postRepo, storageService)
	naverService := service.NewNaverService(*cfg, accountRepo)
	instagramService := service.NewInstagramService(*cfg, accountRepo)
	youtubeService := service.NewYoutubeService(*cfg, accountRepo)
	publisherService := service.NewPublisherService(accountRepo, naverService, instagramService, youtubeService)
	platformService := service.NewPlatformService(*cfg, accountRepo, naverService, instagramService, youtubeService)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)

	contentPipeline := pipeline.New(postRepo, analyzerService, contentService, videoService, publisherService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/auth/token", auth.Login)
	app.Post("/auth/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(platformService, naverService, instagramService, youtubeService, *cfg)
	app.Get("/auth/:platform", authMiddleware.AuthMiddleware(), platform.AddPlatformAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/remove", post.RemovePost)

	// connected accounts api routes
	api.Get("/accounts", platform.ListPlatformAccounts)
	api.Post("/accounts/remove", platform.DisconnectPlatformAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(accountRepo, naverService, instagramService, youtubeService)
	requeueJob := job.NewRequeueJob(postRepo, client)

	// queue
	queueW := queue.NewQueue(contentPipeline)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.AddFunc("@every 00h05m00s", requeueJob.RequeueStuckPosts)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeProcessPost, queueW.HandleProcessPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
