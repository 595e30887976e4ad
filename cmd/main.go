package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/shadowshield/ShadowShield/internal/db"
	"github.com/shadowshield/ShadowShield/internal/handlers"
	"github.com/shadowshield/ShadowShield/internal/middleware"
	"github.com/shadowshield/ShadowShield/internal/services"
	"github.com/shadowshield/ShadowShield/internal/storage"
	"github.com/shadowshield/ShadowShield/internal/store"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}

	// Initialize Fiber
	app := fiber.New()
	// Initialize MinIO
	storage.InitMinio()
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Get MongoDB URI from environment
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017/shadow_shield" // Default fallback
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://shadowshield.io"
	}

	sweepInterval := time.Minute
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid SWEEP_INTERVAL: %v", err)
		}
		sweepInterval = d
	}

	// Connect to MongoDB
	mongoDB := db.ConnectMongoDB(mongoURI)
	engineStore := store.NewMongoStore(mongoDB)
	objects := storage.NewObjects()

	// Engine services
	securityLog := services.NewSecurityLog(engineStore)
	policies := services.NewPolicyService(engineStore)
	uploadSvc := services.NewUploadService(engineStore, objects, policies)
	issuerSvc := services.NewIssuerService(engineStore, policies, securityLog, services.LocalAttestor{}, baseURL)
	destroyerSvc := services.NewDestructionService(engineStore, objects, securityLog)
	evaluatorSvc := services.NewEvaluatorService(engineStore, destroyerSvc, securityLog, services.HeuristicClassifier{})
	statsSvc := services.NewStatsService(engineStore)

	if err := securityLog.Init(context.Background()); err != nil {
		log.Fatalf("Failed to initialize security log: %v", err)
	}

	handlers.Init(uploadSvc, issuerSvc, evaluatorSvc, destroyerSvc, securityLog, statsSvc, objects)

	// Time-based self-destruct sweeper
	sweeper := services.NewSweeperService(engineStore, destroyerSvc, sweepInterval, 4)
	go sweeper.Run(context.Background())

	// Auth Routes
	auth := app.Group("/auth")
	auth.Post("/register", handlers.RegisterHandler)
	auth.Post("/login", handlers.LoginHandler)

	// Presenter-facing access route (the credential id is the only secret)
	app.Get("/access/:id", handlers.AccessHandler)

	// File Routes
	file := app.Group("/file", middleware.AuthMiddleware)
	file.Post("/upload", handlers.UploadFileHandler)
	file.Get("/list", handlers.ListUserFilesHandler)
	file.Post("/:id/credentials", handlers.IssueCredentialsHandler)
	file.Post("/:id/destroy", handlers.DestroyFileHandler)

	// Admin Routes (security dashboard)
	admin := app.Group("/admin", middleware.AdminMiddleware)
	admin.Get("/security-log", handlers.SecurityLogHandler)
	admin.Post("/security-log/clear", handlers.ClearSecurityLogHandler)
	admin.Get("/stats", handlers.StatsHandler)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // Default port
	}

	// Start server
	log.Fatal(app.Listen(":" + port))
}
