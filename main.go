package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/erpcore/chatbot-backend/database"
	"github.com/erpcore/chatbot-backend/internal/jobs"
	"github.com/erpcore/chatbot-backend/internal/models"
	"github.com/erpcore/chatbot-backend/internal/routes"
	"github.com/erpcore/chatbot-backend/internal/services"
	"github.com/erpcore/chatbot-backend/internal/storage"
	"github.com/erpcore/chatbot-backend/internal/workflow"
)

const sessionTTL = 30 * time.Minute

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.ChatSession{},
			&models.WorkflowRecord{},
			&models.ChatMessage{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Pick the session backend
	var sessions services.SessionStore
	switch os.Getenv("SESSION_BACKEND") {
	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		redisStore, err := services.NewRedisSessionStore(addr, os.Getenv("REDIS_PASSWORD"), redisDB, sessionTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		sessions = redisStore
		log.Println("✅ Using Redis session backend")
	case "postgres":
		if database.DB == nil {
			log.Fatal("SESSION_BACKEND=postgres requires the database store")
		}
		sessions = services.NewDatabaseSessionStore(database.DB, sessionTTL)
		log.Println("✅ Using PostgreSQL session backend")
	default:
		sessions = services.NewMemorySessionStore(sessionTTL)
		log.Println("✅ Using in-memory session backend")
	}
	sessionManager := services.NewSessionManager(sessions)

	// Start the session cleanup sweep
	cleanupJob := jobs.NewCleanupJob(sessions, 5*time.Minute)
	cleanupJob.Start()

	// Document Q&A engine (falls back to a mock when not configured)
	var qa services.QAEngine
	if httpQA, err := services.NewHTTPQAEngine(); err == nil {
		qa = httpQA
		log.Println("✅ Document Q&A service configured")
	} else {
		log.Printf("⚠️  %v - document questions will get a fallback answer", err)
		qa = services.MockQAEngine{}
	}

	// Invoice extraction (route disabled when Azure is not configured)
	invoiceService, err := services.NewInvoiceService()
	if err != nil {
		log.Printf("⚠️  %v - invoice processing disabled", err)
		invoiceService = nil
	} else {
		log.Println("✅ Invoice extraction service configured")
	}

	engine := workflow.NewEngine(store, nil)
	chatService := services.NewChatService(sessionManager, engine, store, qa)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "ERP Chatbot Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Service info endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "ERP Chatbot Backend",
			"version": "1.0.0",
			"status":  "healthy",
			"storage": getStorageType(),
			"endpoints": fiber.Map{
				"health": "/health",
				"chat":   "/chat",
				"api":    "/api",
				"admin":  "/admin",
			},
			"workflows": workflow.Categories(),
		})
	})

	routes.SetupRoutes(app, store, chatService, invoiceService)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Register with the discovery server so the API gateway can find us
	portNum, _ := strconv.Atoi(port)
	hostName, _ := os.Hostname()
	discovery := services.NewDiscoveryService("AI-CHATBOT", hostName, portNum)
	if discovery != nil {
		if err := discovery.Start(); err != nil {
			log.Printf("⚠️  Discovery registration failed: %v", err)
			discovery = nil
		}
	} else {
		log.Println("⚠️  EUREKA_SERVER_URL not set - skipping discovery registration")
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		if discovery != nil {
			log.Println("⏹️  Deregistering from discovery...")
			discovery.Stop()
		}
		log.Println("⏹️  Stopping cleanup job...")
		cleanupJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 ERP Chatbot Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🗂  Session backend: %s", getSessionBackend())
	log.Printf("📚 Document Q&A: %s", getQAStatus())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getSessionBackend() string {
	switch os.Getenv("SESSION_BACKEND") {
	case "redis":
		return "Redis"
	case "postgres":
		return "PostgreSQL"
	}
	return "In-Memory"
}

func getQAStatus() string {
	if os.Getenv("QA_SERVICE_URL") == "" {
		return "Not configured"
	}
	return "Configured"
}
