package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/rezervo-app/rezervo-backend/database"
	"github.com/rezervo-app/rezervo-backend/internal/handlers"
	"github.com/rezervo-app/rezervo-backend/internal/jobs"
	"github.com/rezervo-app/rezervo-backend/internal/metrics"
	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/realtime"
	"github.com/rezervo-app/rezervo-backend/internal/routes"
	"github.com/rezervo-app/rezervo-backend/internal/services"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

const version = "1.0.0"

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
			&models.PhoneVerification{},
			&models.VerifiedPhone{},
			&models.PushSubscription{},
			&models.UserPushSubscription{},
			&models.Notification{},
			&models.WhatsAppMessageLog{},
			&models.Appointment{},
			&models.Business{},
			&models.FavoriteBusiness{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	m := metrics.Registry("rezervo")
	hub := realtime.NewHub()

	// Initialize channel clients
	whatsappService, err := services.NewWhatsAppService(store, m)
	if err != nil {
		log.Fatal("Failed to initialize WhatsApp service:", err)
	}
	log.Println("✅ WhatsApp service initialized")

	pushService, err := services.NewPushService(store, hub, m)
	if err != nil {
		log.Fatal("Failed to initialize push service:", err)
	}
	log.Println("✅ Push service initialized")

	// Initialize core services
	verificationService := services.NewVerificationService(store, whatsappService, m)
	notifierService := services.NewNotifierService(store, pushService, whatsappService)

	// Start scheduled jobs
	reminderJob := jobs.NewReminderJob(store, notifierService)
	reminderJob.Start()
	cleanupJob := jobs.NewCleanupJob(verificationService)
	cleanupJob.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Rezervo Backend v" + version,
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
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	healthHandler := handlers.NewHealthHandler(version, database.DB, whatsappService)
	routes.SetupRoutes(app, store, verificationService, hub, healthHandler)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		log.Println("⏹️  Stopping scheduled jobs...")
		reminderJob.Stop()
		cleanupJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 Rezervo Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Println("📱 WhatsApp: Configured")
	log.Println("🔔 Web Push: Configured")
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
