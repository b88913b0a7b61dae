package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fleetline/fleetline-backend/internal/database"
	"github.com/fleetline/fleetline-backend/internal/handlers"
	"github.com/fleetline/fleetline-backend/internal/middleware"
	"github.com/fleetline/fleetline-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Webhook relay (optional - disabled without credentials)
	relay, err := services.NewWebhookRelay()
	if err != nil {
		log.Fatalf("Failed to initialize webhook relay: %v", err)
	}

	// Chat archive (optional - disabled without credentials)
	archive, err := services.NewMessageArchive()
	if err != nil {
		log.Fatalf("Failed to initialize chat archive: %v", err)
	}

	// Wire the relay core
	store := database.NewStore(db)
	registry := services.NewRegistry()
	dispatcher := services.NewDispatcher(registry, relay)
	chat := services.NewChatService(store, registry, dispatcher, archive)
	engine := services.NewStatusEngine(store, chat)

	hub := services.NewHub(store, registry, dispatcher, engine, chat)
	go hub.Run()

	chat.StartSweeper(context.Background(), services.SweepInterval)

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Routes
	api := r.Group("/api")
	{
		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Signed callbacks from the delivery service
		api.POST("/webhooks/trips", handlers.TripCallback(relay, dispatcher))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.POST("/reservations", handlers.CreateReservation(db, dispatcher))

			trips := protected.Group("/trips")
			{
				trips.GET("/:tripId/status", handlers.GetTripStatus(db))
				trips.POST("/:tripId/webhooks", handlers.RegisterTripWebhook(db, relay))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
