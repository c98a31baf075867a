package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/JAntoniox9/basta-web-app/config"
	"github.com/JAntoniox9/basta-web-app/handlers"
	"github.com/JAntoniox9/basta-web-app/middleware"
	"github.com/JAntoniox9/basta-web-app/routes"
	"github.com/JAntoniox9/basta-web-app/services"
	"github.com/JAntoniox9/basta-web-app/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Select the room store backend
	roomStore := buildStore(cfg)

	// Optional external answer judge
	var judge services.Judge
	if cfg.OpenAIKey != "" {
		judge = services.NewOpenAIJudge(cfg.OpenAIKey, cfg.OpenAIModel)
		log.Printf("External answer validation enabled (model %s)", cfg.OpenAIModel)
	}

	// Initialize services
	scorer := services.NewScoringEngine(judge)
	roomService := services.NewRoomService(roomStore, scorer)
	chatService := services.NewChatService(roomStore)
	sessionService := services.NewSessionService(cfg.JWTSecret)

	// Initialize WebSocket hub
	hub := services.NewHub(roomService, chatService, sessionService)
	go hub.Run()

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(roomService, sessionService)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())
	routes.SetupRoutes(router, roomHandler, hub, sessionService)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// buildStore wires the primary backend chosen by configuration, always
// backed by the file store so writes survive a backend outage.
func buildStore(cfg *config.Config) store.RoomStore {
	fileStore := store.NewFileStore(cfg.CheckpointFile)

	switch cfg.StoreBackend {
	case "postgres":
		db, err := config.InitDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		pg, err := store.NewPostgresStore(db)
		if err != nil {
			log.Fatal("Failed to initialize postgres store:", err)
		}
		log.Printf("Using PostgreSQL room store with file fallback")
		return store.WithFallback(pg, fileStore)

	case "redis":
		rs := store.NewRedisStore(config.InitRedis(cfg))
		log.Printf("Using Redis room store with file fallback")
		return store.WithFallback(rs, fileStore)

	default:
		log.Printf("Using file-backed room store (%s)", cfg.CheckpointFile)
		return fileStore
	}
}
