package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/JAntoniox9/basta-web-app/handlers"
	"github.com/JAntoniox9/basta-web-app/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the router level
	},
}

func SetupRoutes(
	router *gin.Engine,
	roomHandler *handlers.RoomHandler,
	hub *services.Hub,
	sessions *services.SessionService,
) {
	router.POST("/create", roomHandler.CreateRoom)
	router.POST("/join", roomHandler.JoinRoom)

	api := router.Group("/api")
	{
		api.GET("/rooms", roomHandler.ListRooms)
		api.GET("/rooms/:code", roomHandler.GetRoom)
	}

	// WebSocket endpoint for real-time game communication. Identity comes
	// either from query parameters or from a session token issued on join.
	router.GET("/ws/:code", func(c *gin.Context) {
		code := strings.ToUpper(c.Param("code"))
		player := c.Query("jugador")

		if token := c.Query("token"); token != "" {
			if tokenCode, tokenPlayer, err := sessions.ParseToken(token); err == nil {
				code, player = tokenCode, tokenPlayer
			} else {
				log.Printf("Ignoring invalid session token on websocket connect: %v", err)
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for room %s: %v", code, err)
			return
		}

		log.Printf("WebSocket connection established for room %s (%s)", code, player)
		hub.RegisterClient(conn, code, player)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
