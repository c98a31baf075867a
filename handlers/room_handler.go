package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JAntoniox9/basta-web-app/models"
	"github.com/JAntoniox9/basta-web-app/services"
	"github.com/JAntoniox9/basta-web-app/store"
)

type RoomHandler struct {
	rooms    *services.RoomService
	sessions *services.SessionService
}

func NewRoomHandler(rooms *services.RoomService, sessions *services.SessionService) *RoomHandler {
	return &RoomHandler{
		rooms:    rooms,
		sessions: sessions,
	}
}

type CreateRoomRequest struct {
	Name              string   `json:"nombre" binding:"required"`
	Rounds            int      `json:"rondas"`
	RoundSeconds      int      `json:"tiempo_por_ronda"`
	Difficulty        string   `json:"dificultad"`
	GameMode          string   `json:"modo_juego"`
	Categories        []string `json:"categorias"`
	ChatEnabled       *bool    `json:"chat_habilitado"`
	SoundsEnabled     *bool    `json:"sonidos_habilitados"`
	PowerupsEnabled   *bool    `json:"powerups_habilitados"`
	ValidationEnabled *bool    `json:"validacion_activa"`
}

type JoinRoomRequest struct {
	Code string `json:"codigo" binding:"required"`
	Name string `json:"nombre" binding:"required"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Nombre requerido"})
		return
	}

	cfg := models.RoomConfig{
		Rounds:            req.Rounds,
		RoundSeconds:      req.RoundSeconds,
		Difficulty:        req.Difficulty,
		GameMode:          req.GameMode,
		Categories:        req.Categories,
		ChatEnabled:       boolOrDefault(req.ChatEnabled, true),
		SoundsEnabled:     boolOrDefault(req.SoundsEnabled, true),
		PowerupsEnabled:   boolOrDefault(req.PowerupsEnabled, true),
		ValidationEnabled: boolOrDefault(req.ValidationEnabled, true),
	}

	room, err := h.rooms.CreateRoom(req.Name, cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	token, err := h.sessions.IssueToken(room.Code, req.Name)
	if err != nil {
		log.Printf("Error issuing session token for %s: %v", room.Code, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "codigo": room.Code, "token": token})
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Datos incompletos"})
		return
	}

	code := strings.ToUpper(req.Code)
	_, err := h.rooms.JoinRoom(code, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Sala no encontrada"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	token, err := h.sessions.IssueToken(code, req.Name)
	if err != nil {
		log.Printf("Error issuing session token for %s: %v", code, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "codigo": code, "token": token})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	room, err := h.rooms.GetRoom(code)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Sala no encontrada"})
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Error listando salas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "salas": rooms})
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
