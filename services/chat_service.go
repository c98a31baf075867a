package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/JAntoniox9/basta-web-app/models"
	"github.com/JAntoniox9/basta-web-app/store"
)

// ChatService handles in-room chat: block-list filtering, the letter rule
// while a round letter is active, and the bounded per-room history.
type ChatService struct {
	store store.RoomStore
}

func NewChatService(st store.RoomStore) *ChatService {
	return &ChatService{store: st}
}

// SendMessage validates and broadcasts a chat message. A non-empty return is
// the rejection reason to deliver to the sender only; accepted messages go to
// the whole room and into the room's history.
func (s *ChatService) SendMessage(code, player, message string, b Broadcaster) string {
	message = strings.TrimSpace(message)
	if player == "" || message == "" {
		return ""
	}

	room, err := s.store.Get(code)
	if err != nil || !room.Config.ChatEnabled {
		return ""
	}

	if containsBannedWord(message) {
		// Tell the room a message was blocked so the silence has context.
		b.PublishToRoom(code, "nuevo_mensaje_chat", models.ChatMessage{
			Player:    "Moderador",
			Message:   fmt.Sprintf("El mensaje de %s fue bloqueado por lenguaje inapropiado", player),
			Timestamp: nowMillis(),
			Type:      "sistema_moderacion",
		})
		return "Mensaje bloqueado por lenguaje inapropiado"
	}

	letter := strings.ToUpper(strings.TrimSpace(room.Letter))
	if letter != "" && !startsWithLetter(message, letter) {
		return "El mensaje debe iniciar con la letra " + letter
	}

	msg := models.ChatMessage{
		Player:    player,
		Message:   message,
		Timestamp: nowMillis(),
	}

	room.ChatHistory = append(room.ChatHistory, msg)
	if len(room.ChatHistory) > models.MaxChatHistory {
		room.ChatHistory = room.ChatHistory[len(room.ChatHistory)-models.MaxChatHistory:]
	}
	if err := s.store.Set(code, room); err != nil {
		log.Printf("Error persisting chat message in room %s: %v", code, err)
	}

	b.PublishToRoom(code, "nuevo_mensaje_chat", msg)
	log.Printf("[CHAT] %s in %s: %s", player, code, message)
	return ""
}

func nowMillis() float64 {
	return float64(time.Now().UnixMilli())
}
