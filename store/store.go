package store

import (
	"errors"
	"time"

	"github.com/JAntoniox9/basta-web-app/models"
)

// ErrNotFound is returned when no room exists for the requested code.
var ErrNotFound = errors.New("sala no encontrada")

// RoomStore is the repository contract for Room aggregates. Implementations
// must reflect the most recent completed write from the same process; they do
// not enforce Room invariants, callers do.
type RoomStore interface {
	Get(code string) (*models.Room, error)
	Set(code string, room *models.Room) error
	Create(code, host string, cfg models.RoomConfig) (*models.Room, error)
	ListAll() ([]*models.Room, error)
}

// newRoom builds the initial waiting-state aggregate for a freshly created
// room. The host is the first player and starts with zero points.
func newRoom(code, host string, cfg models.RoomConfig) *models.Room {
	now := time.Now().UTC()
	return &models.Room{
		Code:                code,
		Host:                host,
		Players:             []string{host},
		DisconnectedPlayers: []string{},
		ReadyPlayers:        []string{},
		Scores:              map[string]int{host: 0},
		Config:              cfg,
		Round:               1,
		RoundAnswers:        map[string]map[string]string{},
		ChatHistory:         []models.ChatMessage{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
