package models

import "time"

// RoomConfig holds the settings chosen by the host when the room is created.
// They are immutable for the lifetime of the room.
type RoomConfig struct {
	Rounds            int      `json:"rondas"`
	RoundSeconds      int      `json:"tiempo_por_ronda"`
	Difficulty        string   `json:"dificultad"`
	GameMode          string   `json:"modo_juego"`
	Categories        []string `json:"categorias"`
	ChatEnabled       bool     `json:"chat_habilitado"`
	SoundsEnabled     bool     `json:"sonidos_habilitados"`
	PowerupsEnabled   bool     `json:"powerups_habilitados"`
	ValidationEnabled bool     `json:"validacion_activa"`
}

// Room is the aggregate for one game session, identified by a short code.
// JSON tags double as the wire format the original clients expect.
type Room struct {
	Code                string                       `json:"codigo"`
	Host                string                       `json:"anfitrion"`
	Players             []string                     `json:"jugadores"`
	DisconnectedPlayers []string                     `json:"jugadores_desconectados"`
	ReadyPlayers        []string                     `json:"jugadores_listos"`
	Scores              map[string]int               `json:"puntuaciones"`
	Config              RoomConfig                   `json:"configuracion"`
	Round               int                          `json:"ronda_actual"`
	Letter              string                       `json:"letra"`
	RemainingSeconds    int                          `json:"tiempo_restante"`
	InProgress          bool                         `json:"en_curso"`
	Paused              bool                         `json:"pausada"`
	BastaActivado       bool                         `json:"basta_activado"`
	Finished            bool                         `json:"finalizada"`
	RoundAnswers        map[string]map[string]string `json:"respuestas_ronda"`
	LastResults         *RoundResults                `json:"last_results,omitempty"`
	ChatHistory         []ChatMessage                `json:"mensajes_chat"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

// HasPlayer reports whether name already joined the room.
func (r *Room) HasPlayer(name string) bool {
	for _, p := range r.Players {
		if p == name {
			return true
		}
	}
	return false
}

// IsDisconnected reports whether name is marked as disconnected.
func (r *Room) IsDisconnected(name string) bool {
	for _, p := range r.DisconnectedPlayers {
		if p == name {
			return true
		}
	}
	return false
}

// IsReady reports whether name signaled readiness in the waiting phase.
func (r *Room) IsReady(name string) bool {
	for _, p := range r.ReadyPlayers {
		if p == name {
			return true
		}
	}
	return false
}

// RemoveDisconnected clears the disconnected mark for name, if present.
func (r *Room) RemoveDisconnected(name string) {
	for i, p := range r.DisconnectedPlayers {
		if p == name {
			r.DisconnectedPlayers = append(r.DisconnectedPlayers[:i], r.DisconnectedPlayers[i+1:]...)
			return
		}
	}
}
