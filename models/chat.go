package models

// ChatMessage is one entry in a room's bounded chat history. Timestamp is in
// milliseconds since epoch, matching what the web client renders.
type ChatMessage struct {
	Player    string  `json:"jugador"`
	Message   string  `json:"mensaje"`
	Timestamp float64 `json:"timestamp"`
	Type      string  `json:"tipo,omitempty"`
}

// MaxChatHistory bounds the chat history retained per room.
const MaxChatHistory = 50
