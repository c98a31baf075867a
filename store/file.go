package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/JAntoniox9/basta-web-app/models"
)

const saveInterval = 5 * time.Second

// checkpoint is the on-disk shape of the file store.
type checkpoint struct {
	Salas map[string]json.RawMessage `json:"salas"`
}

// FileStore keeps rooms in memory and checkpoints them to a JSON file in the
// background whenever something changed. It is the zero-dependency fallback
// backend and the safety net behind the durable ones.
type FileStore struct {
	path string

	mu    sync.RWMutex
	rooms map[string]json.RawMessage
	dirty bool
}

// NewFileStore loads any previous checkpoint from path and starts the
// background saver.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:  path,
		rooms: make(map[string]json.RawMessage),
	}

	if data, err := os.ReadFile(path); err == nil {
		var cp checkpoint
		if err := json.Unmarshal(data, &cp); err != nil {
			log.Printf("Ignoring unreadable checkpoint %s: %v", path, err)
		} else if cp.Salas != nil {
			s.rooms = cp.Salas
			log.Printf("Loaded %d rooms from %s", len(s.rooms), path)
		}
	}

	go s.backgroundSaver()
	return s
}

func (s *FileStore) backgroundSaver() {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.RLock()
		dirty := s.dirty
		s.mu.RUnlock()
		if !dirty {
			continue
		}
		if err := s.Flush(); err != nil {
			log.Printf("Error saving checkpoint: %v", err)
		}
	}
}

// Flush writes the current state to disk and clears the dirty mark.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(checkpoint{Salas: s.rooms}, "", "    ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}
	s.dirty = false
	s.mu.Unlock()

	return os.WriteFile(s.path, data, 0o644)
}

func (s *FileStore) Get(code string) (*models.Room, error) {
	s.mu.RLock()
	data, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	// Rooms are stored marshalled so every Get hands out an isolated copy.
	return decodeRoom(data)
}

func (s *FileStore) Set(code string, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", code, err)
	}
	s.mu.Lock()
	s.rooms[code] = data
	s.dirty = true
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Create(code, host string, cfg models.RoomConfig) (*models.Room, error) {
	room := newRoom(code, host, cfg)
	if err := s.Set(code, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *FileStore) ListAll() ([]*models.Room, error) {
	s.mu.RLock()
	raw := make([]json.RawMessage, 0, len(s.rooms))
	for _, data := range s.rooms {
		raw = append(raw, data)
	}
	s.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(raw))
	for _, data := range raw {
		room, err := decodeRoom(data)
		if err != nil {
			log.Printf("Skipping undecodable room in checkpoint: %v", err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}
