package store

import (
	"errors"
	"log"

	"github.com/JAntoniox9/basta-web-app/models"
)

// FallbackStore routes every operation to a primary backend and retries
// against a secondary one when the primary fails, so a computed write (round
// results above all) is never lost to a backend outage. Successful primary
// writes are mirrored into the secondary best-effort to keep it warm for
// fallback reads.
type FallbackStore struct {
	primary   RoomStore
	secondary RoomStore
}

func WithFallback(primary, secondary RoomStore) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

func (s *FallbackStore) Get(code string) (*models.Room, error) {
	room, err := s.primary.Get(code)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Printf("Primary store read failed for %s, trying fallback: %v", code, err)
	}
	return s.secondary.Get(code)
}

func (s *FallbackStore) Set(code string, room *models.Room) error {
	if err := s.primary.Set(code, room); err != nil {
		log.Printf("Primary store write failed for %s, retrying on fallback: %v", code, err)
		return s.secondary.Set(code, room)
	}
	if err := s.secondary.Set(code, room); err != nil {
		log.Printf("Fallback store mirror failed for %s: %v", code, err)
	}
	return nil
}

func (s *FallbackStore) Create(code, host string, cfg models.RoomConfig) (*models.Room, error) {
	room, err := s.primary.Create(code, host, cfg)
	if err != nil {
		log.Printf("Primary store create failed for %s, retrying on fallback: %v", code, err)
		return s.secondary.Create(code, host, cfg)
	}
	if err := s.secondary.Set(code, room); err != nil {
		log.Printf("Fallback store mirror failed for %s: %v", code, err)
	}
	return room, nil
}

func (s *FallbackStore) ListAll() ([]*models.Room, error) {
	rooms, err := s.primary.ListAll()
	if err != nil {
		log.Printf("Primary store list failed, trying fallback: %v", err)
		return s.secondary.ListAll()
	}
	return rooms, nil
}
