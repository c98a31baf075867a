package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JAntoniox9/basta-web-app/store"
)

// TimerRegistry guarantees at most one countdown loop per room code.
type TimerRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{active: make(map[string]struct{})}
}

// TryAcquire registers a timer for code; it fails if one is already running.
func (r *TimerRegistry) TryAcquire(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.active[code]; running {
		return false
	}
	r.active[code] = struct{}{}
	return true
}

func (r *TimerRegistry) Release(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, code)
}

// IsRunning reports whether a countdown loop is registered for code.
func (r *TimerRegistry) IsRunning(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, running := r.active[code]
	return running
}

func (s *RoomService) startTimer(code string, b Broadcaster) {
	if !s.timers.TryAcquire(code) {
		return
	}
	go s.runRoundTimer(code, b)
}

// runRoundTimer is the per-room countdown loop. Each tick reloads the room,
// so a finalization triggered elsewhere is observed on the next tick and the
// loop exits on its own; there is no cancellation signal.
func (s *RoomService) runRoundTimer(code string, b Broadcaster) {
	defer s.timers.Release(code)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	log.Printf("Round timer started for room %s", code)

	for range ticker.C {
		room, err := s.store.Get(code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("Round timer stopping, room %s is gone", code)
				return
			}
			log.Printf("Round timer reload failed for room %s: %v", code, err)
			continue
		}

		if room.BastaActivado || !room.InProgress {
			log.Printf("Round timer stopping, round over in room %s", code)
			return
		}

		if room.Paused {
			continue
		}

		remaining := room.RemainingSeconds - 1
		if remaining < 0 {
			remaining = 0
		}
		room.RemainingSeconds = remaining

		if err := s.store.Set(code, room); err != nil {
			// Tolerate a failed tick write; the loop keeps counting.
			log.Printf("Round timer persist failed for room %s: %v", code, err)
		}

		b.PublishToRoom(code, "update_timer", gin.H{
			"tiempo":  remaining,
			"pausada": room.Paused,
		})

		if remaining <= 0 {
			log.Printf("Time expired in room %s", code)
			s.FinalizeRound(code, b)
			return
		}
	}
}
