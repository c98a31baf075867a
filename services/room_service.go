package services

import (
	"crypto/rand"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JAntoniox9/basta-web-app/models"
	"github.com/JAntoniox9/basta-web-app/store"
)

// Broadcaster delivers an event to every connection subscribed to a room.
// Delivery is fire-and-forget, at most once.
type Broadcaster interface {
	PublishToRoom(code, event string, payload interface{})
}

// AvailableCategories is the full catalog a host can pick from. A room
// created without an explicit selection gets the first six.
var AvailableCategories = []string{
	"Nombre", "Apellido", "Ciudad/País", "Animal", "Fruta/Verdura", "Color",
	"Cosa", "Marca", "Comida", "Profesión", "Famoso", "Película/Serie",
}

const (
	maxPlayersPerRoom = 20
	codeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength        = 5
	letterAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrHostNameRequired = errors.New("nombre de anfitrión requerido")
	ErrGameInProgress   = errors.New("partida en curso")
	ErrRoomFull         = errors.New("sala llena")
)

// RoomService owns the room lifecycle: create, join, ready, submit, start,
// stop and the round finalization that triggers scoring. All state goes
// through the RoomStore; per-room mutexes guard only the finalizing
// transition so scoring runs at most once per round.
type RoomService struct {
	store  store.RoomStore
	scorer *ScoringEngine
	timers *TimerRegistry

	locks sync.Map // room code -> *sync.Mutex

	// tickInterval is one second in production; tests shorten it.
	tickInterval time.Duration
}

func NewRoomService(st store.RoomStore, scorer *ScoringEngine) *RoomService {
	return &RoomService{
		store:        st,
		scorer:       scorer,
		timers:       NewTimerRegistry(),
		tickInterval: time.Second,
	}
}

func (s *RoomService) roomLock(code string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(code, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// CreateRoom generates a unique code and persists a new waiting-state room.
func (s *RoomService) CreateRoom(host string, cfg models.RoomConfig) (*models.Room, error) {
	if strings.TrimSpace(host) == "" {
		return nil, ErrHostNameRequired
	}
	normalizeConfig(&cfg)

	var code string
	for {
		code = generateCode()
		_, err := s.store.Get(code)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		// collision, try again
	}

	room, err := s.store.Create(code, host, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("Room created: %s by %s (mode: %s)", code, host, cfg.GameMode)
	return room, nil
}

// JoinRoom is the HTTP join: unlike the socket events it reports errors,
// since the caller has not yet entered the room.
func (s *RoomService) JoinRoom(code, name string) (*models.Room, error) {
	room, err := s.store.Get(code)
	if err != nil {
		return nil, err
	}
	if room.HasPlayer(name) {
		// returning player, allow reconnection
		return room, nil
	}
	if room.InProgress {
		return nil, ErrGameInProgress
	}
	if len(room.Players) >= maxPlayersPerRoom {
		return nil, ErrRoomFull
	}

	room.Players = append(room.Players, name)
	if room.Scores == nil {
		room.Scores = map[string]int{}
	}
	room.Scores[name] = 0
	if err := s.store.Set(code, room); err != nil {
		return nil, err
	}
	log.Printf("Player %s joined room %s", name, code)
	return room, nil
}

// AttachPlayer records a socket-level join or rejoin: it adds the player if
// unknown, zero-scores them, and clears any disconnected mark. A stray event
// for an unknown room is a harmless no-op (nil room).
func (s *RoomService) AttachPlayer(code, player string) *models.Room {
	room, err := s.store.Get(code)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Error loading room %s on join: %v", code, err)
		}
		return nil
	}

	if !room.HasPlayer(player) {
		room.Players = append(room.Players, player)
	}
	if room.Scores == nil {
		room.Scores = map[string]int{}
	}
	if _, ok := room.Scores[player]; !ok {
		room.Scores[player] = 0
	}
	room.RemoveDisconnected(player)

	if err := s.store.Set(code, room); err != nil {
		log.Printf("Error persisting join of %s to room %s: %v", player, code, err)
	}
	return room
}

// MarkReady records readiness in the waiting phase and notifies the room.
func (s *RoomService) MarkReady(code, player string, b Broadcaster) {
	room, err := s.store.Get(code)
	if err != nil {
		return
	}
	if !room.IsReady(player) {
		room.ReadyPlayers = append(room.ReadyPlayers, player)
		if err := s.store.Set(code, room); err != nil {
			log.Printf("Error persisting ready mark for %s in room %s: %v", player, code, err)
		}
	}
	b.PublishToRoom(code, "player_ready_update", gin.H{
		"jugador":          player,
		"jugadores_listos": room.ReadyPlayers,
	})
}

// SubmitAnswers stores a player's answer sheet for the current round,
// overwriting any previous submission.
func (s *RoomService) SubmitAnswers(code, player string, answers map[string]string) {
	room, err := s.store.Get(code)
	if err != nil {
		return
	}
	if room.RoundAnswers == nil {
		room.RoundAnswers = map[string]map[string]string{}
	}
	room.RoundAnswers[player] = answers
	if err := s.store.Set(code, room); err != nil {
		log.Printf("Error persisting answers of %s in room %s: %v", player, code, err)
	}
}

// MarkDisconnected flags a player as connectionless without removing them or
// their score; answers persist across disconnects.
func (s *RoomService) MarkDisconnected(code, player string, b Broadcaster) {
	room, err := s.store.Get(code)
	if err != nil {
		return
	}
	if !room.HasPlayer(player) || room.IsDisconnected(player) {
		return
	}
	room.DisconnectedPlayers = append(room.DisconnectedPlayers, player)
	if err := s.store.Set(code, room); err != nil {
		log.Printf("Error persisting disconnect of %s in room %s: %v", player, code, err)
	}
	b.PublishToRoom(code, "player_disconnected", gin.H{"jugador": player})
}

// StartRound begins a round: new letter, fresh answer sheets, full clock,
// timer goroutine. Only the host may start one; anyone else is ignored, as is
// a start against a finished game.
func (s *RoomService) StartRound(code, player string, b Broadcaster) {
	room, err := s.store.Get(code)
	if err != nil {
		return
	}
	if room.Host != player {
		log.Printf("Ignoring start from non-host %s in room %s", player, code)
		return
	}
	if room.Finished {
		log.Printf("Ignoring start in finished room %s", code)
		return
	}

	room.InProgress = true
	room.Paused = false
	room.BastaActivado = false
	room.RemainingSeconds = room.Config.RoundSeconds
	room.Letter = randomLetter()
	room.RoundAnswers = map[string]map[string]string{}
	room.LastResults = nil

	if err := s.store.Set(code, room); err != nil {
		log.Printf("Error persisting round start for room %s: %v", code, err)
		return
	}

	b.PublishToRoom(code, "start_game", gin.H{
		"codigo":          code,
		"letra":           room.Letter,
		"tiempo_restante": room.RemainingSeconds,
	})
	b.PublishToRoom(code, "restore_state", statePayload(room))

	s.startTimer(code, b)
	log.Printf("Round %d started in room %s with letter %s", room.Round, code, room.Letter)
}

// FinalizeRound closes the current round. It is the single entry point for
// both triggers (timer expiry and a player pressing basta) and is idempotent:
// the per-room lock plus the basta_activado guard ensure only the first
// trigger reaches scoring, while later ones just replay the computed results
// to lagging clients.
func (s *RoomService) FinalizeRound(code string, b Broadcaster) {
	mu := s.roomLock(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := s.store.Get(code)
	if err != nil {
		return
	}
	if room.BastaActivado {
		if room.LastResults != nil {
			b.PublishToRoom(code, "round_results", room.LastResults)
		}
		return
	}

	room.BastaActivado = true
	room.InProgress = false
	room.Paused = false
	room.RemainingSeconds = 0

	if err := s.store.Set(code, room); err != nil {
		// The fallback store already retried; scoring still runs and its own
		// write is what must not be lost.
		log.Printf("Error persisting finalization of room %s: %v", code, err)
	}

	b.PublishToRoom(code, "basta_triggered", gin.H{"codigo": code})

	// Scoring must not block the triggering caller.
	go s.scoreRound(code, b)
}

// scoreRound runs the scoring engine, applies cumulative scores, decides
// game-over, persists last_results and publishes them. It always terminates
// with a payload; judge failures degrade inside the engine.
func (s *RoomService) scoreRound(code string, b Broadcaster) {
	mu := s.roomLock(code)
	mu.Lock()
	defer mu.Unlock()

	room, err := s.store.Get(code)
	if err != nil {
		log.Printf("Error loading room %s for scoring: %v", code, err)
		return
	}

	results := s.scorer.Evaluate(room)

	if room.Scores == nil {
		room.Scores = map[string]int{}
	}
	for player, points := range results.RoundScores {
		room.Scores[player] += points
	}
	results.TotalScores = room.Scores

	if room.Round >= room.Config.Rounds {
		results.GameOver = true
		room.Finished = true
	} else {
		room.Round++
	}
	room.LastResults = results

	if err := s.store.Set(code, room); err != nil {
		log.Printf("FAILED to persist results for room %s round %d: %v", code, results.Round, err)
	}

	b.PublishToRoom(code, "round_results", results)
	log.Printf("Round %d scored in room %s (game over: %v)", results.Round, code, results.GameOver)
}

// GetRoom exposes repository reads to the HTTP layer.
func (s *RoomService) GetRoom(code string) (*models.Room, error) {
	return s.store.Get(code)
}

// ListRooms enumerates every known room.
func (s *RoomService) ListRooms() ([]*models.Room, error) {
	return s.store.ListAll()
}

// statePayload is the per-client snapshot replayed on round start and rejoin.
func statePayload(room *models.Room) gin.H {
	letter := room.Letter
	if letter == "" {
		letter = "?"
	}
	return gin.H{
		"letra":           letter,
		"ronda":           room.Round,
		"tiempo_restante": room.RemainingSeconds,
		"basta_activado":  room.BastaActivado,
		"pausada":         room.Paused,
	}
}

// rosterPayload is the room-wide player_joined payload.
func rosterPayload(room *models.Room) gin.H {
	return gin.H{
		"jugadores":               room.Players,
		"puntuaciones":            room.Scores,
		"jugadores_listos":        room.ReadyPlayers,
		"jugadores_desconectados": room.DisconnectedPlayers,
		"configuracion":           room.Config,
	}
}

func normalizeConfig(cfg *models.RoomConfig) {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 5
	}
	if cfg.RoundSeconds <= 0 {
		cfg.RoundSeconds = 180
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = "normal"
	}
	if cfg.GameMode == "" {
		cfg.GameMode = "clasico"
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = append([]string{}, AvailableCategories[:6]...)
	}
}

func generateCode() string {
	return randomFrom(codeAlphabet, codeLength)
}

func randomLetter() string {
	return randomFrom(letterAlphabet, 1)
}

func randomFrom(alphabet string, n int) string {
	bytes := make([]byte, n)
	rand.Read(bytes)
	out := make([]byte, n)
	for i, b := range bytes {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}
