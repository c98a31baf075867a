package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/JAntoniox9/basta-web-app/models"
)

// roomRow is the relational shape of a room. The full aggregate is kept as a
// JSON document so the schema does not need a migration for every field the
// game adds; code and host are real columns for lookups.
type roomRow struct {
	Code      string `gorm:"primaryKey;size:10"`
	Host      string `gorm:"size:100;not null"`
	Finished  bool   `gorm:"not null;default:false"`
	Data      []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (roomRow) TableName() string {
	return "salas"
}

// PostgresStore persists rooms in PostgreSQL through gorm. Writes are durable
// once Set returns.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&roomRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate salas table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(code string) (*models.Room, error) {
	var row roomRow
	if err := s.db.First(&row, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeRoom(row.Data)
}

func (s *PostgresStore) Set(code string, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", code, err)
	}
	row := roomRow{
		Code:      code,
		Host:      room.Host,
		Finished:  room.Finished,
		Data:      data,
		CreatedAt: room.CreatedAt,
	}
	return s.db.Save(&row).Error
}

func (s *PostgresStore) Create(code, host string, cfg models.RoomConfig) (*models.Room, error) {
	room := newRoom(code, host, cfg)
	if err := s.Set(code, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *PostgresStore) ListAll() ([]*models.Room, error) {
	var rows []roomRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	rooms := make([]*models.Room, 0, len(rows))
	for _, row := range rows {
		room, err := decodeRoom(row.Data)
		if err != nil {
			log.Printf("Skipping undecodable room %s: %v", row.Code, err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func decodeRoom(data []byte) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}
	return &room, nil
}
