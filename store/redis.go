package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JAntoniox9/basta-web-app/models"
)

const roomKeyPrefix = "sala:"

// roomTTL is the retention window for idle rooms. Every write refreshes it.
const roomTTL = 2 * time.Hour

// RedisStore keeps rooms as JSON documents in Redis. It is the backend of
// choice when several processes need to see the same rooms.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(code string) (*models.Room, error) {
	data, err := s.client.Get(context.Background(), roomKeyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeRoom([]byte(data))
}

func (s *RedisStore) Set(code string, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", code, err)
	}
	return s.client.Set(context.Background(), roomKeyPrefix+code, data, roomTTL).Err()
}

func (s *RedisStore) Create(code, host string, cfg models.RoomConfig) (*models.Room, error) {
	room := newRoom(code, host, cfg)
	if err := s.Set(code, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RedisStore) ListAll() ([]*models.Room, error) {
	ctx := context.Background()
	var rooms []*models.Room
	iter := s.client.Scan(ctx, 0, roomKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			return nil, err
		}
		room, err := decodeRoom([]byte(data))
		if err != nil {
			log.Printf("Skipping undecodable room at %s: %v", iter.Val(), err)
			continue
		}
		rooms = append(rooms, room)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}
