package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAntoniox9/basta-web-app/models"
)

func testConfig() models.RoomConfig {
	return models.RoomConfig{
		Rounds:       3,
		RoundSeconds: 60,
		Difficulty:   "normal",
		GameMode:     "clasico",
		Categories:   []string{"Nombre", "Color"},
		ChatEnabled:  true,
	}
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	return NewFileStore(path), path
}

func TestFileStore_CreateInitialState(t *testing.T) {
	s, _ := newTestFileStore(t)

	room, err := s.Create("ABCDE", "Ana", testConfig())
	require.NoError(t, err)

	assert.Equal(t, "ABCDE", room.Code)
	assert.Equal(t, "Ana", room.Host)
	assert.Equal(t, []string{"Ana"}, room.Players)
	assert.Equal(t, map[string]int{"Ana": 0}, room.Scores)
	assert.Equal(t, 1, room.Round)
	assert.False(t, room.InProgress)
	assert.False(t, room.Finished)
}

func TestFileStore_GetUnknownCode(t *testing.T) {
	s, _ := newTestFileStore(t)

	_, err := s.Get("NOPE1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_ReadAfterWrite(t *testing.T) {
	s, _ := newTestFileStore(t)

	room, err := s.Create("ABCDE", "Ana", testConfig())
	require.NoError(t, err)

	room.Players = append(room.Players, "Beto")
	room.Scores["Beto"] = 0
	require.NoError(t, s.Set("ABCDE", room))

	got, err := s.Get("ABCDE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Beto"}, got.Players)
}

func TestFileStore_GetReturnsIsolatedCopy(t *testing.T) {
	s, _ := newTestFileStore(t)

	_, err := s.Create("ABCDE", "Ana", testConfig())
	require.NoError(t, err)

	first, err := s.Get("ABCDE")
	require.NoError(t, err)
	first.Players = append(first.Players, "Intruso")
	first.Scores["Ana"] = 999

	second, err := s.Get("ABCDE")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana"}, second.Players)
	assert.Equal(t, 0, second.Scores["Ana"])
}

func TestFileStore_ListAll(t *testing.T) {
	s, _ := newTestFileStore(t)

	_, err := s.Create("AAAAA", "Ana", testConfig())
	require.NoError(t, err)
	_, err = s.Create("BBBBB", "Beto", testConfig())
	require.NoError(t, err)

	rooms, err := s.ListAll()
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	codes := []string{rooms[0].Code, rooms[1].Code}
	assert.ElementsMatch(t, []string{"AAAAA", "BBBBB"}, codes)
}

func TestFileStore_FlushAndReload(t *testing.T) {
	s, path := newTestFileStore(t)

	room, err := s.Create("ABCDE", "Ana", testConfig())
	require.NoError(t, err)
	room.Letter = "K"
	room.Scores["Ana"] = 300
	require.NoError(t, s.Set("ABCDE", room))
	require.NoError(t, s.Flush())

	reloaded := NewFileStore(path)
	got, err := reloaded.Get("ABCDE")
	require.NoError(t, err)
	assert.Equal(t, "K", got.Letter)
	assert.Equal(t, 300, got.Scores["Ana"])
}
