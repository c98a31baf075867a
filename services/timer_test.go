package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAntoniox9/basta-web-app/store"
)

func newTimerTestService(t *testing.T) (*RoomService, store.RoomStore) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "checkpoint.json"))
	svc := NewRoomService(st, NewScoringEngine(nil))
	svc.tickInterval = 5 * time.Millisecond
	return svc, st
}

func TestTimerRegistry_Exclusive(t *testing.T) {
	r := NewTimerRegistry()

	assert.True(t, r.TryAcquire("AB123"))
	assert.False(t, r.TryAcquire("AB123"), "second acquire for the same room must fail")
	assert.True(t, r.TryAcquire("CD456"), "other rooms are unaffected")
	assert.True(t, r.IsRunning("AB123"))

	r.Release("AB123")
	assert.False(t, r.IsRunning("AB123"))
	assert.True(t, r.TryAcquire("AB123"))
}

func TestRoundTimer_CountsDownAndFinalizes(t *testing.T) {
	svc, st := newTimerTestService(t)
	b := &fakeBroadcaster{}

	cfg := testRoomConfig()
	cfg.RoundSeconds = 2
	room, err := svc.CreateRoom("Ana", cfg)
	require.NoError(t, err)
	code := room.Code

	svc.StartRound(code, "Ana", b)

	got := waitForResults(t, st, code)
	assert.True(t, got.BastaActivado)
	assert.False(t, got.InProgress)
	assert.Zero(t, got.RemainingSeconds)
	assert.Equal(t, 1, b.count("basta_triggered"), "expiry goes through the same finalization path")

	ticks := b.payloads("update_timer")
	require.Len(t, ticks, 2)
	first := ticks[0].(gin.H)
	last := ticks[1].(gin.H)
	assert.Equal(t, 1, first["tiempo"])
	assert.Equal(t, 0, last["tiempo"])

	require.Eventually(t, func() bool {
		return !svc.timers.IsRunning(code)
	}, time.Second, 5*time.Millisecond, "timer loop should release its registration")
}

func TestRoundTimer_PauseSkipsTicks(t *testing.T) {
	svc, st := newTimerTestService(t)
	b := &fakeBroadcaster{}

	room, err := svc.CreateRoom("Ana", testRoomConfig())
	require.NoError(t, err)
	code := room.Code

	room, err = st.Get(code)
	require.NoError(t, err)
	room.InProgress = true
	room.Paused = true
	room.Letter = "A"
	room.RemainingSeconds = 5
	require.NoError(t, st.Set(code, room))

	svc.startTimer(code, b)

	time.Sleep(50 * time.Millisecond)
	got, err := st.Get(code)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RemainingSeconds, "paused rounds do not lose time")
	assert.Zero(t, b.count("update_timer"))
	assert.True(t, svc.timers.IsRunning(code), "pause keeps the loop alive")

	got.Paused = false
	require.NoError(t, st.Set(code, got))

	require.Eventually(t, func() bool {
		r, err := st.Get(code)
		return err == nil && r.RemainingSeconds < 5
	}, time.Second, 5*time.Millisecond, "countdown resumes once unpaused")
}

func TestRoundTimer_ExitsAfterExternalStop(t *testing.T) {
	svc, st := newTimerTestService(t)
	b := &fakeBroadcaster{}

	room, err := svc.CreateRoom("Ana", testRoomConfig())
	require.NoError(t, err)
	code := room.Code

	svc.StartRound(code, "Ana", b)
	require.True(t, svc.timers.IsRunning(code))

	svc.FinalizeRound(code, b)

	require.Eventually(t, func() bool {
		return !svc.timers.IsRunning(code)
	}, time.Second, 5*time.Millisecond, "loop observes the stopped round and exits")

	got := waitForResults(t, st, code)
	assert.Equal(t, 1, b.count("basta_triggered"))
	assert.NotNil(t, got.LastResults)
}
