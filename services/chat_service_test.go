package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAntoniox9/basta-web-app/models"
	"github.com/JAntoniox9/basta-web-app/store"
)

func newChatFixture(t *testing.T) (*ChatService, *RoomService, store.RoomStore, string) {
	svc, st := newTestService(t)
	chat := NewChatService(st)
	room, err := svc.CreateRoom("Ana", testRoomConfig())
	require.NoError(t, err)
	return chat, svc, st, room.Code
}

func TestSendMessage_BroadcastAndHistory(t *testing.T) {
	chat, _, st, code := newChatFixture(t)
	b := &fakeBroadcaster{}

	rejection := chat.SendMessage(code, "Ana", "  hola a todos  ", b)
	assert.Empty(t, rejection)

	require.Equal(t, 1, b.count("nuevo_mensaje_chat"))
	msg := b.payloads("nuevo_mensaje_chat")[0].(models.ChatMessage)
	assert.Equal(t, "Ana", msg.Player)
	assert.Equal(t, "hola a todos", msg.Message)
	assert.Positive(t, msg.Timestamp)
	assert.Empty(t, msg.Type)

	room, err := st.Get(code)
	require.NoError(t, err)
	require.Len(t, room.ChatHistory, 1)
	assert.Equal(t, "hola a todos", room.ChatHistory[0].Message)
}

func TestSendMessage_BlockedWordNotifiesRoom(t *testing.T) {
	chat, _, st, code := newChatFixture(t)
	b := &fakeBroadcaster{}

	rejection := chat.SendMessage(code, "Beto", "qué mierda", b)
	assert.Equal(t, "Mensaje bloqueado por lenguaje inapropiado", rejection)

	require.Equal(t, 1, b.count("nuevo_mensaje_chat"))
	msg := b.payloads("nuevo_mensaje_chat")[0].(models.ChatMessage)
	assert.Equal(t, "Moderador", msg.Player)
	assert.Equal(t, "sistema_moderacion", msg.Type)
	assert.Contains(t, msg.Message, "Beto")

	room, err := st.Get(code)
	require.NoError(t, err)
	assert.Empty(t, room.ChatHistory, "blocked messages never reach the history")
}

func TestSendMessage_LetterRuleWhileRoundLetterActive(t *testing.T) {
	chat, _, st, code := newChatFixture(t)
	b := &fakeBroadcaster{}

	room, err := st.Get(code)
	require.NoError(t, err)
	room.Letter = "A"
	require.NoError(t, st.Set(code, room))

	rejection := chat.SendMessage(code, "Ana", "buenas noches", b)
	assert.Equal(t, "El mensaje debe iniciar con la letra A", rejection)
	assert.Zero(t, b.count("nuevo_mensaje_chat"))

	rejection = chat.SendMessage(code, "Ana", "adivina qué", b)
	assert.Empty(t, rejection)
	assert.Equal(t, 1, b.count("nuevo_mensaje_chat"))
}

func TestSendMessage_HistoryCapped(t *testing.T) {
	chat, _, st, code := newChatFixture(t)
	b := &fakeBroadcaster{}

	for i := 0; i < models.MaxChatHistory+10; i++ {
		rejection := chat.SendMessage(code, "Ana", fmt.Sprintf("mensaje %d", i), b)
		require.Empty(t, rejection)
	}

	room, err := st.Get(code)
	require.NoError(t, err)
	require.Len(t, room.ChatHistory, models.MaxChatHistory)
	assert.Equal(t, "mensaje 10", room.ChatHistory[0].Message, "oldest messages are dropped first")
	assert.Equal(t, fmt.Sprintf("mensaje %d", models.MaxChatHistory+9), room.ChatHistory[models.MaxChatHistory-1].Message)
}

func TestSendMessage_SilentNoops(t *testing.T) {
	chat, _, st, code := newChatFixture(t)
	b := &fakeBroadcaster{}

	assert.Empty(t, chat.SendMessage(code, "Ana", "   ", b))
	assert.Empty(t, chat.SendMessage("NOPE1", "Ana", "hola", b))

	room, err := st.Get(code)
	require.NoError(t, err)
	room.Config.ChatEnabled = false
	require.NoError(t, st.Set(code, room))
	assert.Empty(t, chat.SendMessage(code, "Ana", "hola", b))

	assert.Zero(t, b.count("nuevo_mensaje_chat"))
}
