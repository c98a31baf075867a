package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JAntoniox9/basta-web-app/services"
	"github.com/JAntoniox9/basta-web-app/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *services.SessionService) {
	gin.SetMode(gin.TestMode)

	st := store.NewFileStore(filepath.Join(t.TempDir(), "checkpoint.json"))
	rooms := services.NewRoomService(st, services.NewScoringEngine(nil))
	sessions := services.NewSessionService("secreto-de-prueba")
	handler := NewRoomHandler(rooms, sessions)

	router := gin.New()
	router.POST("/create", handler.CreateRoom)
	router.POST("/join", handler.JoinRoom)
	router.GET("/api/rooms", handler.ListRooms)
	router.GET("/api/rooms/:code", handler.GetRoom)
	return router, sessions
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestCreateRoom_HTTP(t *testing.T) {
	router, sessions := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/create", `{"nombre": "Ana", "rondas": 3}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])

	code, _ := resp["codigo"].(string)
	assert.Len(t, code, 5)

	tokenCode, player, err := sessions.ParseToken(resp["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, code, tokenCode)
	assert.Equal(t, "Ana", player)
}

func TestCreateRoom_MissingNameRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/create", `{"rondas": 3}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "Nombre requerido", resp["error"])
}

func TestJoinRoom_HTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	_, created := doJSON(t, router, http.MethodPost, "/create", `{"nombre": "Ana"}`)
	code := created["codigo"].(string)

	// join accepts a lowercase code
	w, resp := doJSON(t, router, http.MethodPost, "/join",
		`{"codigo": "`+strings.ToLower(code)+`", "nombre": "Beto"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, code, resp["codigo"])
	assert.NotEmpty(t, resp["token"])
}

func TestJoinRoom_UnknownCodeIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/join", `{"codigo": "NOPE1", "nombre": "Beto"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Sala no encontrada", resp["error"])
}

func TestGetRoom_HTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	_, created := doJSON(t, router, http.MethodPost, "/create", `{"nombre": "Ana"}`)
	code := created["codigo"].(string)

	w, resp := doJSON(t, router, http.MethodGet, "/api/rooms/"+code, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code, resp["codigo"])
	assert.Equal(t, "Ana", resp["anfitrion"])

	w, _ = doJSON(t, router, http.MethodGet, "/api/rooms/NOPE1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRooms_HTTP(t *testing.T) {
	router, _ := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/create", `{"nombre": "Ana"}`)
	doJSON(t, router, http.MethodPost, "/create", `{"nombre": "Beto"}`)

	w, resp := doJSON(t, router, http.MethodGet, "/api/rooms", "")
	require.Equal(t, http.StatusOK, w.Code)
	salas, ok := resp["salas"].([]interface{})
	require.True(t, ok)
	assert.Len(t, salas, 2)
}
