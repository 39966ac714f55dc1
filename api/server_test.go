package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wricardo/mcp-training/tictactoe/game/account"
	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
	"github.com/wricardo/mcp-training/tictactoe/game/session"
	"github.com/wricardo/mcp-training/tictactoe/transport/websocket"
)

type fixedRand int

func (r fixedRand) Intn(n int) int {
	if int(r) >= n {
		return n - 1
	}
	return int(r)
}

type testEnv struct {
	server   *Server
	game     service.GameService
	accounts *account.Service
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	hub := websocket.NewHub()
	game := service.NewGameService(session.NewManager(), hub, service.WithScheduler(hub))
	hub.SetGameService(game)

	store, err := account.OpenSQLite(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	accounts, err := account.NewService(store, "test-secret", account.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	opts = append([]Option{WithAccounts(accounts), WithRand(fixedRand(0))}, opts...)
	return &testEnv{
		server:   NewServer(game, hub, opts...),
		game:     game,
		accounts: accounts,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["rooms"])
}

func TestRooms(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	state, err := env.game.CreateGame(ctx, service.Conn{ID: "c1"}, service.CreateRequest{Symbol: "X"})
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/rooms", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode[struct {
			Rooms []service.RoomSummary `json:"rooms"`
			Count int                   `json:"count"`
		}](t, w)
		assert.Equal(t, 1, body.Count)
		require.Len(t, body.Rooms, 1)
		assert.Equal(t, state.RoomCode, body.Rooms[0].RoomCode)
		assert.Equal(t, service.StatusWaiting, body.Rooms[0].Status)
	})

	t.Run("get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/rooms/"+state.RoomCode, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[service.GameState](t, w)
		assert.Equal(t, state.RoomCode, got.RoomCode)
		assert.Equal(t, engine.X, got.CurrentTurn)
		require.Len(t, got.Players, 1)
		assert.Equal(t, "c1", got.Players[0].ConnID)
	})

	t.Run("get unknown", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/rooms/zzzzzz", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "room not found", decode[map[string]string](t, w)["error"])
	})
}

func TestAnalyze(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantMove int
		winner   engine.Symbol
	}{
		{
			name:     "hard takes the win",
			body:     map[string]string{"board": "OO.XX....", "aiSymbol": "O", "difficulty": "hard"},
			wantCode: http.StatusOK,
			wantMove: 2,
		},
		{
			name:     "medium blocks",
			body:     map[string]string{"board": "XX..O....", "aiSymbol": "o", "difficulty": "medium"},
			wantCode: http.StatusOK,
			wantMove: 2,
		},
		{
			name:     "won board",
			body:     map[string]string{"board": "XXXOO...."},
			wantCode: http.StatusOK,
			wantMove: -1,
			winner:   engine.X,
		},
		{
			name:     "short board",
			body:     map[string]string{"board": "XO"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad symbol",
			body:     map[string]string{"board": ".........", "aiSymbol": "Z"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not json",
			body:     "board",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/analyze", tt.body, nil)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusOK {
				assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
				return
			}
			got := decode[engine.Analysis](t, w)
			assert.Equal(t, tt.wantMove, got.Move)
			assert.Equal(t, tt.winner, got.Winner)
		})
	}
}

func TestAuthAndStats(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register",
		account.RegisterRequest{Username: "alice", Name: "Alice", Password: "pw"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[account.AuthResponse](t, w)
	assert.NotEmpty(t, reg.ID)
	assert.NotEmpty(t, reg.Token)

	t.Run("duplicate register", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register",
			account.RegisterRequest{Username: "alice", Password: "pw"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User already exists", decode[map[string]string](t, w)["error"])
	})

	t.Run("login", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", account.LoginRequest{Username: "alice", Password: "pw"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, reg.ID, decode[account.AuthResponse](t, w).ID)

		w = env.do(t, http.MethodPost, "/api/auth/login", account.LoginRequest{Username: "alice", Password: "bad"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	auth := map[string]string{"Authorization": "Bearer " + reg.Token}

	t.Run("stats require a token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/game/stats", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = env.do(t, http.MethodGet, "/api/game/stats", nil, map[string]string{"Authorization": "Bearer junk"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("update and read stats", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/game/stats", map[string]int{"wins": 1}, auth)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, account.Stats{GamesPlayed: 1, Wins: 1}, decode[account.Stats](t, w))

		w = env.do(t, http.MethodPut, "/api/game/stats", map[string]int{"draws": 1}, auth)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, account.Stats{GamesPlayed: 2, Wins: 1, Draws: 1}, decode[account.Stats](t, w))

		w = env.do(t, http.MethodGet, "/api/game/stats", nil, auth)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[map[string]interface{}](t, w)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, float64(2), body["gamesPlayed"])
		assert.NotContains(t, body, "PasswordHash")
	})

	t.Run("negative delta", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/game/stats", map[string]int{"wins": -3}, auth)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		token, err := env.accounts.IssueToken("ghost")
		require.NoError(t, err)
		w := env.do(t, http.MethodGet, "/api/game/stats", nil, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAccountsRoutesDisabled(t *testing.T) {
	hub := websocket.NewHub()
	game := service.NewGameService(session.NewManager(), hub)
	server := NewServer(game, hub)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, WithAllowedOrigins([]string{"https://play.example"}))

	t.Run("preflight", func(t *testing.T) {
		w := env.do(t, http.MethodOptions, "/api/auth/login", nil, map[string]string{"Origin": "https://play.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://play.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/health", nil, map[string]string{"Origin": "https://evil.example"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
