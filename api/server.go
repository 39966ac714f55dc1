package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/tictactoe/game/account"
	"github.com/wricardo/mcp-training/tictactoe/game/engine"
	"github.com/wricardo/mcp-training/tictactoe/game/service"
	"github.com/wricardo/mcp-training/tictactoe/transport/websocket"
)

// Accounts is the account collaborator behind the auth and stats routes.
type Accounts interface {
	Register(ctx context.Context, req account.RegisterRequest) (*account.AuthResponse, error)
	Login(ctx context.Context, req account.LoginRequest) (*account.AuthResponse, error)
	VerifyToken(token string) (string, error)
	Profile(ctx context.Context, userID string) (*account.User, error)
	UpdateStats(ctx context.Context, userID string, delta account.StatsDelta) (*account.Stats, error)
}

// Server represents the REST API server
type Server struct {
	service  service.GameService
	hub      *websocket.Hub
	accounts Accounts
	origins  map[string]bool
	rng      engine.Rand
	router   *mux.Router
	handler  http.Handler
	log      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAccounts mounts the auth and stats routes.
func WithAccounts(a Accounts) Option {
	return func(s *Server) { s.accounts = a }
}

// WithAllowedOrigins enables CORS for the listed origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		for _, o := range origins {
			s.origins[o] = true
		}
	}
}

// WithRand sets the randomness source used by /api/analyze.
func WithRand(r engine.Rand) Option {
	return func(s *Server) { s.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub, opts ...Option) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		origins: make(map[string]bool),
		rng:     engine.NewRand(),
		router:  mux.NewRouter(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = s.corsMiddleware(s.router)
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Rooms
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods("GET")

	// Engine
	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")

	// Accounts
	if s.accounts != nil {
		api.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
		api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")

		stats := api.PathPrefix("/game").Subrouter()
		stats.Use(s.authMiddleware)
		stats.HandleFunc("/stats", s.handleGetStats).Methods("GET")
		stats.HandleFunc("/stats", s.handleUpdateStats).Methods("PUT")
	}

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.service.ListRooms(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	state, err := s.service.GetRoom(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Engine Handlers

type analyzeRequest struct {
	Board      string `json:"board"`
	AISymbol   string `json:"aiSymbol"`
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	board, err := engine.ParseBoard(req.Board)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ai := engine.Empty
	if req.AISymbol != "" {
		if ai, err = engine.ParseSymbol(strings.ToUpper(req.AISymbol)); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	analysis, err := engine.Analyze(board, ai, engine.ParseDifficulty(req.Difficulty), s.rng)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

// Account Handlers

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.accounts.Register(r.Context(), req)
	switch {
	case errors.Is(err, account.ErrUserExists), errors.Is(err, account.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.serverError(w, "register", err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.accounts.Login(r.Context(), req)
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		s.serverError(w, "login", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Profile(r.Context(), userID(r.Context()))
	switch {
	case errors.Is(err, account.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.serverError(w, "get stats", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateStats(w http.ResponseWriter, r *http.Request) {
	var delta account.StatsDelta
	if err := json.NewDecoder(r.Body).Decode(&delta); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := s.accounts.UpdateStats(r.Context(), userID(r.Context()), delta)
	switch {
	case errors.Is(err, account.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, account.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.serverError(w, "update stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.log.Error("request failed", zap.String("op", op), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "Server error")
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status": "healthy",
		"rooms":  len(s.service.ListRooms(r.Context())),
	}
	if s.hub != nil {
		body["connections"] = s.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, body)
}
