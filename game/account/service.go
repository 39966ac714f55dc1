package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wricardo/mcp-training/tictactoe/game/service"
)

// DefaultTokenTTL matches the lifetime of issued session tokens.
const DefaultTokenTTL = 30 * 24 * time.Hour

type tokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Service registers users, issues tokens and maintains stats.
type Service struct {
	store  Store
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock replaces time.Now for token issue and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates an account service signing tokens with secret.
func NewService(store Store, secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	s := &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.String("user", u.ID), zap.String("username", u.Username))
	return s.authResponse(u)
}

// Login checks credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.store.UserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.authResponse(u)
}

func (s *Service) authResponse(u *User) (*AuthResponse, error) {
	token, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{ID: u.ID, Name: u.Name, Username: u.Username, Token: token}, nil
}

// IssueToken signs an HS256 token for userID.
func (s *Service) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the user ID carried by a valid token.
func (s *Service) VerifyToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Profile returns the account with its stats.
func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.store.UserByID(ctx, userID)
}

// UpdateStats counts one game and adds delta to the tallies.
func (s *Service) UpdateStats(ctx context.Context, userID string, delta StatsDelta) (*Stats, error) {
	if delta.Wins < 0 || delta.Losses < 0 || delta.Draws < 0 {
		return nil, ErrInvalidInput
	}
	return s.store.AddResult(ctx, userID, delta)
}

var _ service.ResultRecorder = (*Service)(nil)

// RecordResult implements service.ResultRecorder.
func (s *Service) RecordResult(ctx context.Context, accountID string, r service.Result) error {
	st, err := s.UpdateStats(ctx, accountID, StatsDelta{Wins: r.Wins, Losses: r.Losses, Draws: r.Draws})
	if err != nil {
		return err
	}
	s.log.Debug("result recorded", zap.String("user", accountID), zap.Int("gamesPlayed", st.GamesPlayed))
	return nil
}
