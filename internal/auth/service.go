// Package auth registers accounts, issues bearer tokens and resolves the
// owner of each API request.
package auth

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

	"github.com/spot-annotator/backend/internal/config"
	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = database.ErrEmailTaken
	ErrInvalidToken       = errors.New("token invalid")
)

// Claims identifies the owner by email in the subject.
type Claims struct {
	jwt.RegisteredClaims
}

type Service struct {
	users  database.UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	logger *zap.Logger
}

func NewService(cfg *config.Config, users database.UserStore, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		cost:   cfg.BcryptCost,
		logger: logger,
	}
}

// Register creates an account for req.Email.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(req.Email),
		PasswordHash: string(hash),
		CreatedAt:    models.Now(),
	})
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("Registered user", zap.String("id", user.ID))
	return user, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return models.TokenResponse{}, err
	}
	if user == nil {
		return models.TokenResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return models.TokenResponse{}, ErrInvalidCredentials
	}

	token, err := s.Sign(user.Email)
	if err != nil {
		return models.TokenResponse{}, err
	}
	return models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

// Sign issues a token for ownerID.
func (s *Service) Sign(ownerID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the owner id carried by a valid token.
func (s *Service) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
