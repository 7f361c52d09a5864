package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spot-annotator/backend/internal/config"
	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/models"
)

// MockUserStore implements database.UserStore for testing
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newService(users database.UserStore) *Service {
	cfg := &config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost}
	return NewService(cfg, users, zap.NewNop())
}

func userWithPassword(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: "u-1", Email: email, PasswordHash: string(hash)}
}

func TestSignAndVerify(t *testing.T) {
	s := newService(new(MockUserStore))

	token, err := s.Sign("angler@example.com")
	require.NoError(t, err)

	owner, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "angler@example.com", owner)
}

func TestVerify_Rejects(t *testing.T) {
	s := newService(new(MockUserStore))

	other := newService(new(MockUserStore))
	other.secret = []byte("another-secret")
	foreign, err := other.Sign("angler@example.com")
	require.NoError(t, err)

	expired := newService(new(MockUserStore))
	expired.ttl = -time.Minute
	stale, err := expired.Sign("angler@example.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "angler@example.com"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"expired":      stale,
		"alg none":     none,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestLogin(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByEmail", mock.Anything, "angler@example.com").
		Return(userWithPassword(t, "angler@example.com", "correct horse"), nil)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
	s := newService(users)

	resp, err := s.Login(context.Background(), models.LoginRequest{Email: " Angler@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	owner, err := s.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "angler@example.com", owner)

	_, err = s.Login(context.Background(), models.LoginRequest{Email: "angler@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockUserStore)
		wantStatus int
	}{
		{
			name: "created",
			body: `{"email":"angler@example.com","password":"correct horse"}`,
			setupMock: func(m *MockUserStore) {
				m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "angler@example.com" &&
						bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")) == nil
				})).Return(models.User{ID: "u-1", Email: "angler@example.com"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "short password",
			body:       `{"email":"angler@example.com","password":"short"}`,
			setupMock:  func(*MockUserStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad email",
			body:       `{"email":"not-an-email","password":"correct horse"}`,
			setupMock:  func(*MockUserStore) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate",
			body: `{"email":"angler@example.com","password":"correct horse"}`,
			setupMock: func(m *MockUserStore) {
				m.On("CreateUser", mock.Anything, mock.Anything).Return(models.User{}, database.ErrEmailTaken)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserStore)
			tt.setupMock(users)
			router := gin.New()
			newService(users).RegisterRoutes(router.Group("/api/v1"))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			users.AssertExpectations(t)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	users := new(MockUserStore)
	users.On("GetUserByEmail", mock.Anything, "angler@example.com").
		Return(userWithPassword(t, "angler@example.com", "correct horse"), nil)
	router := gin.New()
	newService(users).RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewBufferString(`{"email":"angler@example.com","password":"wrong password"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Error)
}

func TestMiddleware(t *testing.T) {
	s := newService(new(MockUserStore))
	router := gin.New()
	router.GET("/me", s.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, OwnerFrom(c))
	})

	token, err := s.Sign("angler@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "angler@example.com"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "angler@example.com"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
