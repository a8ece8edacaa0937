package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"todo_service/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL   = time.Hour
	MinPasswordLength = 8
	// bcrypt only accepts inputs up to this many bytes.
	MaxPasswordBytes = 72
)

// AuthService handles registration, login and token validation.
type AuthService struct {
	authRepo repository.Authorization
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(repo repository.Authorization, cfg TokenConfig) *AuthService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{authRepo: repo, secret: []byte(cfg.Secret), ttl: ttl}
}

// SignUp trims the username, hashes the password and creates the user.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", invalid("username is required")
	}
	if len(password) < MinPasswordLength {
		return "", invalid(fmt.Sprintf("password must be at least %d characters long", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return "", invalid(fmt.Sprintf("password must be at most %d bytes long", MaxPasswordBytes))
	}

	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	id, err := s.authRepo.Create(ctx, username, hash)
	if errors.Is(err, repository.ErrUserAlreadyExists) {
		return "", ErrConflict
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GenerateToken validates credentials and returns a signed JWT.
// Unknown user and wrong password both yield ErrUnauthorized.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.authRepo.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		// keep the response time close to the wrong-password path
		_ = verifyPassword(dummyHash(), password)
		return "", ErrUnauthorized
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrUnauthorized
	}

	return s.issueToken(u.ID, time.Now())
}

// ParseToken verifies signature and expiry and returns the subject (user id).
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken(userID string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
		dummy = string(h)
	})
	return dummy
}
