package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any login failure. Unknown email
// and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims extends JWT standard claims with the tenant context. Every
// organization-scoped request derives its org id from here, never from
// the request payload.
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID int64 `json:"org_id"`
	UserID         int64 `json:"user_id"`
}

// AuthService handles recruiter authentication and JWT issuance.
type AuthService struct {
	cfg   *config.Config
	store store.Store
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, st store.Store) *AuthService {
	return &AuthService{cfg: cfg, store: st}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login authenticates a user by email and password and returns a signed
// token carrying the user's organization.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.store.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &model.LoginResponse{Token: token, User: sanitized}, nil
}

// GenerateToken creates a JWT for an organization user.
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// CreateUser registers a new user in an organization with a hashed
// password. Emails are unique across all organizations because login
// does not carry tenant context.
func (s *AuthService) CreateUser(ctx context.Context, orgID int64, req model.CreateUserRequest) (*model.User, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, orgID, user); err != nil {
		return nil, err
	}
	return user, nil
}
