package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smarterd/internal/apperrors"
	"smarterd/internal/hasher"
	"smarterd/internal/identity"
	"smarterd/internal/models"
	"smarterd/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	log "github.com/sirupsen/logrus"
)

// AuthService authenticates users and issues the tokens carrying their
// identity.
type AuthService struct {
	userRepo  repositories.UserRepository
	hasher    hasher.Hasher
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, h hasher.Hasher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if h == nil {
		h = hasher.NewBcryptHasher(0)
	}
	return &AuthService{
		userRepo:  userRepo,
		hasher:    h,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.Unauthorized("Invalid credentials.")
		}
		return "", err
	}

	ok, err := s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.Unauthorized("Invalid credentials.")
	}

	return s.IssueToken(user)
}

// IssueToken signs a token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.Slug,
		"user_id":  user.ID,
		"username": user.Username,
		"roles":    user.Roles(),
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token and returns the caller it
// identifies. The user is reloaded so that a role change or a removal takes
// effect before the token expires.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*identity.Caller, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Debugf("Token validation error: %v", err)
		return nil, apperrors.Unauthorized("Invalid or expired token.")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired token.")
	}

	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return nil, apperrors.Unauthorized("Token does not identify a user.")
	}
	user, err := s.userRepo.GetByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("Token does not identify a user.")
		}
		return nil, err
	}
	if sub, _ := claims["sub"].(string); sub != user.Slug {
		return nil, apperrors.Unauthorized("Token does not identify a user.")
	}
	return CallerFor(user), nil
}

// CallerFor returns the identity of user, for operations started outside of
// a request.
func CallerFor(user *models.User) *identity.Caller {
	return &identity.Caller{ID: user.ID, Slug: user.Slug, Username: user.Username, Admin: user.IsAdmin}
}
