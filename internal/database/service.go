package database

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserService provides device-token auth on top of the repository. A
// userId is claimed by the first device that submits it; the issued
// token gates later writes to that userId.
type UserService struct {
	repo      *Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewUserService creates a new user service
func NewUserService(repo *Repository, jwtSecret string) *UserService {
	return &UserService{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  365 * 24 * time.Hour,
	}
}

// Exists reports whether the user has submitted before
func (s *UserService) Exists(userID string) (bool, error) {
	return s.repo.UserExists(userID)
}

// IssueDeviceToken signs a token binding a device to a userId
func (s *UserService) IssueDeviceToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign device token: %w", err)
	}

	return signed, nil
}

// ValidateDeviceToken verifies a token and returns the bound userId
func (s *UserService) ValidateDeviceToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid device token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid device token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("device token missing subject")
	}

	return sub, nil
}

// Authorize checks that a token (if the user already exists) matches
// the target userId. New users need no token; the response to their
// first submission carries one.
func (s *UserService) Authorize(userID, tokenString string) (bool, error) {
	exists, err := s.repo.UserExists(userID)
	if err != nil {
		return false, err
	}

	if !exists {
		return true, nil
	}

	if tokenString == "" {
		return false, nil
	}

	sub, err := s.ValidateDeviceToken(tokenString)
	if err != nil {
		return false, nil
	}

	return sub == userID, nil
}
