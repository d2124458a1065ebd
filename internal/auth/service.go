package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"atelier/internal/core"
)

// passwordCost is the bcrypt cost for the admin secret
var passwordCost = bcrypt.DefaultCost

// Common authentication errors
var (
	ErrNotConfigured      = errors.New("admin password not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service checks the shared admin secret. Only its bcrypt hash is kept.
type Service struct {
	hash   []byte
	logger *core.Logger
}

// NewService hashes adminPassword. An empty password yields a service that rejects everything.
func NewService(adminPassword string, logger *core.Logger) (*Service, error) {
	s := &Service{logger: logger}
	if adminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set; admin routes will answer 500")
		return s, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	s.hash = hash
	return s, nil
}

// Configured reports whether an admin password was provided
func (s *Service) Configured() bool {
	return len(s.hash) > 0
}

// Verify checks password against the admin secret
func (s *Service) Verify(password string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if password == "" {
		return ErrInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword(s.hash, []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	default:
		return err
	}
}
