package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	"bookstore/internal/logger"
	"bookstore/internal/repositories"
)

// AuthService issues token pairs. Token parsing for requests happens in
// the auth middleware, not here.
type AuthService interface {
	Login(username, password string) (auth.TokenPair, error)
	Refresh(refreshToken string) (auth.TokenPair, error)
}

type authService struct {
	tokens   *auth.Manager
	userRepo repositories.UserRepository
}

func NewAuthService(tokens *auth.Manager, userRepo repositories.UserRepository) AuthService {
	return &authService{tokens: tokens, userRepo: userRepo}
}

func (s *authService) Login(username, password string) (auth.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.TokenPair{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return auth.TokenPair{}, err
	}
	logger.Log.Infow("user logged in", "username", username)
	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The user must
// still exist; deleted accounts cannot renew.
func (s *authService) Refresh(refreshToken string) (auth.TokenPair, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	if _, err := s.userRepo.GetByID(nil, userID); err != nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	return s.tokens.IssuePair(userID)
}
