package lostfound

import (
	"context"
	"errors"
	"fmt"

	"github.com/lostfound/registry/internal/auth"
	"github.com/lostfound/registry/internal/model"
	"github.com/lostfound/registry/internal/store"
)

// Register creates a regular account and returns its API token.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", newError(KindValidation, MsgCredentialsRequired)
	}
	fe := fieldErrors{}
	if err := model.ValidateUsername(username); err != nil {
		fe.add("username", err.Error())
	}
	if err := auth.ValidatePassword(password); err != nil {
		fe.add("password", MsgPasswordTooLong)
	}
	if err := fe.err(); err != nil {
		return "", err
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		return "", newError(KindConflict, MsgUsernameTaken)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	user, err := s.users.Create(ctx, username, hash, false)
	if errors.Is(err, store.ErrUsernameTaken) {
		// Lost a race with a concurrent registration.
		return "", newError(KindConflict, MsgUsernameTaken)
	}
	if err != nil {
		return "", fmt.Errorf("registering user: %w", err)
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user registered", "user", user.Username)
	return token, nil
}

// Login verifies credentials and returns the user's API token, creating it
// if the user has none yet.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", newError(KindAuthentication, MsgInvalidCredentials)
	}

	// No stored hash can match a password bcrypt refuses to hash.
	if auth.ValidatePassword(password) != nil {
		auth.BurnPasswordCheck(password[:auth.MaxPasswordBytes])
		s.logger.Warn("login failed", "username", username, "reason", "password too long")
		return "", newError(KindAuthentication, MsgInvalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		auth.BurnPasswordCheck(password)
		s.logger.Warn("login failed", "username", username, "reason", "unknown user")
		return "", newError(KindAuthentication, MsgInvalidCredentials)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("login failed", "username", username, "reason", "wrong password")
		return "", newError(KindAuthentication, MsgInvalidCredentials)
	}

	token, err := s.tokens.GetOrCreate(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", "user", user.Username, "staff", user.IsStaff)
	return token, nil
}

// Authenticate resolves a token key to the identity of its owner.
func (s *Service) Authenticate(ctx context.Context, key string) (auth.Identity, error) {
	user, err := s.tokens.Lookup(ctx, key)
	if err != nil {
		return auth.Anonymous, fmt.Errorf("authenticating: %w", err)
	}
	if user == nil {
		return auth.Anonymous, newError(KindAuthentication, MsgInvalidToken)
	}
	return auth.Identity{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff}, nil
}
