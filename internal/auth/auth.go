// Package auth is the access control gate for the notice board. It validates
// the three credential kinds (administrator board secret, operator accounts,
// viewers need none) and owns nothing but the comparison: attribution and
// ownership checks live in the store, session state lives with the client.
//
// Secrets are stored as bcrypt hashes. The system this replaces compared
// plain text; keeping that would have been negligent even for an internal
// tool, so the behavior (single shared admin secret, per-account operator
// secrets) survives but the storage method does not.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/santacasa-ti/plantao-board/internal/models"
	"github.com/santacasa-ti/plantao-board/internal/store"
)

// CredentialStore is the slice of the store the gate needs
type CredentialStore interface {
	GetOperatorByUsername(ctx context.Context, username string) (models.Operator, error)
	GetConfigValue(ctx context.Context, key string) (string, error)
	SetConfigValue(ctx context.Context, key, value string) error
}

type Service struct {
	store  CredentialStore
	logger *slog.Logger
}

func NewService(store CredentialStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// HashPassword produces the bcrypt hash stored for any secret in the system
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// EnsureAdminPassword seeds the administrator board secret on first boot.
// An existing secret is never overwritten
func (s *Service) EnsureAdminPassword(ctx context.Context, seed string) error {
	_, err := s.store.GetConfigValue(ctx, store.ConfigKeyAdminPassword)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(seed)
	if err != nil {
		return err
	}
	if err := s.store.SetConfigValue(ctx, store.ConfigKeyAdminPassword, hash); err != nil {
		return err
	}
	s.logger.Warn("Administrator password seeded from configuration, change it from the board")
	return nil
}

// LoginAdministrator validates the shared board secret. There is no account
// behind it, just the single stored hash
func (s *Service) LoginAdministrator(ctx context.Context, password string) bool {
	hash, err := s.store.GetConfigValue(ctx, store.ConfigKeyAdminPassword)
	if err != nil {
		s.logger.Error("Failed to load administrator secret", "error", err)
		return false
	}
	return checkPassword(hash, password)
}

// ChangeAdministratorPassword is the admin self-service flow: the current
// secret must be presented before the new one is stored
func (s *Service) ChangeAdministratorPassword(ctx context.Context, current, updated string) (bool, string) {
	if !s.LoginAdministrator(ctx, current) {
		return false, "Senha atual incorreta"
	}

	hash, err := HashPassword(updated)
	if err != nil {
		s.logger.Error("Failed to hash new administrator secret", "error", err)
		return false, "Erro ao alterar senha"
	}
	if err := s.store.SetConfigValue(ctx, store.ConfigKeyAdminPassword, hash); err != nil {
		s.logger.Error("Failed to store new administrator secret", "error", err)
		return false, "Erro ao alterar senha"
	}
	return true, "Senha alterada com sucesso"
}

// LoginOperator validates an operator credential pair. Inactive accounts are
// rejected even with the right password. The failure message never says
// which half was wrong
func (s *Service) LoginOperator(ctx context.Context, username, password string) (models.OperatorProfile, bool) {
	operator, err := s.store.GetOperatorByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("Failed to load operator", "username", username, "error", err)
		}
		return models.OperatorProfile{}, false
	}
	if !operator.Active || !checkPassword(operator.PasswordHash, password) {
		return models.OperatorProfile{}, false
	}
	return operator.Profile(), true
}
