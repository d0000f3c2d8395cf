package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/authbase/internal/config"
	"github.com/geocoder89/authbase/internal/domain/user"
	"github.com/geocoder89/authbase/internal/security"
	"github.com/geocoder89/authbase/internal/validation"
	"github.com/google/uuid"
)

type AdminStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account when it does not exist
// yet. It is a no-op without ADMIN_EMAIL and ADMIN_PASSWORD.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher *security.Hasher, cfg config.Config) (created bool, err error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	if err = validation.ValidateEmail(cfg.AdminEmail); err != nil {
		return false, err
	}
	if err = validation.ValidatePassword(cfg.AdminPassword); err != nil {
		return false, err
	}

	email := validation.NormalizeEmail(cfg.AdminEmail)

	_, err = store.GetByEmail(ctx, email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	var name *string
	if n := strings.TrimSpace(cfg.AdminName); n != "" {
		name = &n
	}

	now := time.Now().UTC()

	_, err = store.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	// another instance seeded it first
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
