package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// TokenType names the token kinds of the wider system. Only TokenAccess is issued here.
type TokenType string

const (
	TokenAccess            TokenType = "access"
	TokenRefresh           TokenType = "refresh"
	TokenResetPassword     TokenType = "reset_password"
	TokenEmailVerification TokenType = "email_verification"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string `json:"-"` // never expose hash in JSON
	Name         *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the only user shape that crosses the API boundary.
type PublicUser struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	Role      Role    `json:"role"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type AuthResponse struct {
	User  PublicUser `json:"user"`
	Token string     `json:"token"`
}

func ToPublic(u User) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

func (u User) CanPerformAdminActions() bool {
	return IsAdmin(u.Role)
}

// DisplayName falls back to the local part of the email when no name is set.
func (u PublicUser) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}

	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

func (u PublicUser) IsProfileComplete() bool {
	return u.Name != nil && *u.Name != "" && u.Email != ""
}
