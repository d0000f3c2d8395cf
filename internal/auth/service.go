package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/domain/user"
	"github.com/geocoder89/authbase/internal/security"
	"github.com/geocoder89/authbase/internal/validation"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/authbase/internal/auth")

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

type LoginInput struct {
	Email    string
	Password string
}

type Service struct {
	users  UserStore
	tokens TokenIssuer
	hasher *security.Hasher
	now    func() time.Time
}

func NewService(users UserStore, tokens TokenIssuer, hasher *security.Hasher) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (resp user.AuthResponse, err error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer func() { endSpan(span, err) }()

	if err = validation.ValidateEmail(in.Email); err != nil {
		return
	}
	if err = validation.ValidatePassword(in.Password); err != nil {
		return
	}
	if in.Name != nil {
		if err = validation.ValidateName(*in.Name); err != nil {
			return
		}
	}

	email := validation.NormalizeEmail(in.Email)

	// Fast path only: the unique constraint in the store decides races.
	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		err = apperr.Conflict(apperr.MsgEmailTaken, apperr.CodeUserAlreadyExists)
		return
	case !errors.Is(err, user.ErrNotFound):
		err = pkgerrors.WithStack(err)
		return
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		err = apperr.Internal(err)
		return
	}

	now := s.now().UTC()

	created, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         trimmedOrNil(in.Name),
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			err = apperr.Conflict(apperr.MsgEmailTaken, apperr.CodeUserAlreadyExists).WithCause(err)
			return
		}
		err = pkgerrors.WithStack(err)
		return
	}

	span.SetAttributes(attribute.String("user.id", created.ID))

	return s.authResponse(created)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (resp user.AuthResponse, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() { endSpan(span, err) }()

	if err = validation.ValidateEmail(in.Email); err != nil {
		return
	}

	found, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.CheckDummy(in.Password)
			err = invalidCredentials()
			return
		}
		err = pkgerrors.WithStack(err)
		return
	}

	if err = s.hasher.CheckPassword(found.PasswordHash, in.Password); err != nil {
		if errors.Is(err, security.ErrMismatch) {
			err = invalidCredentials()
			return
		}
		err = apperr.Internal(err)
		return
	}

	span.SetAttributes(attribute.String("user.id", found.ID))

	return s.authResponse(found)
}

// GetCurrentUser trusts userID: the caller has already verified the token.
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (pub user.PublicUser, err error) {
	ctx, span := tracer.Start(ctx, "auth.GetCurrentUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	found, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			err = apperr.NotFound(apperr.MsgUserNotFound, apperr.CodeUserNotFound)
			return
		}
		err = pkgerrors.WithStack(err)
		return
	}

	return user.ToPublic(found), nil
}

func (s *Service) authResponse(u user.User) (user.AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID)
	if err != nil {
		return user.AuthResponse{}, apperr.Internal(err)
	}

	return user.AuthResponse{User: user.ToPublic(u), Token: token}, nil
}

func invalidCredentials() *apperr.Error {
	return apperr.Unauthorized(apperr.MsgInvalidCredentials, apperr.CodeAuthenticationFailed)
}

func trimmedOrNil(name *string) *string {
	if name == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
