package auth_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/auth"
	"github.com/geocoder89/authbase/internal/domain/user"
	"github.com/geocoder89/authbase/internal/repo/memory"
	"github.com/geocoder89/authbase/internal/security"
	"github.com/geocoder89/authbase/internal/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// countingStore wraps the memory repo so tests can see whether the store was touched.
type countingStore struct {
	*memory.UsersRepo
	calls atomic.Int32

	createErr error
	getErr    error
}

func (s *countingStore) Create(ctx context.Context, u user.User) (user.User, error) {
	s.calls.Add(1)
	if s.createErr != nil {
		return user.User{}, s.createErr
	}
	return s.UsersRepo.Create(ctx, u)
}

func (s *countingStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	s.calls.Add(1)
	if s.getErr != nil {
		return user.User{}, s.getErr
	}
	return s.UsersRepo.GetByEmail(ctx, email)
}

func (s *countingStore) GetByID(ctx context.Context, id string) (user.User, error) {
	s.calls.Add(1)
	if s.getErr != nil {
		return user.User{}, s.getErr
	}
	return s.UsersRepo.GetByID(ctx, id)
}

func newTestService(t *testing.T) (*auth.Service, *countingStore, *auth.Manager) {
	t.Helper()

	store := &countingStore{UsersRepo: memory.NewUsersRepo()}
	tokens := auth.NewManager("test-secret", time.Hour)
	svc := auth.NewService(store, tokens, security.NewHasher(bcrypt.MinCost))

	return svc, store, tokens
}

func strPtr(s string) *string { return &s }

func statusOf(err error) int {
	return apperr.From(err).Status
}

func TestRegister_Success(t *testing.T) {
	svc, _, tokens := newTestService(t)

	resp, err := svc.Register(context.Background(), auth.RegisterInput{
		Email:    "a@b.com",
		Password: "Abcdef12",
		Name:     strPtr("  Ada Lovelace "),
	})
	require.NoError(t, err)

	require.Equal(t, "a@b.com", resp.User.Email)
	require.Equal(t, user.RoleUser, resp.User.Role)
	require.NotNil(t, resp.User.Name)
	require.Equal(t, "Ada Lovelace", *resp.User.Name)
	require.NotEmpty(t, resp.User.ID)
	require.NotEmpty(t, resp.User.CreatedAt)
	require.NotEmpty(t, resp.Token)

	claims, err := tokens.VerifyAccessToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, claims.UserID())
}

func TestRegister_StoresNormalizedEmailAndHash(t *testing.T) {
	svc, store, _ := newTestService(t)

	resp, err := svc.Register(context.Background(), auth.RegisterInput{Email: "Foo@Bar.COM", Password: "Abcdef12"})
	require.NoError(t, err)
	require.Equal(t, "foo@bar.com", resp.User.Email)
	require.Nil(t, resp.User.Name)

	stored, err := store.UsersRepo.GetByEmail(context.Background(), "foo@bar.com")
	require.NoError(t, err)
	require.NotEqual(t, "Abcdef12", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Abcdef12")))
}

func TestRegister_ValidationNeverReachesStore(t *testing.T) {
	tests := []struct {
		name string
		in   auth.RegisterInput
	}{
		{name: "bad_email", in: auth.RegisterInput{Email: "nope", Password: "Abcdef12"}},
		{name: "no_upper", in: auth.RegisterInput{Email: "a@b.com", Password: "abcdef12"}},
		{name: "no_lower", in: auth.RegisterInput{Email: "a@b.com", Password: "ABCDEF12"}},
		{name: "no_digit", in: auth.RegisterInput{Email: "a@b.com", Password: "Abcdefgh"}},
		{name: "short", in: auth.RegisterInput{Email: "a@b.com", Password: "Ab1"}},
		{name: "bad_name", in: auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12", Name: strPtr("R2-D2")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)

			_, err := svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			require.Equal(t, http.StatusBadRequest, statusOf(err))
			require.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
			require.Zero(t, store.calls.Load())
		})
	}
}

func TestRegister_DuplicateIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "foo@bar.com", Password: "Abcdef12"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.RegisterInput{Email: "FOO@Bar.com", Password: "Zyxwvu98"})
	require.Error(t, err)

	appErr := apperr.From(err)
	require.Equal(t, http.StatusConflict, appErr.Status)
	require.Equal(t, apperr.CodeUserAlreadyExists, appErr.Code)
	require.Equal(t, apperr.MsgEmailTaken, appErr.Message)
}

func TestRegister_InsertRaceSurfacesConflict(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.createErr = user.ErrEmailTaken

	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12"})
	require.Equal(t, http.StatusConflict, statusOf(err))
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	const n = 8
	var ok, conflict atomic.Int32

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "race@b.com", Password: "Abcdef12"})
			switch {
			case err == nil:
				ok.Add(1)
			case statusOf(err) == http.StatusConflict:
				conflict.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, int32(1), ok.Load())
	require.Equal(t, int32(n-1), conflict.Load())
}

func TestRegister_StoreFailureIsInternal(t *testing.T) {
	svc, store, _ := newTestService(t)
	storeErr := errors.New("connection refused")
	store.getErr = storeErr

	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12"})
	require.ErrorIs(t, err, storeErr)
	require.Equal(t, http.StatusInternalServerError, statusOf(err))
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, auth.RegisterInput{Email: "foo@bar.com", Password: "Abcdef12"})
	require.NoError(t, err)

	for _, email := range []string{"foo@bar.com", "Foo@Bar.com", "FOO@BAR.COM"} {
		resp, err := svc.Login(ctx, auth.LoginInput{Email: email, Password: "Abcdef12"})
		require.NoError(t, err, email)
		require.Equal(t, reg.User.ID, resp.User.ID)

		claims, err := tokens.VerifyAccessToken(resp.Token)
		require.NoError(t, err)
		require.Equal(t, reg.User.ID, claims.Subject)
	}
}

func TestRegisterThenLogin_MaxLengthPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, password := range []string{
		"Abcdef12" + strings.Repeat("x", 120),
		"Abcdef12" + strings.Repeat("ß", 120),
	} {
		require.Len(t, []rune(password), validation.PasswordMaxLength)

		email := uuid.NewString() + "@b.com"
		reg, err := svc.Register(ctx, auth.RegisterInput{Email: email, Password: password})
		require.NoError(t, err)

		resp, err := svc.Login(ctx, auth.LoginInput{Email: email, Password: password})
		require.NoError(t, err)
		require.Equal(t, reg.User.ID, resp.User.ID)

		runes := []rune(password)
		wrong := string(runes[:len(runes)-1]) + "Z"
		_, err = svc.Login(ctx, auth.LoginInput{Email: email, Password: wrong})
		require.Equal(t, http.StatusUnauthorized, statusOf(err))
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, auth.LoginInput{Email: "a@b.com", Password: "wrong"})
	_, unknownUser := svc.Login(ctx, auth.LoginInput{Email: "ghost@b.com", Password: "Abcdef12"})

	for _, err := range []error{wrongPassword, unknownUser} {
		appErr := apperr.From(err)
		require.Equal(t, http.StatusUnauthorized, appErr.Status)
		require.Equal(t, apperr.CodeAuthenticationFailed, appErr.Code)
		require.Equal(t, "Invalid email or password", appErr.Message)
	}
}

func TestLogin_MalformedEmail(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Login(context.Background(), auth.LoginInput{Email: "not-an-email", Password: "x"})
	require.Equal(t, http.StatusBadRequest, statusOf(err))
	require.Zero(t, store.calls.Load())
}

func TestGetCurrentUser(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12"})
	require.NoError(t, err)

	me, err := svc.GetCurrentUser(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, reg.User, me)

	require.NoError(t, store.UsersRepo.Delete(ctx, reg.User.ID))

	_, err = svc.GetCurrentUser(ctx, reg.User.ID)
	appErr := apperr.From(err)
	require.Equal(t, http.StatusNotFound, appErr.Status)
	require.Equal(t, apperr.CodeUserNotFound, appErr.Code)
}

type failingIssuer struct{}

func (failingIssuer) GenerateAccessToken(string) (string, error) {
	return "", errors.New("signer down")
}

func TestRegister_TokenFailureIsInternal(t *testing.T) {
	svc := auth.NewService(memory.NewUsersRepo(), failingIssuer{}, security.NewHasher(bcrypt.MinCost))

	_, err := svc.Register(context.Background(), auth.RegisterInput{Email: "a@b.com", Password: "Abcdef12"})
	require.Equal(t, http.StatusInternalServerError, statusOf(err))
}
