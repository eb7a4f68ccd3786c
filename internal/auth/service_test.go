package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryAuthRepo struct {
	byEmail map[string]*User
}

func (r *memoryAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryAuthRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func newAuthFixture(t *testing.T) (*Service, *User) {
	t.Helper()
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	user := &User{
		ID:           7,
		Username:     "jdoe",
		Email:        "jdoe@example.com",
		PasswordHash: hash,
		Role:         shared.RoleUser,
		IsActive:     true,
	}
	repo := &memoryAuthRepo{byEmail: map[string]*User{user.Email: user}}
	return NewService(repo, "test-secret", time.Hour), user
}

func TestAuthenticate(t *testing.T) {
	svc, user := newAuthFixture(t)

	got, err := svc.Authenticate(context.Background(), user.Email, "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), user.Email, "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	svc, user := newAuthFixture(t)
	user.IsActive = false

	_, err := svc.Authenticate(context.Background(), user.Email, "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, user := newAuthFixture(t)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	identity, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, user.Username, identity.Username)
	require.Equal(t, shared.RoleUser, identity.Role)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc, user := newAuthFixture(t)
	svc.WithNow(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	svc, user := newAuthFixture(t)

	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	other := NewService(&memoryAuthRepo{}, "another-secret", time.Hour)
	_, err = other.VerifyToken(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.VerifyToken("not-a-token")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
