package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flower_shop/internal/auth"
	"flower_shop/internal/database"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

func newService(t *testing.T) (*auth.Service, *repository.Store) {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.CloseSQL(db) })

	store := repository.NewStore(db)
	return auth.NewService(store), store
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Register(context.Background(), auth.Registration{
		Username: "lan", Email: "lan@example.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", u.Password)
	assert.True(t, auth.CheckPassword(u.Password, "secret1"))
	assert.False(t, u.IsAdmin)
}

func TestRegister_DuplicateEmailCreatesNoRow(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	_, err := svc.Register(ctx, auth.Registration{Username: "lan", Email: "lan@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.Registration{Username: "someone", Email: "lan@example.com", Password: "other12"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Register(ctx, auth.Registration{Username: "lan", Email: "lan@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, auth.Registration{Username: "lan", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestLogin_GenericFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, err := svc.Register(ctx, auth.Registration{Username: "lan", Email: "lan@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "lan@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	u, err := svc.Login(ctx, "lan@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "lan", u.Username)
}

func TestLoginOAuth_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	gu := goth.User{Provider: "google", Email: "mai@example.com", Name: "Mai Nguyen"}
	u, err := svc.LoginOAuth(ctx, gu)
	require.NoError(t, err)
	assert.Equal(t, "google", u.Provider)
	assert.Equal(t, "MaiNguyen", u.Username)

	again, err := svc.LoginOAuth(ctx, gu)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	other, err := svc.LoginOAuth(ctx, goth.User{Provider: "facebook", Email: "mai2@example.com", Name: "Mai Nguyen"})
	require.NoError(t, err)
	assert.NotEqual(t, u.Username, other.Username)

	n, _ := store.CountUsers(ctx)
	assert.Equal(t, int64(2), n)

	_, err = svc.LoginOAuth(ctx, goth.User{Provider: "google"})
	assert.ErrorIs(t, err, auth.ErrOAuthNoEmail)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := auth.NewTokens("test-secret")
	u := &models.User{ID: 12, Email: "lan@example.com", IsAdmin: true}

	raw, err := tokens.Issue(u)
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.WithinDuration(t, time.Now().Add(auth.TokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestTokens_RejectsForeignSecret(t *testing.T) {
	raw, err := auth.NewTokens("one").Issue(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = auth.NewTokens("two").Parse(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewTokens("one").Parse("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestActor(t *testing.T) {
	assert.False(t, auth.Guest().Authenticated())

	a := auth.ActorFor(&models.User{ID: 3, Username: "admin", IsAdmin: true})
	assert.True(t, a.Authenticated())
	assert.Equal(t, uint(3), *a.UserID)
	assert.True(t, a.IsAdmin)
}
