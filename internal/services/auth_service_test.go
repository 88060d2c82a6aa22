package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/purepath/recovery-backend/internal/cache"
	"github.com/purepath/recovery-backend/internal/config"
	"github.com/purepath/recovery-backend/internal/dto"
	"github.com/purepath/recovery-backend/internal/models"
	"github.com/purepath/recovery-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	err = db.AutoMigrate(
		&models.User{}, &models.RefreshToken{}, &models.Report{},
		&models.Block{}, &models.AppSetting{},
	)
	require.NoError(t, err)
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		ResetTokenTTL:    15 * time.Minute,
		PublicFeedLimit:  50,
	}
}

func newAuthService(t *testing.T) (*services.AuthService, *gorm.DB, cache.Store) {
	db := setupTestDB(t)
	store := cache.NewMemoryStore()
	return services.NewAuthService(db, testConfig(), store), db, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, db, _ := newAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "sup3rsecret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	// Display name falls back to the email local part.
	assert.Equal(t, "alice", resp.User.DisplayName)

	// Email is stored lowercased and deduplicated.
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
	require.NotNil(t, user.Email)
	assert.Equal(t, "alice@example.com", *user.Email)

	_, err = svc.Register(&dto.RegisterRequest{Email: "alice@example.com", Password: "sup3rsecret"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	_, err = svc.Register(&dto.RegisterRequest{Email: "bob@example.com", Password: "short"})
	assert.Error(t, err)

	login, err := svc.Login(&dto.LoginRequest{Email: "ALICE@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(&dto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestGuestSignIn(t *testing.T) {
	svc, db, _ := newAuthService(t)

	resp, err := svc.GuestSignIn()
	require.NoError(t, err)
	assert.True(t, resp.User.IsGuest)
	assert.True(t, strings.HasPrefix(resp.User.DisplayName, "Visitor "))

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
	assert.Nil(t, user.Email)
	assert.Equal(t, "Visitor "+user.ID.String()[:5], user.DisplayName)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	registered, err := svc.Register(&dto.RegisterRequest{
		Email: "carol@example.com", Password: "sup3rsecret",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The old token was revoked by the rotation.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: registered.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, store := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(&dto.RegisterRequest{Email: "dave@example.com", Password: "firstsecret"})
	require.NoError(t, err)

	// Unknown emails are silently accepted.
	require.NoError(t, svc.RequestPasswordReset(ctx, &dto.ResetRequest{Email: "nobody@example.com"}))

	require.NoError(t, svc.RequestPasswordReset(ctx, &dto.ResetRequest{Email: "dave@example.com"}))

	// Fish the issued token out of the store the way the mailer would.
	token := findResetToken(t, store)

	err = svc.ConfirmPasswordReset(ctx, &dto.ResetConfirmRequest{Token: token, NewPassword: "secondsecret"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "dave@example.com", Password: "firstsecret"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = svc.Login(&dto.LoginRequest{Email: "dave@example.com", Password: "secondsecret"})
	require.NoError(t, err)

	// One-shot token.
	err = svc.ConfirmPasswordReset(ctx, &dto.ResetConfirmRequest{Token: token, NewPassword: "thirdsecret"})
	assert.ErrorIs(t, err, services.ErrInvalidResetToken)
}

// findResetToken scans the memory store for the single pwreset entry.
func findResetToken(t *testing.T, store cache.Store) string {
	t.Helper()
	ms, ok := store.(*cache.MemoryStore)
	require.True(t, ok)
	token := ms.FindKeyWithPrefix("pwreset:")
	require.NotEmpty(t, token)
	return strings.TrimPrefix(token, "pwreset:")
}

func TestDeleteAccount(t *testing.T) {
	svc, db, _ := newAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{Email: "erin@example.com", Password: "sup3rsecret"})
	require.NoError(t, err)

	assert.Error(t, svc.DeleteAccount(resp.User.ID, "wrong-pass"))
	require.NoError(t, svc.DeleteAccount(resp.User.ID, "sup3rsecret"))

	var count int64
	db.Model(&models.User{}).Where("id = ?", resp.User.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	var tokens int64
	db.Model(&models.RefreshToken{}).Where("user_id = ?", resp.User.ID).Count(&tokens)
	assert.EqualValues(t, 0, tokens)
}
