package token

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/tokens"
)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))
	return &Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}, db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestIssuePairRecordsLedgerRow(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")

	pair, err := svc.IssuePair(user, false, "test-agent", "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(tokens.AccessTTL), pair.AccessExp, time.Minute)
	require.WithinDuration(t, time.Now().Add(tokens.RefreshTTL), pair.RefreshExp, time.Minute)

	var row models.RefreshToken
	require.NoError(t, db.Where("token = ?", pair.RefreshToken).First(&row).Error)
	require.Equal(t, user.ID, row.UserID)
	require.Equal(t, "test-agent", row.UserAgent)
	require.Equal(t, "203.0.113.7", row.IPAddress)
	require.False(t, row.Revoked)
}

func TestIssuePairDistinctTokensPerLogin(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")

	// Back-to-back logins land within the same clock second; each must
	// still get its own ledger row.
	first, err := svc.IssuePair(user, false, "", "")
	require.NoError(t, err)
	second, err := svc.IssuePair(user, false, "", "")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestIssuePairRememberMe(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")

	pair, err := svc.IssuePair(user, true, "", "")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(tokens.RefreshTTLRemember), pair.RefreshExp, time.Minute)
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")
	pair, err := svc.IssuePair(user, false, "", "")
	require.NoError(t, err)

	accessToken, gotUser, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, gotUser.ID)

	claims, err := tokens.AccessClaimsFromToken(accessToken, svc.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, user.Email, claims.Email)

	// No rotation: the same refresh token keeps working.
	_, _, err = svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")

	// Structurally valid JWT with no matching ledger row.
	exp := time.Now().Add(tokens.RefreshTTL)
	raw, err := tokens.SignRefreshToken(user.ID, svc.RefreshSecret, exp)
	require.NoError(t, err)

	_, _, err = svc.Refresh(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshRevokedToken(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")
	pair, err := svc.IssuePair(user, false, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(pair.RefreshToken))
	_, _, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshLedgerExpiry(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")
	pair, err := svc.IssuePair(user, false, "", "")
	require.NoError(t, err)

	// The ledger expiry governs even while the JWT itself is still valid.
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("token = ?", pair.RefreshToken).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	_, _, err = svc.Refresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshGarbage(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Refresh("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeAllKillsEverySession(t *testing.T) {
	svc, db := newService(t)
	user := createUser(t, db, "a@b.com")
	other := createUser(t, db, "c@d.com")

	first, err := svc.IssuePair(user, false, "laptop", "")
	require.NoError(t, err)
	second, err := svc.IssuePair(user, true, "phone", "")
	require.NoError(t, err)
	otherPair, err := svc.IssuePair(other, false, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(user.ID))

	_, _, err = svc.Refresh(first.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = svc.Refresh(second.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// Other users are untouched.
	_, _, err = svc.Refresh(otherPair.RefreshToken)
	require.NoError(t, err)

	// Revoked rows stay in the ledger.
	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(2), count)
}
