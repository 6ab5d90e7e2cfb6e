package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mccullochjewellers/storefront/internal/models"
)

func (env *testEnv) pendingUser(email string) (*models.User, string) {
	env.T.Helper()
	env.Users.AutoVerify = false
	env.signup(email, "Passw0rd1")
	env.Users.AutoVerify = true

	var user models.User
	require.NoError(env.T, env.DB.Where("email = ?", email).First(&user).Error)
	require.False(env.T, user.EmailVerified)
	require.NotNil(env.T, user.VerificationToken)
	return &user, *user.VerificationToken
}

func (env *testEnv) verifyEmail(rawToken string) (int, map[string]any, error) {
	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/users/verify-email/"+rawToken, nil)
	c.SetParamNames("token")
	c.SetParamValues(rawToken)
	err := env.Users.VerifyEmail(c)
	if err != nil {
		return 0, nil, err
	}
	return rec.Code, decodeEnvelope(env.T, rec), nil
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	user, rawToken := env.pendingUser("a@b.com")

	code, resp, err := env.verifyEmail(rawToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Email verified successfully", resp["message"])

	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.True(t, updated.EmailVerified)
}

func TestVerifyEmailLinkClickedTwice(t *testing.T) {
	env := newTestEnv(t)
	_, rawToken := env.pendingUser("a@b.com")

	code, resp, err := env.verifyEmail(rawToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Email verified successfully", resp["message"])

	// The email client prefetched or the user double-clicked: the same
	// link must not turn into an error.
	code, resp, err = env.verifyEmail(rawToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Email is already verified", resp["message"])
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user, rawToken := env.pendingUser("a@b.com")

	require.NoError(t, env.DB.Model(user).
		Update("verification_token_expires", time.Now().Add(-time.Minute)).Error)

	_, _, err := env.verifyEmail(rawToken)
	env.requireHTTPError(err, http.StatusUnauthorized)

	// Account stays pending; no auto-extension.
	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.False(t, updated.EmailVerified)
	require.NotNil(t, updated.VerificationToken)
}

func TestVerifyEmailAlreadyVerifiedIdempotent(t *testing.T) {
	env := newTestEnv(t)

	// Auto-verified signup keeps its issued token, so the link in the
	// verification email still resolves after the account is verified.
	env.signup("a@b.com", "Passw0rd1")
	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "a@b.com").First(&user).Error)
	require.True(t, user.EmailVerified)
	require.NotNil(t, user.VerificationToken)

	for i := 0; i < 2; i++ {
		code, resp, err := env.verifyEmail(*user.VerificationToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Email is already verified", resp["message"])
	}

	// No mutation: the token columns are untouched.
	var after models.User
	require.NoError(t, env.DB.First(&after, user.ID).Error)
	require.Equal(t, *user.VerificationToken, *after.VerificationToken)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.verifyEmail("deadbeef")
	env.requireHTTPError(err, http.StatusUnauthorized)
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)
	user, oldToken := env.pendingUser("a@b.com")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/users/resend-verification", nil)
	c.Set("userID", user.ID)
	require.NoError(t, env.Users.ResendVerification(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, env.DB.First(&updated, user.ID).Error)
	require.NotNil(t, updated.VerificationToken)
	require.NotEqual(t, oldToken, *updated.VerificationToken)

	// The superseded token no longer matches anything.
	_, _, err := env.verifyEmail(oldToken)
	env.requireHTTPError(err, http.StatusUnauthorized)

	// The fresh one verifies.
	code, _, err := env.verifyEmail(*updated.VerificationToken)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	env := newTestEnv(t)
	_, _, userID := env.signup("a@b.com", "Passw0rd1")

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/users/resend-verification", nil)
	c.Set("userID", userID)
	require.NoError(t, env.Users.ResendVerification(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Email is already verified", decodeEnvelope(t, rec)["message"])
}
