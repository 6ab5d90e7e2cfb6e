package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/logging"
	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/service/token"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type OAuthHandler struct {
	DB          *gorm.DB
	Tokens      *token.Service
	OAuth       *oauth2.Config
	FrontendURL string
}

func NewOAuthHandler(db *gorm.DB, svc *token.Service, clientID, clientSecret, callbackURL, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		DB:     db,
		Tokens: svc,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		FrontendURL: frontendURL,
	}
}

// GoogleLogin kicks off the OAuth handoff. The state value is carried in a
// short-lived cookie and checked in the callback.
func (h *OAuthHandler) GoogleLogin(c echo.Context) error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	c.SetCookie(&http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// GoogleCallback completes the handoff: exchanges the code, finds or creates
// the user, issues a token pair, and redirects back to the frontend with
// both tokens in the query string.
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	fail := func(reason string, err error) error {
		logging.FromContext(c.Request().Context()).Error("google callback failed", "reason", reason, "error", err)
		return c.Redirect(http.StatusFound, h.FrontendURL+"?error=auth_failed")
	}

	stateCookie, err := c.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return fail("state mismatch", err)
	}

	code := c.QueryParam("code")
	if code == "" {
		return fail("missing code", nil)
	}

	ctx := c.Request().Context()
	tok, err := h.OAuth.Exchange(ctx, code)
	if err != nil {
		return fail("code exchange", err)
	}

	resp, err := h.OAuth.Client(ctx, tok).Get(googleUserinfoURL)
	if err != nil {
		return fail("userinfo request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail("userinfo status "+resp.Status, nil)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return fail("userinfo decode", err)
	}
	if gu.Email == "" {
		return fail("userinfo missing email", nil)
	}

	user, err := h.findOrCreateUser(&gu)
	if err != nil {
		return fail("find or create user", err)
	}
	if !user.IsActive {
		return fail("account deactivated", nil)
	}

	now := time.Now()
	if err := h.DB.Model(user).Updates(map[string]any{
		"last_login_at": now,
		"login_count":   gorm.Expr("login_count + 1"),
	}).Error; err != nil {
		return fail("update login metadata", err)
	}

	pair, err := h.Tokens.IssuePair(user, false, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return fail("issue tokens", err)
	}

	redirect := fmt.Sprintf("%s/auth/callback?accessToken=%s&refreshToken=%s",
		h.FrontendURL, pair.AccessToken, pair.RefreshToken)
	return c.Redirect(http.StatusFound, redirect)
}

func (h *OAuthHandler) findOrCreateUser(gu *googleUser) (*models.User, error) {
	email := strings.ToLower(gu.Email)

	var user models.User
	err := h.DB.Where("google_id = ?", gu.ID).Or("email = ?", email).First(&user).Error
	if err == nil {
		// Link the Google identity to an existing password account on
		// first OAuth login.
		updates := map[string]any{}
		if user.GoogleID == nil {
			updates["google_id"] = gu.ID
		}
		if !user.EmailVerified && gu.VerifiedEmail {
			updates["email_verified"] = true
			updates["verification_token"] = nil
			updates["verification_token_expires"] = nil
		}
		if len(updates) > 0 {
			if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email:                email,
		PasswordHash:         "!oauth",
		FirstName:            gu.GivenName,
		LastName:             gu.FamilyName,
		AvatarURL:            gu.Picture,
		Role:                 "user",
		GoogleID:             &gu.ID,
		EmailVerified:        gu.VerifiedEmail,
		NewsletterSubscribed: true,
		IsActive:             true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
