package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/hash"
	"github.com/mccullochjewellers/storefront/internal/httpx"
	"github.com/mccullochjewellers/storefront/internal/logging"
	"github.com/mccullochjewellers/storefront/internal/mailer"
	authmw "github.com/mccullochjewellers/storefront/internal/middleware/auth"
	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/mykafka"
	"github.com/mccullochjewellers/storefront/internal/service/token"
	"github.com/mccullochjewellers/storefront/internal/service/verification"
)

type UserHandler struct {
	DB           *gorm.DB
	Tokens       *token.Service
	Verification *verification.Service
	Mailer       *mailer.Mailer
	Producer     *mykafka.Producer

	// AutoVerify marks accounts verified at signup instead of sending the
	// verification email. Enabled in the development environment only.
	AutoVerify bool
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func userJSON(u *models.User) map[string]any {
	var fullName any
	if n := u.FullName(); n != "" {
		fullName = n
	}
	return map[string]any{
		"id":            u.ID,
		"email":         u.Email,
		"firstName":     u.FirstName,
		"lastName":      u.LastName,
		"emailVerified": u.EmailVerified,
		"avatarUrl":     u.AvatarURL,
		"fullName":      fullName,
	}
}

func (h *UserHandler) Signup(c echo.Context) error {
	var req struct {
		Email                string `json:"email"     validate:"required,email"`
		Password             string `json:"password"  validate:"required,min=8"`
		FirstName            string `json:"firstName"`
		LastName             string `json:"lastName"`
		NewsletterSubscribed *bool  `json:"newsletterSubscribed"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Email and password are required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	email := strings.ToLower(req.Email)

	var existing models.User
	err := h.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return httpx.Fail(http.StatusConflict, "An account with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db error: %w", err)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := verification.NewToken()
	if err != nil {
		return err
	}
	verificationExpires := time.Now().Add(verification.TokenTTL)

	newsletter := true
	if req.NewsletterSubscribed != nil {
		newsletter = *req.NewsletterSubscribed
	}

	user := models.User{
		Email:                    email,
		PasswordHash:             passwordHash,
		FirstName:                req.FirstName,
		LastName:                 req.LastName,
		Role:                     "user",
		NewsletterSubscribed:     newsletter,
		VerificationToken:        &verificationToken,
		VerificationTokenExpires: &verificationExpires,
		EmailVerified:            h.AutoVerify,
		IsActive:                 true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	pair, err := h.Tokens.IssuePair(&user, false, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return err
	}

	if !h.AutoVerify {
		if err := h.Mailer.SendVerificationEmail(user.Email, verificationToken, user.FirstName); err != nil {
			logging.FromContext(c.Request().Context()).Error("send verification email", "error", err, "userID", user.ID)
		}
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return httpx.OK(c, http.StatusCreated, "Account created successfully", map[string]any{
		"user":         userJSON(&user),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *UserHandler) Login(c echo.Context) error {
	var req struct {
		Email      string `json:"email"    validate:"required"`
		Password   string `json:"password" validate:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Email and password are required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusUnauthorized, "Invalid email or password")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if !user.IsActive {
		return httpx.Fail(http.StatusForbidden, "Your account has been deactivated. Please contact support.")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return httpx.Fail(http.StatusUnauthorized, "Invalid email or password")
	}

	now := time.Now()
	if err := h.DB.Model(&user).Updates(map[string]any{
		"last_login_at": now,
		"login_count":   gorm.Expr("login_count + 1"),
	}).Error; err != nil {
		return fmt.Errorf("update login metadata: %w", err)
	}

	pair, err := h.Tokens.IssuePair(&user, req.RememberMe, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return httpx.OK(c, http.StatusOK, "Login successful", map[string]any{
		"user":         userJSON(&user),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

func (h *UserHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Refresh token is required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	accessToken, user, err := h.Tokens.Refresh(req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpiredToken):
			return httpx.Fail(http.StatusUnauthorized, "Refresh token has expired")
		case errors.Is(err, token.ErrInvalidToken):
			return httpx.Fail(http.StatusUnauthorized, "Invalid refresh token")
		default:
			return err
		}
	}

	return httpx.OK(c, http.StatusOK, "", map[string]any{
		"accessToken": accessToken,
		"user": map[string]any{
			"id":        user.ID,
			"email":     user.Email,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
		},
	})
}

func (h *UserHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}

	if req.RefreshToken != "" {
		if err := h.Tokens.Revoke(req.RefreshToken); err != nil {
			return err
		}
	}
	return httpx.OK(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "User not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	var fullName any
	if n := user.FullName(); n != "" {
		fullName = n
	}
	return httpx.OK(c, http.StatusOK, "", map[string]any{
		"id":                   user.ID,
		"email":                user.Email,
		"firstName":            user.FirstName,
		"lastName":             user.LastName,
		"phone":                user.Phone,
		"avatarUrl":            user.AvatarURL,
		"dateOfBirth":          user.DateOfBirth,
		"gender":               user.Gender,
		"newsletterSubscribed": user.NewsletterSubscribed,
		"smsNotifications":     user.SMSNotifications,
		"emailVerified":        user.EmailVerified,
		"createdAt":            user.CreatedAt,
		"lastLoginAt":          user.LastLoginAt,
		"fullName":             fullName,
	})
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		FirstName            *string    `json:"firstName"`
		LastName             *string    `json:"lastName"`
		Phone                *string    `json:"phone"`
		DateOfBirth          *time.Time `json:"dateOfBirth"`
		Gender               *string    `json:"gender"`
		NewsletterSubscribed *bool      `json:"newsletterSubscribed"`
		SMSNotifications     *bool      `json:"smsNotifications"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Invalid request")
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.DateOfBirth != nil {
		updates["date_of_birth"] = *req.DateOfBirth
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.NewsletterSubscribed != nil {
		updates["newsletter_subscribed"] = *req.NewsletterSubscribed
	}
	if req.SMSNotifications != nil {
		updates["sms_notifications"] = *req.SMSNotifications
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "User not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
	}

	return httpx.OK(c, http.StatusOK, "Profile updated successfully", map[string]any{
		"id":          user.ID,
		"email":       user.Email,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"phone":       user.Phone,
		"dateOfBirth": user.DateOfBirth,
		"gender":      user.Gender,
	})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword"     validate:"required,min=8"`
	}
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(http.StatusBadRequest, "Current password and new password are required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "User not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return httpx.Fail(http.StatusUnauthorized, "Current password is incorrect")
	}

	newHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := h.DB.Model(&user).Update("password_hash", newHash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Force re-login everywhere.
	if err := h.Tokens.RevokeAll(user.ID); err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "password_changed",
		"userID": user.ID,
	})

	return httpx.OK(c, http.StatusOK, "Password changed successfully. Please log in again.", nil)
}

func (h *UserHandler) VerifyEmail(c echo.Context) error {
	rawToken := c.Param("token")
	if rawToken == "" {
		return httpx.Fail(http.StatusBadRequest, "Verification token is required")
	}

	result, user, err := h.Verification.Consume(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrExpiredToken):
			return httpx.Fail(http.StatusUnauthorized, "Verification link has expired. Please request a new one.")
		case errors.Is(err, verification.ErrInvalidToken):
			return httpx.Fail(http.StatusUnauthorized, "Invalid verification link")
		default:
			return err
		}
	}

	if result == verification.ResultAlreadyVerified {
		return httpx.OK(c, http.StatusOK, "Email is already verified", nil)
	}

	if err := h.Mailer.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
		logging.FromContext(c.Request().Context()).Error("send welcome email", "error", err, "userID", user.ID)
	}

	h.publish(c, map[string]any{
		"type":   "email_verified",
		"userID": user.ID,
	})

	return httpx.OK(c, http.StatusOK, "Email verified successfully", nil)
}

func (h *UserHandler) ResendVerification(c echo.Context) error {
	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.Fail(http.StatusNotFound, "User not found")
		}
		return fmt.Errorf("db error: %w", err)
	}

	if user.EmailVerified {
		return httpx.OK(c, http.StatusOK, "Email is already verified", nil)
	}

	verificationToken, err := h.Verification.Issue(&user)
	if err != nil {
		return err
	}

	if err := h.Mailer.SendVerificationEmail(user.Email, verificationToken, user.FirstName); err != nil {
		logging.FromContext(c.Request().Context()).Error("send verification email", "error", err, "userID", user.ID)
	}

	return httpx.OK(c, http.StatusOK, "Verification email sent", nil)
}
