// Package token issues and exchanges the access/refresh token pair. Access
// tokens are stateless JWTs; refresh tokens are additionally recorded in the
// refresh_tokens ledger so they can be revoked before natural expiry.
package token

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/tokens"
)

var (
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrExpiredToken = errors.New("refresh token has expired")
)

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// IssuePair mints both tokens for an authenticated user and records the
// refresh token in the ledger together with the requesting client's
// user agent and IP.
func (s *Service) IssuePair(user *models.User, rememberMe bool, userAgent, ip string) (*Pair, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, user.Email, s.JWTSecret, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshTTL := tokens.RefreshTTL
	if rememberMe {
		refreshTTL = tokens.RefreshTTLRemember
	}
	refreshExp := time.Now().Add(refreshTTL)
	refreshToken, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	row := models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
		UserAgent: userAgent,
		IPAddress: ip,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is NOT rotated: the same token stays valid until its
// ledger expiry or until revoked.
func (s *Service) Refresh(rawToken string) (string, *models.User, error) {
	claims, err := tokens.RefreshClaimsFromToken(rawToken, s.RefreshSecret)
	if err != nil {
		return "", nil, ErrInvalidToken
	}

	var stored models.RefreshToken
	if err := s.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return "", nil, ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return "", nil, ErrExpiredToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", nil, ErrInvalidToken
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, fmt.Errorf("db error: %w", err)
	}

	accessExp := time.Now().Add(tokens.AccessTTL)
	accessToken, err := tokens.SignAccessToken(user.ID, user.Email, s.JWTSecret, accessExp)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return accessToken, &user, nil
}

// Revoke marks a single ledger row revoked by exact token match.
func (s *Service) Revoke(rawToken string) error {
	if err := s.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RevokeAll invalidates every session for a user. Triggered by password
// change; this is the only cross-session invalidation path.
func (s *Service) RevokeAll(userID uint) error {
	if err := s.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
