// Package verification manages the email verification lifecycle:
// pending (token issued) -> verified. The state is derived from the user
// row rather than stored. The consumed token value is kept on the row so
// a repeat submission of the same link resolves to the already-verified
// outcome instead of an error.
package verification

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/models"
)

const TokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid verification token")
	ErrExpiredToken = errors.New("verification token has expired")
)

type State int

const (
	StateUnverified State = iota
	StatePending
	StateVerified
)

func StateOf(u *models.User) State {
	switch {
	case u.EmailVerified:
		return StateVerified
	case u.VerificationToken != nil:
		return StatePending
	default:
		return StateUnverified
	}
}

type Result int

const (
	ResultVerified Result = iota
	ResultAlreadyVerified
)

type Service struct {
	DB *gorm.DB
}

func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue puts the user into the pending state with a fresh token. Calling it
// again regenerates the token and extends the expiry; the previous token
// value stops matching and is therefore dead.
func (s *Service) Issue(user *models.User) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(TokenTTL)

	if err := s.DB.Model(user).Updates(map[string]any{
		"verification_token":         token,
		"verification_token_expires": expires,
	}).Error; err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	user.VerificationToken = &token
	user.VerificationTokenExpires = &expires
	return token, nil
}

// Consume applies the pending -> verified transition. The token value is
// retained after the flip: a verified row no longer transitions, so the
// same link clicked twice lands in the already-verified branch rather
// than failing the lookup. An expired token leaves the account pending
// and requires an explicit resend.
func (s *Service) Consume(rawToken string) (Result, *models.User, error) {
	var user models.User
	if err := s.DB.Where("verification_token = ?", rawToken).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, ErrInvalidToken
		}
		return 0, nil, fmt.Errorf("db error: %w", err)
	}

	if user.EmailVerified {
		return ResultAlreadyVerified, &user, nil
	}
	if user.VerificationTokenExpires == nil || time.Now().After(*user.VerificationTokenExpires) {
		return 0, nil, ErrExpiredToken
	}

	if err := s.DB.Model(&user).
		Where("verification_token = ?", rawToken).
		Update("email_verified", true).Error; err != nil {
		return 0, nil, fmt.Errorf("db error: %w", err)
	}

	user.EmailVerified = true
	return ResultVerified, &user, nil
}
