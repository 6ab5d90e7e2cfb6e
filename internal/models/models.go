package models

import (
	"strings"
	"time"
)

// Boolean columns carry no gorm default tags: with a default set, GORM
// omits zero values on insert and an explicit false comes back as the
// column default. Every flag is set explicitly at create time instead.
type User struct {
	ID                       uint       `gorm:"primaryKey;autoIncrement"              json:"id"`
	Email                    string     `gorm:"uniqueIndex;not null"                  json:"email"`
	PasswordHash             string     `gorm:"not null"                              json:"-"`
	FirstName                string     `json:"firstName"`
	LastName                 string     `json:"lastName"`
	Phone                    string     `json:"phone"`
	AvatarURL                string     `json:"avatarUrl"`
	DateOfBirth              *time.Time `json:"dateOfBirth"`
	Gender                   string     `json:"gender"`
	Role                     string     `gorm:"not null"                              json:"role"`
	GoogleID                 *string    `gorm:"uniqueIndex"                           json:"-"`
	NewsletterSubscribed     bool       `json:"newsletterSubscribed"`
	SMSNotifications         bool       `json:"smsNotifications"`
	EmailVerified            bool       `json:"emailVerified"`
	VerificationToken        *string    `gorm:"index"                                 json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	IsActive                 bool       `json:"-"`
	LastLoginAt              *time.Time `json:"lastLoginAt"`
	LoginCount               uint       `json:"-"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RefreshToken is one row per login event. Rows are never deleted: expired
// and revoked tokens stay behind as a login audit trail.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null" json:"-"`
	UserID    uint      `gorm:"index;not null"  json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"        json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey"                            json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_user_product;not null" json:"product_id"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
