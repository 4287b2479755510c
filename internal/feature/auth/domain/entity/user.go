// Package entity はauthフィーチャーのドメインエンティティを定義します。
package entity

import "time"

// Role はユーザーの静的な役割タグです。認可ポリシーは持ちません。
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid はRoleが定義済みの値かを返します。
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleBuyer, RoleSeller:
		return true
	}
	return false
}

// User represents a registered user in the system.
// Username and email are stored lowercase; uniqueness is enforced by the
// database. Nullable unique fields (phone) and the token fields use pointers
// so that "absent" is distinguishable from "empty".
type User struct {
	// ID is the opaque, system-assigned identifier (UUID), immutable.
	ID string `gorm:"primaryKey;size:36"`

	// Username is unique and case-normalized at write time.
	Username string `gorm:"uniqueIndex;size:64;not null"`

	// Email is unique and case-normalized at write time.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// PasswordHash is the bcrypt hash of the login secret.
	// This never stores the plaintext.
	PasswordHash string `gorm:"size:255;not null"`

	FullName          string  `gorm:"size:255;not null"`
	Phone             *string `gorm:"uniqueIndex;size:20"`
	ProfilePictureURL string  `gorm:"size:512"`
	Role              Role    `gorm:"size:16;not null;default:buyer"`

	// RefreshToken is the most recently issued refresh secret; nil means no
	// active session. Issuing a new one overwrites, never appends.
	RefreshToken *string `gorm:"size:1024"`

	// Email verification state. Only the SHA-256 digest of the emailed
	// secret is stored, together with its expiry.
	IsEmailVerified            bool       `gorm:"not null;default:false"`
	EmailVerificationTokenHash *string    `gorm:"size:64;index"`
	EmailVerificationExpiresAt *time.Time

	// Password reset state, same digest-plus-expiry shape.
	PasswordResetTokenHash *string    `gorm:"size:64;index"`
	PasswordResetExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasActiveSession reports whether a refresh secret is currently stored.
func (u *User) HasActiveSession() bool {
	return u.RefreshToken != nil
}
