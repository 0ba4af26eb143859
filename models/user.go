package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

// User is an account that can own bootcamps, courses and reviews.
// Password holds the bcrypt hash and is never serialized; the reset token
// pair is nullable and always set or cleared together.
type User struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string     `json:"name" gorm:"not null" validate:"required"`
	Email               string     `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	Role                string     `json:"role" validate:"omitempty,oneof=user publisher admin"`
	Password            string     `json:"-" gorm:"not null"`
	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// SetPassword hashes the plain-text password with bcrypt.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// MatchPassword reports whether the plain-text password matches the stored hash.
func (u *User) MatchPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// NewResetToken generates a password-reset token, stores its SHA-256 hex
// digest with a 10-minute expiry on the user, and returns the raw token
// that gets mailed to the user. Only the digest is ever persisted.
func (u *User) NewResetToken() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	hashed := HashResetToken(token)
	expire := time.Now().Add(10 * time.Minute)
	u.ResetPasswordToken = &hashed
	u.ResetPasswordExpire = &expire

	return token, nil
}

// ClearResetToken clears the reset token pair.
func (u *User) ClearResetToken() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpire = nil
}

// HashResetToken returns the persisted form of a raw reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
