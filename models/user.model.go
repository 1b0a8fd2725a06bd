package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Roles a user account can hold.
const (
	RoleAdmin     = "admin"
	RoleLeadGuide = "lead-guide"
	RoleGuide     = "guide"
	RoleUser      = "user"
)

const (
	passwordHashCost = 12

	// lockoutArmThreshold is the failure count from which a lock window is
	// (re)armed. The legacy schema additionally capped the attempt counter
	// at maxLoginAttempts; both limits are kept.
	lockoutArmThreshold = 3
	maxLoginAttempts    = 5
	lockoutDuration     = time.Minute

	passwordResetTTL = 10 * time.Minute
)

// User represents an account. Password and lock bookkeeping never leave the
// server: they are excluded from JSON serialization.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                 string             `bson:"name" json:"name" validate:"required"`
	Email                string             `bson:"email" json:"email" validate:"required,email"`
	Photo                string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role                 string             `bson:"role" json:"role" validate:"required,oneof=admin lead-guide guide user"`
	Password             string             `bson:"password" json:"-" validate:"required,min=8"`
	PasswordChangedAt    time.Time          `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string             `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires time.Time          `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               *bool              `bson:"active,omitempty" json:"-"`
	LoginAttempts        int                `bson:"loginAttempts" json:"-" validate:"lte=5"`
	LockUntil            time.Time          `bson:"lockUntil,omitempty" json:"-"`
}

// BeforeSave fills defaults before the first insert.
func (u *User) BeforeSave() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Photo == "" {
		u.Photo = "default.jpg"
	}
}

// SetPassword one-way hashes a plaintext password onto the user.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), passwordHashCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// RecordPasswordChange stamps the change time, offset one second backward so
// a token minted in the same instant is not treated as stale.
func (u *User) RecordPasswordChange(now time.Time) {
	u.PasswordChangedAt = now.Add(-time.Second)
}

// CorrectPassword compares a candidate password against the stored hash.
func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// with the given issued-at timestamp was minted. Such tokens are invalid.
func (u *User) ChangedPasswordAfter(tokenIssuedAt int64) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return tokenIssuedAt < u.PasswordChangedAt.Unix()
}

// IsLocked reports whether login must be rejected outright, regardless of
// password correctness.
func (u *User) IsLocked(now time.Time) bool {
	return !u.LockUntil.IsZero() && u.LockUntil.After(now)
}

// LockRemaining returns how long the current lock still holds, rounded up to
// whole seconds.
func (u *User) LockRemaining(now time.Time) time.Duration {
	if !u.IsLocked(now) {
		return 0
	}
	remaining := u.LockUntil.Sub(now)
	return remaining.Round(time.Second)
}

// RegisterFailedLogin increments the attempt counter and arms the lock
// window once the counter reaches the threshold.
func (u *User) RegisterFailedLogin(now time.Time) {
	if u.LoginAttempts < maxLoginAttempts {
		u.LoginAttempts++
	}
	if u.LoginAttempts >= lockoutArmThreshold {
		u.LockUntil = now.Add(lockoutDuration)
	}
}

// ResetLoginAttempts clears the failure counter and the lock expiry after a
// successful password check.
func (u *User) ResetLoginAttempts() {
	u.LoginAttempts = 0
	u.LockUntil = time.Time{}
}

// CreatePasswordResetToken generates a random token, stores only its one-way
// hash plus a short expiry, and returns the raw token for out-of-band
// delivery.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(buf)
	u.PasswordResetToken = HashToken(raw)
	u.PasswordResetExpires = now.Add(passwordResetTTL)
	return raw, nil
}

// ClearPasswordResetToken drops the stored reset state.
func (u *User) ClearPasswordResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
}

// HashToken digests a raw reset token the way it is stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
