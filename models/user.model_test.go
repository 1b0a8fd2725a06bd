package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPasswordAndCorrectPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("pass1234"))

	assert.NotEqual(t, "pass1234", u.Password)
	assert.True(t, u.CorrectPassword("pass1234"))
	assert.False(t, u.CorrectPassword("wrongpass"))
}

func TestBeforeSaveDefaults(t *testing.T) {
	u := &User{}
	u.BeforeSave()

	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "default.jpg", u.Photo)

	admin := &User{Role: RoleAdmin, Photo: "admin.jpg"}
	admin.BeforeSave()
	assert.Equal(t, RoleAdmin, admin.Role)
	assert.Equal(t, "admin.jpg", admin.Photo)
}

func TestLockoutArmsOnThirdFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}

	u.RegisterFailedLogin(now)
	assert.False(t, u.IsLocked(now), "one failure must not lock")

	u.RegisterFailedLogin(now)
	assert.False(t, u.IsLocked(now), "two failures must not lock")

	u.RegisterFailedLogin(now)
	assert.True(t, u.IsLocked(now), "third failure must lock")
	assert.Equal(t, 3, u.LoginAttempts)
	assert.Equal(t, now.Add(time.Minute), u.LockUntil)
}

func TestLockoutExpires(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	for i := 0; i < 3; i++ {
		u.RegisterFailedLogin(now)
	}

	assert.True(t, u.IsLocked(now.Add(30*time.Second)))
	assert.False(t, u.IsLocked(now.Add(61*time.Second)))
}

func TestLockRemaining(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	for i := 0; i < 3; i++ {
		u.RegisterFailedLogin(now)
	}

	assert.Equal(t, time.Minute, u.LockRemaining(now))
	assert.Equal(t, time.Duration(0), u.LockRemaining(now.Add(2*time.Minute)))
}

func TestLoginAttemptsCappedAtMax(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	for i := 0; i < 10; i++ {
		u.RegisterFailedLogin(now)
	}

	assert.Equal(t, maxLoginAttempts, u.LoginAttempts)
}

func TestResetLoginAttempts(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	for i := 0; i < 3; i++ {
		u.RegisterFailedLogin(now)
	}

	u.ResetLoginAttempts()

	assert.Zero(t, u.LoginAttempts)
	assert.False(t, u.IsLocked(now))
}

func TestChangedPasswordAfter(t *testing.T) {
	changed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{PasswordChangedAt: changed}

	assert.True(t, u.ChangedPasswordAfter(changed.Add(-time.Hour).Unix()), "token minted before the change is stale")
	assert.False(t, u.ChangedPasswordAfter(changed.Add(time.Hour).Unix()), "token minted after the change is fine")

	fresh := &User{}
	assert.False(t, fresh.ChangedPasswordAfter(changed.Unix()), "never-changed password invalidates nothing")
}

func TestRecordPasswordChangeBackdates(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}
	u.RecordPasswordChange(now)

	assert.Equal(t, now.Add(-time.Second), u.PasswordChangedAt)
	assert.False(t, u.ChangedPasswordAfter(now.Unix()), "a token minted in the same instant stays valid")
}

func TestCreatePasswordResetToken(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	u := &User{}

	raw, err := u.CreatePasswordResetToken(now)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	assert.NotEqual(t, raw, u.PasswordResetToken, "only the hash is stored")
	assert.Equal(t, HashToken(raw), u.PasswordResetToken)
	assert.Equal(t, now.Add(10*time.Minute), u.PasswordResetExpires)

	u.ClearPasswordResetToken()
	assert.Empty(t, u.PasswordResetToken)
	assert.True(t, u.PasswordResetExpires.IsZero())
}
