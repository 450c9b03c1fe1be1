package users_test

import (
	"testing"

	"github.com/jrsteele09/nebula-bridge/internal/errors"
	"github.com/jrsteele09/nebula-bridge/users"
	fakeuserrepo "github.com/jrsteele09/nebula-bridge/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "valid", password: "Passw0rd"},
		{name: "too short", password: "Pa55", wantErr: "at least 8 characters"},
		{name: "no upper", password: "passw0rd", wantErr: "uppercase"},
		{name: "no lower", password: "PASSW0RD", wantErr: "lowercase"},
		{name: "no number", password: "Password", wantErr: "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPasswordPolicyRequireSymbols(t *testing.T) {
	policy := users.DefaultPasswordPolicy
	policy.RequireSymbols = true

	require.ErrorContains(t, policy.Validate("Passw0rd"), "symbol")
	require.NoError(t, policy.Validate("Passw0rd!"))
}

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("Passw0rd")
	require.NoError(t, err)

	user := &users.User{PasswordHash: hash}
	require.True(t, user.CheckPassword("Passw0rd"))
	require.False(t, user.CheckPassword("passw0rd"))
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	user := &users.User{Email: " Ada@Example.com "}
	require.NoError(t, repo.Upsert(user))
	require.NotEmpty(t, user.ID)

	found, err := repo.GetByEmail("ada@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)

	require.NoError(t, repo.SetVerified("ADA@example.com", true))
	found, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	require.True(t, found.Verified)
	require.True(t, found.CanSignIn())

	require.NoError(t, repo.SetBlocked("ada@example.com", true))
	require.False(t, found.CanSignIn())

	require.NoError(t, repo.Delete("ada@example.com"))
	_, err = repo.GetByEmail("ada@example.com")
	require.ErrorIs(t, err, errors.ErrUserNotFound)
}
