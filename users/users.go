package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// User is a member of the identity pool. Users sign in with their email
// address, which doubles as their username.
type User struct {
	ID           string    `json:"id,omitempty"`          // Pool subject (sub claim)
	Email        string    `json:"email,omitempty"`       // Sign-in alias
	Username     string    `json:"username,omitempty"`    // cognito:username claim
	PasswordHash string    `json:"-"`                     // never serialize
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user signed up
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last successful sign-in

	Verified bool `json:"verified,omitempty"` // Verified, the sign-up has been confirmed
	Blocked  bool `json:"blocked,omitempty"`  // Blocked, the user cannot sign in
	LoggedIn bool `json:"loggedIn,omitempty"` // LoggedIn, the user holds a live refresh token

	ConfirmationCode     string    `json:"-"`
	ConfirmationExpiry   time.Time `json:"-"`
	ConfirmationAttempts int       `json:"-"`
}

// PasswordPolicy mirrors the pool's password rules.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigits    bool
	RequireSymbols   bool
}

// DefaultPasswordPolicy: 8 characters with upper, lower and a digit. Symbols are optional.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:        8,
	RequireUppercase: true,
	RequireLowercase: true,
	RequireDigits:    true,
}

// Validate checks a password against the policy and returns the first rule it breaks.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
		hasSymbol bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}

	if p.RequireUppercase && !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if p.RequireDigits && !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	if p.RequireSymbols && !hasSymbol {
		return fmt.Errorf("password must contain at least one symbol")
	}

	return nil
}

// ValidatePasswordStrength validates against DefaultPasswordPolicy.
func ValidatePasswordStrength(password string) error {
	return DefaultPasswordPolicy.Validate(password)
}

// NormaliseEmail lower-cases and trims an email so lookups are case-insensitive.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// CanSignIn reports whether the user is confirmed and not blocked.
func (u *User) CanSignIn() bool {
	return u.Verified && !u.Blocked
}
