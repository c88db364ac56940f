package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthTokens is the session credential pair handed to an authenticated
// caller. The server keeps no session state beyond these bearer tokens.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// OAuthUserInfo is the normalized user-info payload fetched from a provider
// after code exchange: the provider-issued subject id and the account email.
type OAuthUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// dummyHash is compared against when the username does not resolve or the
// account has no local password, so failed logins cost the same bcrypt work
// regardless of why they fail.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invalid-credentials-placeholder"), bcrypt.DefaultCost)

func compareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// nowFunc is swapped out by tests that need deterministic clocks.
var nowFunc = time.Now
