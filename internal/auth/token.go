package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stocklane/inventory-management/internal"
)

const resetTokenPurpose = "password_reset"

// Claims represents session token claims.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates session and reset tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	GenerateResetToken(userID int64, ttl time.Duration) (string, error)
	ParseResetToken(tokenString string) (userID int64, issuedAt time.Time, err error)
}

// JWTTokenGenerator signs HS256 tokens with a single application secret.
// Reset tokens carry a purpose claim so a session token can never double as
// a reset credential.
type JWTTokenGenerator struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func NewJWTTokenGenerator(secret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	}
}

func (j *JWTTokenGenerator) signSession(userID int64, username string, ttl time.Duration) (string, error) {
	now := nowFunc()
	claims := &Claims{
		UserID:   strconv.FormatInt(userID, 10),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, username string) (string, error) {
	return j.signSession(userID, username, j.AccessTokenTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, username string) (string, error) {
	return j.signSession(userID, username, j.RefreshTokenTTL)
}

// ValidateToken validates a session JWT and returns its claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, internal.ErrInvalidToken
}

// GenerateResetToken signs a password-reset token embedding the user id.
// It refuses to sign when no secret is configured.
func (j *JWTTokenGenerator) GenerateResetToken(userID int64, ttl time.Duration) (string, error) {
	if len(j.Secret) == 0 {
		return "", internal.ErrResetUnavailable
	}

	now := nowFunc()
	claims := &resetClaims{
		Purpose: resetTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ParseResetToken checks the signature and purpose and returns the embedded
// user id with the issue time. Expiry against a caller-supplied max age is
// the caller's concern.
func (j *JWTTokenGenerator) ParseResetToken(tokenString string) (int64, time.Time, error) {
	if len(j.Secret) == 0 {
		return 0, time.Time{}, internal.ErrResetUnavailable
	}

	token, err := jwt.ParseWithClaims(tokenString, &resetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, time.Time{}, internal.ErrTokenExpired
		}
		return 0, time.Time{}, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*resetClaims)
	if !ok || !token.Valid || claims.Purpose != resetTokenPurpose {
		return 0, time.Time{}, internal.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, internal.ErrInvalidToken
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	return userID, issuedAt, nil
}
