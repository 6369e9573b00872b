package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification. Expired
// and forged tokens are deliberately not distinguished: callers show a single
// "expired link, try again" message either way.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	purposeActivation = "account_activation"
	purposeReset      = "password_reset"
	purposeSession    = "session"
)

// ActivationClaims carries the full pending registration. No user row exists
// until the token is presented back, so the token substitutes for a persisted
// "unverified user" record. The plaintext password rides inside the signed
// token and is delivered only via the activation email link.
type ActivationClaims struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Categories []int64 `json:"categories"`
	Purpose    string  `json:"purpose"`
	jwt.RegisteredClaims
}

type ResetClaims struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type SessionClaims struct {
	UserID  int64  `json:"user_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewActivationToken(name, email, password string, categories []int64, secret string, ttl time.Duration) (string, error) {
	claims := ActivationClaims{
		Name:             name,
		Email:            email,
		Password:         password,
		Categories:       categories,
		Purpose:          purposeActivation,
		RegisteredClaims: registered(ttl),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseActivationToken(tokenStr, secret string) (*ActivationClaims, error) {
	const op = "tokens.ParseActivationToken"

	claims := &ActivationClaims{}
	if err := parse(tokenStr, secret, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Purpose != purposeActivation {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

func NewResetToken(name, secret string, ttl time.Duration) (string, error) {
	claims := ResetClaims{
		Name:             name,
		Purpose:          purposeReset,
		RegisteredClaims: registered(ttl),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseResetToken(tokenStr, secret string) (*ResetClaims, error) {
	const op = "tokens.ParseResetToken"

	claims := &ResetClaims{}
	if err := parse(tokenStr, secret, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Purpose != purposeReset {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

func NewSessionToken(userID int64, secret string, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		UserID:           userID,
		Purpose:          purposeSession,
		RegisteredClaims: registered(ttl),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseSessionToken(tokenStr, secret string) (*SessionClaims, error) {
	const op = "tokens.ParseSessionToken"

	claims := &SessionClaims{}
	if err := parse(tokenStr, secret, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Purpose != purposeSession {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

func registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()

	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func parse(tokenStr, secret string, claims jwt.Claims) error {
	parsedToken, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return ErrInvalidToken
	}

	if !parsedToken.Valid {
		return ErrInvalidToken
	}

	return nil
}
