package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RememberTTL    = 30 * 24 * time.Hour
	RememberCookie = "remember_token"
)

var ErrInvalidToken = errors.New("invalid remember token")

// RememberTokens issues and checks the long-lived "remember me" cookie
// value: an HS256 JWT whose subject is the user id.
type RememberTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewRememberTokens(secret string) *RememberTokens {
	return &RememberTokens{secret: []byte(secret), ttl: RememberTTL, now: time.Now}
}

func (t *RememberTokens) Issue(userID int64) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign remember token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the user id it was issued for.
func (t *RememberTokens) Parse(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
