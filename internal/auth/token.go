package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fincompass/fincompass/internal/shared"
)

// TokenManager issues and verifies HMAC-SHA256 signed bearer tokens. The
// secret is process wide; rotating it invalidates every outstanding token.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token carrying the user id and expiry.
func (tm *TokenManager) Generate(userID int64) (string, error) {
	if len(tm.secret) == 0 {
		return "", errors.New("auth: token secret not configured")
	}
	now := tm.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify checks signature and expiry and returns the embedded user id.
// Expired or tampered tokens never yield an id.
func (tm *TokenManager) Verify(raw string) (int64, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, shared.ErrTokenExpired
		}
		return 0, shared.ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return 0, shared.ErrTokenInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, shared.ErrTokenInvalid
	}
	return userID, nil
}
