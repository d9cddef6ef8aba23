package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fincompass/fincompass/internal/shared"
	_ "github.com/fincompass/fincompass/testing"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, err := tm.Generate(42)
	require.NoError(t, err)

	userID, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	issued := time.Now()
	tm.now = func() time.Time { return issued }

	token, err := tm.Generate(7)
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = tm.Verify(token)
	assert.True(t, errors.Is(err, shared.ErrTokenExpired))
}

func TestTokenTampered(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, err := tm.Generate(7)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("A", len(parts[2]))
	_, err = tm.Verify(strings.Join(parts, "."))
	assert.True(t, errors.Is(err, shared.ErrTokenInvalid))
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Generate(7)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour).Verify(token)
	assert.True(t, errors.Is(err, shared.ErrTokenInvalid))
}
