package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret-key"

func TestIssuePairRoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, 24*time.Hour)

	pair, err := m.IssuePair(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := m.Validate(pair.Access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, TypeAccess, claims.Type)

	claims, err = m.Validate(pair.Refresh, TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestValidateRejectsWrongType(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, 24*time.Hour)

	pair, err := m.IssuePair(42)
	require.NoError(t, err)

	_, err = m.Validate(pair.Refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = m.Validate(pair.Access, TypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewTokenManager(testSecret, -time.Minute, -time.Minute)

	pair, err := m.IssuePair(42)
	require.NoError(t, err)

	_, err = m.Validate(pair.Access, TypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, 24*time.Hour)
	other := NewTokenManager("a-different-secret-key", time.Hour, 24*time.Hour)

	pair, err := other.IssuePair(42)
	require.NoError(t, err)

	_, err = m.Validate(pair.Access, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, 24*time.Hour)

	_, err := m.Validate("not-a-token", TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22hunter22")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword("hunter22hunter22", hash))
	assert.Error(t, VerifyPassword("wrong password", hash))
}
