package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "owner@audio.test", "Owner", "MASTER_ADMIN")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "MASTER_ADMIN", claims.RoleCode)
	assert.Equal(t, "Owner", claims.Name)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(uuid.New(), "a@b.c", "A", "ADMIN")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredAndEmpty(t *testing.T) {
	m := NewManager("s", time.Nanosecond)
	token, err := m.GenerateToken(uuid.New(), "a@b.c", "A", "STAFF")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}
