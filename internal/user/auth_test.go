package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.True(t, CheckPasswordHash("secret", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "testsecret")
	u := User{ID: uuid.New(), Email: "karim@example.com", Role: RoleWorker, Name: "Karim"}

	token, err := GenerateJWT(u)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "karim@example.com", claims.Email)
	assert.Equal(t, "worker", claims.Role)
	assert.Equal(t, "Karim", claims.Name)
}

func TestJWT_Errors(t *testing.T) {
	t.Run("NoSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := GenerateJWT(User{ID: uuid.New()})
		assert.ErrorIs(t, err, ErrMissingSecret)

		_, err = ParseJWT("anything")
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("Garbage", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "testsecret")
		_, err := ParseJWT("invalid-token-string")
		assert.Error(t, err)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "secret1")
		token, _ := GenerateJWT(User{ID: uuid.New(), Role: RoleCustomer})

		t.Setenv("JWT_SECRET", "secret2")
		_, err := ParseJWT(token)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "signature is invalid")
	})
}
