package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := VerifyPassword(hash, "correct horse battery staple")
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password does not verify", func(t *testing.T) {
		ok, err := VerifyPassword(hash, "wrong password")
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		other, err := HashPassword("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}

func TestVerifyPasswordMalformedHashes(t *testing.T) {
	tests := map[string]struct {
		hash    string
		wantErr error
	}{
		"empty": {"", ErrHashMalformed},
		"too few parts": {"$argon2id$v=19$m=65536,t=3,p=2$salt", ErrHashMalformed},
		"wrong variant": {"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA", ErrUnsupportedVariant},
		"bad version": {"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA", ErrIncompatibleVersion},
		"bad params": {"$argon2id$v=19$nonsense$c2FsdA$aGFzaA", ErrHashMalformed},
		"bad salt encoding": {"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA", ErrHashMalformed},
		"bad hash encoding": {"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$!!!", ErrHashMalformed},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ok, err := VerifyPassword(tt.hash, "whatever")
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
