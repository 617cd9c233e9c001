package cryptopackage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyPassword_Argon2(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestVerifyPassword_LegacyBcrypt 旧门户导入的 bcrypt 哈希仍可登录
func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	raw, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(raw)
	assert.True(t, NeedsRehash(hash))

	ok, err := VerifyPassword("legacy-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("other-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_UnknownFormat(t *testing.T) {
	ok, err := VerifyPassword("pw", "plaintext")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)
	assert.False(t, ok)
}
