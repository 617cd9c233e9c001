package cryptopackage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFromPassword_Format(t *testing.T) {
	hash, err := GenerateFromPassword("mysecretpassword123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=2,p=4$"))
	assert.Len(t, strings.Split(hash, "$"), 6)
}

// TestGenerateFromPassword_SaltPerCall 相同密码产生不同哈希
func TestGenerateFromPassword_SaltPerCall(t *testing.T) {
	hash1, err := GenerateFromPassword("samepassword123")
	require.NoError(t, err)
	hash2, err := GenerateFromPassword("samepassword123")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestComparePasswordAndHash_RoundTrip(t *testing.T) {
	for _, password := range []string{"short", "a very long password with symbols !@#$%^&*()", "密码测试"} {
		hash, err := GenerateFromPassword(password)
		require.NoError(t, err)

		match, err := ComparePasswordAndHash(password, hash)
		require.NoError(t, err)
		assert.True(t, match, password)

		match, err = ComparePasswordAndHash(password+"x", hash)
		require.NoError(t, err)
		assert.False(t, match, password)
	}
}

func TestComparePasswordAndHash_InvalidFormat(t *testing.T) {
	invalid := []string{
		"",
		"invalid",
		"$argon2i$v=19$m=65536,t=2,p=4$salt$hash",
		"$argon2id$v=19$m=65536,t=2,p=4$",
		"$argon2id$vx=19$m=65536,t=2,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=2,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$bad$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=2,p=4$!!!$!!!",
	}

	for _, hash := range invalid {
		match, err := ComparePasswordAndHash("password", hash)
		assert.Error(t, err, "hash: %s", hash)
		assert.False(t, match, "hash: %s", hash)
	}
}

func BenchmarkComparePasswordAndHash(b *testing.B) {
	hash, err := GenerateFromPassword("benchmarkpassword123")
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ComparePasswordAndHash("benchmarkpassword123", hash); err != nil {
			b.Fatal(err)
		}
	}
}
