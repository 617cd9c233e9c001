package cryptopackage

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 新密码统一使用 Argon2id
func HashPassword(password string) (string, error) {
	return GenerateFromPassword(password)
}

// VerifyPassword 校验密码，兼容旧门户导入的 bcrypt 哈希
func VerifyPassword(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return ComparePasswordAndHash(password, encodedHash)
	case isBcryptHash(encodedHash):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	default:
		return false, ErrInvalidHashFormat
	}
}

// NeedsRehash 非 Argon2id 的哈希在下次登录时应升级
func NeedsRehash(encodedHash string) bool {
	return !strings.HasPrefix(encodedHash, argon2Prefix)
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
