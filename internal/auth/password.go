package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is fixed; hashes created at a different cost still verify.
const bcryptCost = 12

// HashPassword derives a salted bcrypt hash from a plaintext password. It is
// applied exactly once whenever a password is set or changed; callers must
// never pass an already-hashed value.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
