package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plaintext password at the given cost. The
// cost comes from configuration so tests can use bcrypt.MinCost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash. The
// comparison is constant-time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
