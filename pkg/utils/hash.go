package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the work factor for account passwords. Hashing runs on
// the register and login request path.
const bcryptCost = bcrypt.DefaultCost

// HashPassword hashes an account password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword reports whether plain matches the stored bcrypt hash.
func CheckPassword(plain, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
