package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MemberIDPrefix = "mbr"
	CafeIDPrefix   = "caf"
	PostIDPrefix   = "pst"
)

const (
	idCharset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordCharset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!@#$%^&"

	// GeneratedPasswordLength is the length of passwords minted for members
	// created through social login.
	GeneratedPasswordLength = 10
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomString(idCharset, 10))
}

// RandomPassword returns n characters drawn uniformly from digits, letters
// and !@#$%^& using crypto/rand.
func RandomPassword(n int) string {
	return randomString(passwordCharset, n)
}

func randomString(charset string, length int) string {
	max := big.NewInt(int64(len(charset)))
	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		result[i] = charset[num.Int64()]
	}
	return string(result)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether password matches hash. bcrypt compares in
// constant time.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func ValidateMemberID(memberID string) bool {
	return strings.HasPrefix(memberID, MemberIDPrefix+"-")
}

func ValidateCafeID(cafeID string) bool {
	return strings.HasPrefix(cafeID, CafeIDPrefix+"-")
}

func ValidatePostID(postID string) bool {
	return strings.HasPrefix(postID, PostIDPrefix+"-")
}
