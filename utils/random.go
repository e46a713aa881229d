package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns 2n upper-case hex characters from n random bytes.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateBundleID returns a PD- prefixed identifier for a ProDev bundle.
func GenerateBundleID() (string, error) {
	code, err := GenerateCode(5)
	if err != nil {
		return "", err
	}
	return "PD-" + code, nil
}
