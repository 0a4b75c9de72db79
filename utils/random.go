package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns n random bytes as upper-case hex.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// NewTabID returns an identifier for one tab of a profile. Tab ids only need
// to tell tabs apart, so a short random code is enough.
func NewTabID() string {
	code, err := GenerateCode(6)
	if err != nil {
		return "tab-" + strings.Repeat("0", 12)
	}
	return "tab-" + strings.ToLower(code)
}
