package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999

	resetTokenBytes = 20
)

// GenVerificationCode returns a uniformly random six digit code in
// [100000, 999999], so it never has a leading zero.
func GenVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// GenResetToken returns 20 random bytes as 40 lowercase hex characters.
func GenResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
