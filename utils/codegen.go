// utils/codegen.go
package utils

import (
	"crypto/rand"
	"math/big"
)

// URL-safe alphabet, no 0/O/1/l lookalikes so codes survive being read aloud.
const codeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

const CodeLength = 8

// GenerateCode returns a short random referral code. Uniqueness is not checked
// here — the referrals.code unique index enforces it, and the store retries
// with a fresh code on collision.
func GenerateCode() string {
	b := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b)
}
