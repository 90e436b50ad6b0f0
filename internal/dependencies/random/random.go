package random

import (
	"crypto/rand"
	"math/big"
)

const (
	// TokenAlphabet is the character set of generated session tokens
	TokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	TokenLength   = 24
)

// Random generates random strings. Tests replace it with mocks.MockRandom.
type Random interface {
	String(length int, alphabet string) string
}

// CryptoRandom draws from crypto/rand
type CryptoRandom struct{}

func New() *CryptoRandom {
	return &CryptoRandom{}
}

func (CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	n := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out)
}

// Token generates a new session token
func Token(r Random) string {
	return r.String(TokenLength, TokenAlphabet)
}
