// Package shortlink generates the random codes behind /s/{code}/ links.
package shortlink

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Alphabet is the set of characters a code is drawn from.
	Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// Length is the number of characters in a generated code.
	Length = 8
	// MaxAttempts bounds regeneration after a code collision.
	MaxAttempts = 5
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a new random code of Length characters.
func Generate() (string, error) {
	code := make([]byte, Length)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}
		code[i] = Alphabet[n.Int64()]
	}
	return string(code), nil
}

// Valid reports whether code could have been produced by Generate.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
