package rando

import (
	"crypto/rand"
)

const alphaNumChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// StrongRandomAlphaNumChars returns n random alphanumeric characters from crypto/rand.
// The slight modulo bias (256 % 62 != 0) is irrelevant for our use cases
// (session tokens, storage keys).
func StrongRandomAlphaNumChars(n int) string {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		panic("Error reading from crypto/rand: " + err.Error())
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphaNumChars[int(b)%len(alphaNumChars)]
	}
	return string(out)
}
