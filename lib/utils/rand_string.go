package utils

import (
	"math/rand"
	"time"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// RandString builds a random alphanumeric string of exactly n runes, used
// by tests to generate collision-free keys without a shared counter.
func RandString(n int) string {
	nR := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[nR.Intn(len(letters))]
	}
	return string(b)
}
