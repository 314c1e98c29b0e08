package code

import (
	"crypto/rand"
	"math/big"
)

const (
	charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	length  = 6
)

// Generate returns a 6-character uppercase alphanumeric room code.
// Uniqueness against live rooms is the caller's problem.
func Generate() string {
	out := make([]byte, length)
	for i := range out {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			// crypto/rand never fails on supported platforms
			out[i] = charset[0]
			continue
		}
		out[i] = charset[num.Int64()]
	}
	return string(out)
}
