package utils

import (
	"crypto/rand"
	"math/big"
)

// Ambiguous characters (0/O, 1/I/L) are excluded so references survive
// being read out loud or typed from a text message.
const referenceAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewBookingReference returns a human-shareable booking code like
// "GRM-7F3K2D". It is opaque and safe to display to end users.
func NewBookingReference() string {
	buf := make([]byte, 6)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return "GRM-" + string(buf)
}
