// Package hasher provides a reversible, stateless encoding of trainer
// instance names. The transform is a fixed character substitution: it is
// deterministic, bijective and safe for concurrent use, and it is NOT a
// cryptographic hash: it only hides the name, it does not resist forgery.
package hasher

import (
	"errors"
	"fmt"
)

// Alphabet of encodable characters. The training id delimiter (":") is
// deliberately excluded so that an encoded token can never contain it.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_."

var (
	// ErrInvalidName is returned by Encode for names containing characters
	// outside the encodable alphabet.
	ErrInvalidName = errors.New("name contains characters that cannot be encoded")

	// ErrInvalidToken is returned by Decode for tokens this package could
	// not have produced.
	ErrInvalidToken = errors.New("invalid encoded token")
)

var (
	encTable [256]byte
	decTable [256]byte
)

func init() {
	perm := []byte(alphabet)

	// Fisher-Yates driven by a fixed xorshift stream, so the substitution
	// table is identical in every process.
	state := uint64(0x9E3779B97F4A7C15)
	for i := len(perm) - 1; i > 0; i-- {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		j := int(state % uint64(i+1))
		perm[i], perm[j] = perm[j], perm[i]
	}

	for i := 0; i < len(alphabet); i++ {
		encTable[alphabet[i]] = perm[i]
		decTable[perm[i]] = alphabet[i]
	}
}

// Encode maps a trainer instance name to its opaque token.
func Encode(name string) (string, error) {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := encTable[name[i]]
		if c == 0 {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name[i])
		}
		out[i] = c
	}
	return string(out), nil
}

// Decode recovers the trainer instance name from a token produced by Encode.
func Decode(token string) (string, error) {
	out := make([]byte, len(token))
	for i := 0; i < len(token); i++ {
		c := decTable[token[i]]
		if c == 0 {
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidToken, token[i])
		}
		out[i] = c
	}
	return string(out), nil
}
