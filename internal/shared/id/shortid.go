package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for provider-facing names. Panel usernames and VM hostnames are
// visible outside this service, so they never embed internal numeric ids.
const (
	PrefixServerUser = "kh"
	PrefixServer     = "khsrv"
)

// Generate creates a cryptographically random Base62 id of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// ParsePrefixedID splits "prefix_rest" at the first underscore.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	parts := strings.SplitN(prefixedID, "_", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return parts[0], parts[1], nil
}

// NewServerUsername returns a panel account name. Panels restrict usernames to
// [a-zA-Z0-9_], which the Base62 alphabet satisfies.
func NewServerUsername() (string, error) {
	return GenerateWithPrefix(PrefixServerUser, 10)
}

// NewServerName returns a lowercase hostname-safe VM name.
func NewServerName() (string, error) {
	s, err := Generate(8)
	if err != nil {
		return "", err
	}
	return strings.ToLower(PrefixServer + "-" + s), nil
}

// NewSecret returns a random credential for generated panel admin accounts.
func NewSecret() (string, error) {
	return Generate(24)
}
