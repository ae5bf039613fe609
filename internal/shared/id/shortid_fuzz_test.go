package id

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func FuzzParsePrefixedID(f *testing.F) {
	for _, seed := range []string{
		"kh_xK9mP2vL3n",
		"khsrv-abc",
		"",
		"nounderscore",
		"_leading",
		"trailing_",
		"multiple_under_scores",
		strings.Repeat("a", 500) + "_" + strings.Repeat("b", 500),
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			return
		}

		prefix, shortID, err := ParsePrefixedID(input)
		if !strings.Contains(input, "_") {
			if err == nil {
				t.Errorf("ParsePrefixedID(%q) should fail without underscore", input)
			}
			return
		}
		if err != nil {
			t.Fatalf("ParsePrefixedID(%q) unexpected error: %v", input, err)
		}
		if prefix+"_"+shortID != input {
			t.Errorf("ParsePrefixedID(%q) does not round-trip: %q + %q", input, prefix, shortID)
		}
		if strings.Contains(prefix, "_") {
			t.Errorf("prefix %q must not contain underscore", prefix)
		}
	})
}

func TestNewServerUsername(t *testing.T) {
	valid := regexp.MustCompile(`^kh_[0-9A-Za-z]{10}$`)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		name, err := NewServerUsername()
		require.NoError(t, err)
		assert.Regexp(t, valid, name)
		assert.False(t, seen[name], "duplicate username %s", name)
		seen[name] = true
	}
}

func TestNewServerName_IsHostnameSafe(t *testing.T) {
	name, err := NewServerName()
	require.NoError(t, err)
	assert.Regexp(t, `^khsrv-[0-9a-z]{8}$`, name)
}

func TestGenerate_DefaultLength(t *testing.T) {
	s, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, s, DefaultLength)
}
