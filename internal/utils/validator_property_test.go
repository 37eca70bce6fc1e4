package utils

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_NicknameNormalization verifies that normalization output is
// always stable (idempotent) and never changes validity on re-normalization.
func TestProperty_NicknameNormalization(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("normalization is idempotent",
		prop.ForAll(
			func(s string) bool {
				once := NormalizeNickname(s)
				twice := NormalizeNickname(once)
				return once == twice
			},
			gen.AnyString(),
		))

	properties.Property("normalized nickname contains no uppercase or surrounding space",
		prop.ForAll(
			func(s string) bool {
				n := NormalizeNickname(s)
				return n == strings.TrimSpace(n) && n == strings.ToLower(n)
			},
			gen.AnyString(),
		))

	properties.Property("valid nicknames survive normalization unchanged",
		prop.ForAll(
			func(s string) bool {
				if !ValidateNickname(s) {
					return true // vacuously true; generator also produces invalid strings
				}
				return NormalizeNickname(s) == s
			},
			gen.RegexMatch(`[a-z][a-z0-9._]{4,20}`),
		))

	properties.TestingRun(t)
}

// TestProperty_PasswordHashRoundTrip checks hash/verify over arbitrary
// printable passwords of accepted length.
func TestProperty_PasswordHashRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("bcrypt rounds are slow; skipping in -short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10 // bcrypt cost makes large samples expensive

	properties := gopter.NewProperties(parameters)

	properties.Property("a hashed password verifies against itself",
		prop.ForAll(
			func(password string) bool {
				hash, err := HashPassword(password)
				if err != nil {
					return false
				}
				return CheckPassword(hash, password)
			},
			gen.RegexMatch(`[ -~]{8,32}`),
		))

	properties.TestingRun(t)
}
