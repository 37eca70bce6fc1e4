package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestValidateNickname(t *testing.T) {
	cases := []struct {
		nickname string
		valid    bool
	}{
		{"alice", true},
		{"alice.smith", true},
		{"a1_b2.c3", true},
		{"abcd", false},          // too short
		{"1alice", false},        // must start with a letter
		{"Alice", false},         // uppercase not allowed
		{"al..ice", false},       // consecutive periods
		{"alice.", false},        // trailing period
		{"alice smith", false},   // whitespace
		{"ali@ce.com", false},    // illegal character
	}

	for _, c := range cases {
		assert.Equal(t, c.valid, ValidateNickname(c.nickname), "nickname %q", c.nickname)
	}
}

func TestValidateName(t *testing.T) {
	assert.True(t, ValidateName("Alice Smith"))
	assert.False(t, ValidateName("Alice2"))
	assert.False(t, ValidateName(""))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.False(t, ValidateEmail("user@example"))
	assert.False(t, ValidateEmail("not-an-email"))
}

func TestCapitalizeName(t *testing.T) {
	assert.Equal(t, "Alice Smith", CapitalizeName("  alice   sMITH "))
	assert.Equal(t, "Bob", CapitalizeName("bob"))
}

func TestGenerateResetToken(t *testing.T) {
	raw, hash, err := GenerateResetToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64) // 32 random bytes, hex encoded
	assert.Equal(t, HashToken(raw), hash)
	assert.NotEqual(t, raw, hash)

	raw2, hash2, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
	assert.NotEqual(t, hash, hash2)
}
