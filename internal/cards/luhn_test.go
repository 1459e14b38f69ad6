package cards

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDigitKnownNumbers(t *testing.T) {
	// 4539578763621486 is a textbook valid Visa test number.
	assert.Equal(t, 6, CheckDigit("453957876362148"))
	assert.Equal(t, 1, CheckDigit("401288888888188"))
}

func TestValidNumber(t *testing.T) {
	assert.True(t, ValidNumber("4539578763621486"))
	assert.True(t, ValidNumber("4012888888881881"))

	assert.False(t, ValidNumber("4539578763621487"), "wrong check digit")
	assert.False(t, ValidNumber("453957876362148"), "too short")
	assert.False(t, ValidNumber("45395787636214861"), "too long")
	assert.False(t, ValidNumber("453957876362148x"), "non digit")
	assert.False(t, ValidNumber(""), "empty")
}

func TestRandomCandidateAlwaysValid(t *testing.T) {
	for i := 0; i < 200; i++ {
		number, err := randomCandidate()
		require.NoError(t, err)
		require.Len(t, number, 16)
		assert.True(t, strings.HasPrefix(number, "4"))
		assert.True(t, ValidNumber(number), "candidate %s failed checksum", number)
	}
}
