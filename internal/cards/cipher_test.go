package cards

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardmint/cardmint/internal/shared"
)

var testKey = []byte("0123456789abcdef")

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKey)
	require.NoError(t, err)
	return c
}

func TestNewCipherRejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 1, 15, 17, 31, 33} {
		_, err := NewCipher(make([]byte, n))
		assert.Error(t, err, "key length %d", n)
	}
	for _, n := range []int{16, 24, 32} {
		_, err := NewCipher(make([]byte, n))
		assert.NoError(t, err, "key length %d", n)
	}
}

func TestCipherRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	const number = "4539578763621486"
	token, err := c.Encrypt(number)
	require.NoError(t, err)
	assert.NotContains(t, token, number)

	got, err := c.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, number, got)
}

func TestCipherFreshIVPerCall(t *testing.T) {
	c := newTestCipher(t)

	first, err := c.Encrypt("4539578763621486")
	require.NoError(t, err)
	second, err := c.Encrypt("4539578763621486")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same plaintext must not repeat ciphertext")
}

func TestEncryptRejectsMalformedInput(t *testing.T) {
	c := newTestCipher(t)

	for _, input := range []string{"", "1234", "123456781234567x", "45395787636214861"} {
		_, err := c.Encrypt(input)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, "input %q", input)
	}
}

// tokenWithPlainBlock builds a ciphertext that decrypts to exactly the
// given block, so padding violations can be staged deterministically.
func tokenWithPlainBlock(t *testing.T, plain []byte) string {
	t.Helper()
	block, err := aes.NewCipher(testKey)
	require.NoError(t, err)
	iv := make([]byte, aes.BlockSize)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return base64.StdEncoding.EncodeToString(append(iv, out...))
}

func TestDecryptFailureReasons(t *testing.T) {
	c := newTestCipher(t)

	cases := []struct {
		name   string
		token  string
		reason shared.DecryptReason
	}{
		{
			name:   "not base64",
			token:  "%%%not-base64%%%",
			reason: shared.DecryptBadEncoding,
		},
		{
			name:   "shorter than one block",
			token:  base64.StdEncoding.EncodeToString(make([]byte, aes.BlockSize-1)),
			reason: shared.DecryptBadBlockSize,
		},
		{
			name:   "payload not block aligned",
			token:  base64.StdEncoding.EncodeToString(make([]byte, aes.BlockSize+5)),
			reason: shared.DecryptBadBlockSize,
		},
		{
			name:   "zero padding byte",
			token:  tokenWithPlainBlock(t, make([]byte, aes.BlockSize)),
			reason: shared.DecryptBadPadding,
		},
		{
			name:   "padding byte exceeds block size",
			token:  tokenWithPlainBlock(t, append(make([]byte, aes.BlockSize-1), 17)),
			reason: shared.DecryptBadPadding,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Decrypt(tc.token)
			require.Error(t, err)
			dec, ok := shared.AsDecryption(err)
			require.True(t, ok, "expected a decryption error, got %v", err)
			assert.Equal(t, tc.reason, dec.Reason)
		})
	}
}

func TestDecryptWrongKeyFailsWithoutPlaintext(t *testing.T) {
	c := newTestCipher(t)
	other, err := NewCipher([]byte("fedcba9876543210"))
	require.NoError(t, err)

	token, err := c.Encrypt("4539578763621486")
	require.NoError(t, err)

	got, decErr := other.Decrypt(token)
	if decErr == nil {
		// One-in-256 chance the garbage ends in a valid pad byte; the
		// result still must not be the original number.
		assert.NotEqual(t, "4539578763621486", got)
		return
	}
	assert.NotContains(t, decErr.Error(), "4539578763621486")
}
