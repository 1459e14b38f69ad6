package cards

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/cardmint/cardmint/internal/shared"
)

// Cipher encrypts card numbers for storage using AES-CBC with PKCS#7
// padding. Each call draws a fresh IV which is prepended to the ciphertext;
// the combined blob is base64 encoded for transport and persistence. The key
// is process-wide configuration and is never logged.
type Cipher struct {
	key []byte
}

// NewCipher validates the key and returns a Cipher. Key length must be 16,
// 24 or 32 bytes.
func NewCipher(key []byte) (*Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("cards: encryption key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt encrypts a 16-digit card number and returns the transport token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if !allDigits(plaintext) || len(plaintext) != numberLen {
		return "", fmt.Errorf("%w: card number must be 16 digits", shared.ErrInvalidInput)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrEncryption, err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: iv generation", shared.ErrEncryption)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(append(iv, out...)), nil
}

// Decrypt is the exact inverse of Encrypt: it splits the fixed-length IV
// prefix from the payload, decrypts and unpads. Failures carry a
// DecryptionError reason and never echo the payload.
func (c *Cipher) Decrypt(token string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", &shared.DecryptionError{Reason: shared.DecryptBadEncoding}
	}

	if len(data) < aes.BlockSize {
		return "", &shared.DecryptionError{Reason: shared.DecryptBadBlockSize}
	}
	iv, payload := data[:aes.BlockSize], data[aes.BlockSize:]
	if len(payload) == 0 || len(payload)%aes.BlockSize != 0 {
		return "", &shared.DecryptionError{Reason: shared.DecryptBadBlockSize}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", &shared.DecryptionError{Reason: shared.DecryptBadKey}
	}

	plain := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, payload)

	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", &shared.DecryptionError{Reason: shared.DecryptBadPadding}
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for i := len(data) - padding; i < len(data); i++ {
		if int(data[i]) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
