package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a card or user id could not be resolved.
	ErrNotFound = errors.New("resource not found")
	// ErrAccessDenied indicates an authorization predicate returned false.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidInput indicates malformed input such as a bad role value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientBalance indicates the source card cannot cover a transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrGenerationExhausted indicates the card number generator ran out of attempts.
	ErrGenerationExhausted = errors.New("card number generation exhausted")
	// ErrEncryption indicates the card cipher failed to encrypt.
	ErrEncryption = errors.New("encryption failed")
)

var (
	// ErrInvalidAmount rejects non-positive transfer amounts.
	ErrInvalidAmount = fmt.Errorf("%w: transfer amount must be positive", ErrInvalidInput)
	// ErrSameCard rejects transfers where source and destination are one card.
	ErrSameCard = fmt.Errorf("%w: source and destination cards must differ", ErrInvalidInput)
)

// DecryptReason classifies a decryption failure.
type DecryptReason string

const (
	DecryptBadEncoding  DecryptReason = "bad-encoding"
	DecryptBadPadding   DecryptReason = "bad-padding"
	DecryptBadBlockSize DecryptReason = "bad-block-size"
	DecryptBadKey       DecryptReason = "bad-key"
)

// DecryptionError reports why a stored card number could not be decrypted.
// The message never carries key material or payload bytes.
type DecryptionError struct {
	Reason DecryptReason
}

func (e *DecryptionError) Error() string {
	return "decryption failed: " + string(e.Reason)
}

// AsDecryption unwraps err into a DecryptionError when possible.
func AsDecryption(err error) (*DecryptionError, bool) {
	var de *DecryptionError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
