package cards

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// brandPrefix is the fixed leading digit for issued numbers.
	brandPrefix = "4"
	numberLen   = 16

	// maxGenerateAttempts bounds the uniqueness retry loop so a saturated
	// number space surfaces as an error instead of spinning forever.
	maxGenerateAttempts = 64
)

// CheckDigit computes the Luhn check digit for the given digit string.
// Walking right to left, every second digit is doubled and reduced by nine
// when it exceeds nine; the check digit completes the sum to a multiple of
// ten.
func CheckDigit(number string) int {
	sum := 0
	double := true
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return (10 - sum%10) % 10
}

// ValidNumber reports whether a full card number passes the Luhn checksum.
func ValidNumber(number string) bool {
	if len(number) != numberLen {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// randomCandidate produces a syntactically valid 16-digit number: brand
// prefix, random body, Luhn check digit.
func randomCandidate() (string, error) {
	body := make([]byte, numberLen-len(brandPrefix)-1)
	if _, err := rand.Read(body); err != nil {
		return "", fmt.Errorf("cards: random digits: %w", err)
	}

	var b strings.Builder
	b.Grow(numberLen)
	b.WriteString(brandPrefix)
	for _, v := range body {
		b.WriteByte(v%10 + '0')
	}
	b.WriteByte(byte(CheckDigit(b.String())) + '0')
	return b.String(), nil
}
