package secrets

import "strings"

// Masked placeholders returned for identifiers that do not reduce to nine
// digits. Same shape as a properly masked value so display code never
// branches on validity.
const (
	maskedSSNPlaceholder = "***-**-****"
	maskedEINPlaceholder = "**-*******"
)

// ValidateSSN reports whether the input reduces to exactly nine digits.
// Punctuation and spacing are ignored.
func ValidateSSN(ssn string) bool {
	return len(digitsOf(ssn)) == 9
}

// ValidateEIN reports whether the input reduces to exactly nine digits.
// EINs share the SSN digit rule but use different punctuation when masked.
func ValidateEIN(ein string) bool {
	return len(digitsOf(ein)) == 9
}

// MaskSSN renders an SSN as ***-**-NNNN, exposing only the last four digits.
// Inputs of the wrong digit length get the all-mask placeholder.
func MaskSSN(ssn string) string {
	digits := digitsOf(ssn)
	if len(digits) != 9 {
		return maskedSSNPlaceholder
	}
	return "***-**-" + digits[5:]
}

// MaskEIN renders an EIN as **-***NNNN, exposing only the last four digits.
// Inputs of the wrong digit length get the all-mask placeholder.
func MaskEIN(ein string) string {
	digits := digitsOf(ein)
	if len(digits) != 9 {
		return maskedEINPlaceholder
	}
	return "**-***" + digits[5:]
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
