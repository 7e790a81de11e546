package utils

import "strings"

// Phone numbers are stored as bare digits
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// NormalizePhone strips every non-digit character from a phone number
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhone reports whether the normalized number has 10 to 15 digits
func IsValidPhone(phone string) bool {
	digits := NormalizePhone(phone)
	return len(digits) >= MinPhoneDigits && len(digits) <= MaxPhoneDigits
}
