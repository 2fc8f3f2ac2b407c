package domain

import (
	"regexp"
	"strings"
)

// mobilePattern accepts 010-1234-5678 or 01012345678. Mixed separator usage
// such as 010-12345678 is rejected.
var mobilePattern = regexp.MustCompile(`^01[0-9](?:[0-9]{8}|-[0-9]{4}-[0-9]{4})$`)

// IsMobilePhone reports whether value is a Korean mobile number.
func IsMobilePhone(value string) bool {
	return mobilePattern.MatchString(value)
}

// NormalizePhone rewrites a valid mobile number into the hyphenated 3-4-4 form.
// Values that are not mobile numbers are returned unchanged.
func NormalizePhone(value string) string {
	if !IsMobilePhone(value) {
		return value
	}
	digits := strings.ReplaceAll(value, "-", "")
	return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
}

// FormatPhone mirrors the form's as-you-type formatter: non digits are dropped and
// the remaining digits are grouped 3-4-4, capped at 11 digits.
func FormatPhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	numbers := b.String()
	if len(numbers) > 11 {
		numbers = numbers[:11]
	}

	switch {
	case len(numbers) <= 3:
		return numbers
	case len(numbers) <= 7:
		return numbers[:3] + "-" + numbers[3:]
	default:
		return numbers[:3] + "-" + numbers[3:7] + "-" + numbers[7:]
	}
}
