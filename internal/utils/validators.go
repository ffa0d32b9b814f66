package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

	// North American numbers, with or without the country code.
	phoneDigitsRegex = regexp.MustCompile(`^1?\d{10}$`)

	// Canadian postal code, e.g. "M5V 2T6". The second position never takes
	// D, F, I, O, Q or U.
	postalCodeRegex = regexp.MustCompile(`^[ABCEGHJ-NPRSTVXY]\d[ABCEGHJ-NPRSTV-Z] ?\d[ABCEGHJ-NPRSTV-Z]\d$`)
)

// ValidateEmail normalizes and checks an email address.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("invalid email address")
	}
	return email, nil
}

// ValidatePhoneNumber checks and normalizes a phone number to +1XXXXXXXXXX.
// An empty input is allowed; phone numbers are optional on profiles.
func ValidatePhoneNumber(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	digitsOnly := regexp.MustCompile(`[^\d]`).ReplaceAllString(phone, "")
	if !phoneDigitsRegex.MatchString(digitsOnly) {
		return "", fmt.Errorf("invalid phone number, expected 10 digits")
	}
	if len(digitsOnly) == 11 {
		digitsOnly = digitsOnly[1:]
	}
	return "+1" + digitsOnly, nil
}

// ValidatePostalCode checks and normalizes a Canadian postal code to the
// "A1A 1A1" form. Empty input is allowed.
func ValidatePostalCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", nil
	}
	if !postalCodeRegex.MatchString(code) {
		return "", fmt.Errorf("invalid postal code")
	}
	compact := strings.ReplaceAll(code, " ", "")
	return compact[:3] + " " + compact[3:], nil
}
