package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// VIN format: 17 alphanumeric characters, excluding I, O, Q.
var vinRegex = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// Normalize upper-cases raw input the way the VIN field does while typing.
func Normalize(raw string) string {
	return strings.ToUpper(raw)
}

// CharCount returns the live character counter for the VIN field.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// ValidateVIN trims and upper-cases raw and checks it is a well-formed VIN.
// The check digit is not verified.
func ValidateVIN(raw string) (VIN, error) {
	v := Normalize(strings.TrimSpace(raw))
	if v == "" {
		return "", NewValidationError("vin", raw, ErrMissingVIN)
	}
	if utf8.RuneCountInString(v) != VINLength {
		return "", NewValidationError("vin", v, ErrVINLength)
	}
	if !vinRegex.MatchString(v) {
		return "", NewValidationError("vin", v, ErrVINCharacters)
	}
	return VIN(v), nil
}
