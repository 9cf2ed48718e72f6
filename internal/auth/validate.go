package auth

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	phoneRe = regexp.MustCompile(`^04[0-9]{8}$`)
)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPhoneNumber accepts Australian mobile numbers (04xxxxxxxx),
// ignoring internal whitespace.
func IsValidPhoneNumber(phone string) bool {
	phone = strings.Join(strings.Fields(phone), "")
	return phoneRe.MatchString(phone)
}
