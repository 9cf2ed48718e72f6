// Package auth covers account credential rules and bearer tokens: the
// password policy, email/phone validation, password hashing, and JWT
// issue/verify.
package auth

import (
	"errors"
	"regexp"
)

// Password rules are checked in a fixed order and the first violation wins.
// Messages match what the registration form has always shown.
var passwordRules = []struct {
	re      *regexp.Regexp
	wantHit bool
	msg     string
}{
	{regexp.MustCompile(`\s`), false, "Password must not contain Whitespaces"},
	{regexp.MustCompile(`[A-Z]`), true, "Password must have at least one Uppercase Character"},
	{regexp.MustCompile(`[a-z]`), true, "Password must have at least one Lowercase Character"},
	{regexp.MustCompile(`[0-9]`), true, "Password must contain at least one Digit"},
	{regexp.MustCompile("[~`!@#$%^&*()\\-+={}\\[\\]|\\\\:;\"'<>,.?/_₹]"), true, "Password must contain at least one Special Symbol"},
	{regexp.MustCompile(`^.{8,20}$`), true, "Password must be 8-20 Characters Long"},
}

// CheckPassword validates pw against the ordered rule set and returns the
// first violated rule's message, or nil when all rules pass. Empty input is
// a "required field" concern handled by callers before this runs.
func CheckPassword(pw string) error {
	for _, r := range passwordRules {
		if r.re.MatchString(pw) != r.wantHit {
			return errors.New(r.msg)
		}
	}
	return nil
}
