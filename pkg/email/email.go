// Package email derives presentable names from email addresses for
// profiles provisioned without an explicit display name.
package email

import (
	"strings"
	"unicode"
)

// DeriveDisplayName builds a "First Last" display name from the local part
// of an email address. Separators split name parts; single-part locals
// yield a one-word name.
func DeriveDisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User"
	}

	first := capitalize(parts[0])
	if len(parts) == 1 {
		return first
	}
	return first + " " + capitalize(parts[len(parts)-1])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
