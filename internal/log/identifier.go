package log

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+[1-9][0-9]{6,14}`)
)

// MaskIdentifiers hides the local part of email addresses and the middle
// digits of E.164 phone numbers in s:
//
//	alice@example.com -> a***@example.com
//	+14155552671      -> +1********71
//
// It reports whether anything was masked.
func MaskIdentifiers(s string) (string, bool) {
	if !strings.ContainsAny(s, "@+") {
		return s, false
	}
	masked := emailPattern.ReplaceAllStringFunc(s, maskEmail)
	masked = phonePattern.ReplaceAllStringFunc(masked, maskPhone)
	return masked, masked != s
}

func maskEmail(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 {
		return addr
	}
	return addr[:1] + "***" + addr[at:]
}

// maskPhone keeps the plus sign, the first digit and the last two digits.
func maskPhone(number string) string {
	digits := number[1:]
	hidden := len(digits) - 3
	return "+" + digits[:1] + strings.Repeat("*", hidden) + digits[len(digits)-2:]
}
