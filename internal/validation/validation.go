// Package validation provides input validation middleware and sanitizers
// for the card verification API.
package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxStringLength is the maximum length for string fields
const MaxStringLength = 10000

var (
	// cardNumberRegex matches digits optionally separated by spaces or dashes
	cardNumberRegex = regexp.MustCompile(`^[\d][\d\s-]{8,22}[\d]$`)
	// cvvRegex matches a 3- or 4-digit security code
	cvvRegex = regexp.MustCompile(`^\d{3,4}$`)
	// expiryRegex matches MM/YY or MM/YYYY
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2}|\d{4})$`)
)

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidCardShape checks that a string looks like a card number
// (10-24 chars of digits, spaces, dashes). It does not verify the checksum.
func IsValidCardShape(s string) bool {
	return cardNumberRegex.MatchString(s)
}

// IsValidCVV checks that a string is a 3- or 4-digit security code.
func IsValidCVV(s string) bool {
	return cvvRegex.MatchString(s)
}

// IsValidExpiry checks MM/YY or MM/YYYY format. It does not check whether
// the date is in the past.
func IsValidExpiry(s string) bool {
	return expiryRegex.MatchString(s)
}

// SanitizeCardNumber strips spaces and dashes, keeping only digits.
func SanitizeCardNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskCardNumber hides all but the last four digits, e.g. "****3456".
func MaskCardNumber(s string) string {
	digits := SanitizeCardNumber(s)
	if len(digits) <= 4 {
		return digits
	}
	return "****" + digits[len(digits)-4:]
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	// Trim whitespace
	s = strings.TrimSpace(s)

	// Limit length
	if len(s) > maxLen {
		s = s[:maxLen]
	}

	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	return s
}
