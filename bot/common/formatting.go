package common

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatBalance formats a balance amount with thousand separators
func FormatBalance(balance int64) string {
	if balance < 0 {
		return "-" + FormatBalance(-balance)
	}

	str := strconv.FormatInt(balance, 10)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// ParseAmount reads a chew amount typed in chat. Thousand separators and a
// trailing k are accepted ("1,500", "2k").
func ParseAmount(s string) (int64, error) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	multiplier := int64(1)
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}

	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return amount * multiplier, nil
}

// IsMention reports whether arg names a user ("@name")
func IsMention(arg string) bool {
	return strings.HasPrefix(arg, "@") && len(arg) > 1
}
