package resource

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = map[string]int64{
	"":   1,
	"b":  1,
	"k":  1 << 10,
	"kb": 1 << 10,
	"m":  1 << 20,
	"mb": 1 << 20,
	"g":  1 << 30,
	"gb": 1 << 30,
	"t":  1 << 40,
	"tb": 1 << 40,
}

// ParseSize converts a size such as "512", "10M" or "2gb" to bytes.
// Units are case-insensitive and 1024-based.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return 0, validationError("size must not be empty", nil)
	}

	split := strings.IndexFunc(trimmed, func(r rune) bool {
		return r < '0' || r > '9'
	})
	digits, unit := trimmed, ""
	if split >= 0 {
		digits, unit = trimmed[:split], trimmed[split:]
	}
	if digits == "" {
		return 0, invalidSize(value, nil)
	}

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, invalidSize(value, nil)
	}

	number, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, invalidSize(value, err)
	}
	if number > math.MaxInt64/multiplier {
		return 0, validationError(fmt.Sprintf("size %q overflows", value), nil)
	}
	return number * multiplier, nil
}

func invalidSize(value string, cause error) error {
	return validationError(
		fmt.Sprintf("size %q must be a number optionally followed by k, kb, m, mb, g, gb, t or tb", value),
		cause,
	)
}
