package intent

import (
	"fmt"
	"math/big"
	"strings"
)

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// CheckAmount validates that a human-unit amount string is a well-formed
// positive decimal. It never touches the network, so orchestrators can
// reject bad amounts before resolving decimals from the ledger.
func CheckAmount(human string) error {
	_, _, err := splitAmount(human)
	return err
}

// ScaleAmount converts a human-unit decimal string into base units by
// scaling with 10^decimals. Integer arithmetic only; floats would lose
// precision for large decimals.
func ScaleAmount(human string, decimals uint8) (uint64, error) {
	whole, frac, err := splitAmount(human)
	if err != nil {
		return 0, err
	}
	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("amount %q has more than %d fractional digits", human, decimals)
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))
	scaled, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", human)
	}
	if scaled.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("amount %q overflows after scaling by 10^%d", human, decimals)
	}
	return scaled.Uint64(), nil
}

func splitAmount(human string) (whole, frac string, err error) {
	s := strings.TrimSpace(human)
	if s == "" {
		return "", "", fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(s, "-") {
		return "", "", fmt.Errorf("amount must be positive")
	}
	whole, frac, _ = strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("invalid amount %q", human)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", "", fmt.Errorf("invalid amount %q", human)
	}
	if strings.Trim(whole, "0") == "" && strings.Trim(frac, "0") == "" {
		return "", "", fmt.Errorf("amount must be positive")
	}
	return whole, frac, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
