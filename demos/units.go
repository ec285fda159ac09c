package demos

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Decimals is the native token's fixed-point scale: 1 DEMOS = 10^18 base units.
const Decimals = 18

var baseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// FormatDEMOS converts a base-unit integer string to a display value with
// six decimal places. Malformed input formats as "0.000000".
func FormatDEMOS(baseUnits string) string {
	v, ok := new(big.Int).SetString(strings.TrimSpace(baseUnits), 10)
	if !ok {
		v = big.NewInt(0)
	}
	r := new(big.Rat).SetFrac(v, baseUnit)
	return r.FloatString(6)
}

// decimalAmount accepts plain decimals only; big.Rat would also take
// fraction and exponent forms, which are not display amounts.
var decimalAmount = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseDEMOS converts a display amount ("1.5") to a base-unit integer
// string, truncating anything below 10^-18.
func ParseDEMOS(display string) (string, error) {
	display = strings.TrimSpace(display)
	if !decimalAmount.MatchString(display) {
		return "", fmt.Errorf("invalid amount %q", display)
	}
	r, ok := new(big.Rat).SetString(display)
	if !ok {
		return "", fmt.Errorf("invalid amount %q", display)
	}
	r.Mul(r, new(big.Rat).SetInt(baseUnit))
	return new(big.Int).Quo(r.Num(), r.Denom()).String(), nil
}

// IsValidAddress reports whether s is a well-formed 0x-prefixed EVM address.
func IsValidAddress(s string) bool {
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

// ShortenAddress abbreviates an address for display: 0x1234...abcd.
func ShortenAddress(address string, chars int) string {
	if address == "" {
		return ""
	}
	if len(address) <= chars*2+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}
