// Package namecodec decodes the fixed-width byte names used by the on-chain
// contracts. Product and campaign names arrive as bytes32 values padded with
// trailing NUL bytes; decoding strips the padding and any stray control
// characters before handing the value to the store.
package namecodec

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// NameWidth is the fixed byte width of on-chain packed names
const NameWidth = 32

// DecodeName converts a fixed-width byte array into a readable string.
// Trailing padding and non-printable control characters are removed and the
// result is trimmed of surrounding whitespace.
func DecodeName(raw []byte) string {
	s := strings.Map(func(r rune) rune {
		if r == 0 || unicode.IsControl(r) {
			return -1
		}
		return r
	}, string(raw))
	return strings.TrimSpace(s)
}

// DecodeHexName decodes a 0x-prefixed hex representation of a packed name
func DecodeHexName(h string) (string, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(h, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid hex name: %w", err)
	}
	return DecodeName(raw), nil
}

// EncodeName packs a readable string into the fixed-width byte representation.
// Names longer than NameWidth bytes are truncated at the width boundary.
func EncodeName(name string) [NameWidth]byte {
	var out [NameWidth]byte
	copy(out[:], name)
	return out
}

// ParseAmount parses an unbounded non-negative decimal amount.
// Monetary fields are 256-bit integers in the source domain, so arithmetic
// must never go through a machine-word type.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	return v, nil
}

// AmountString renders a big.Int as the decimal string stored in numeric columns.
// A nil value renders as zero.
func AmountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// AddAmounts returns a+b without mutating either operand
func AddAmounts(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

// SubAmounts returns a-b without mutating either operand
func SubAmounts(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}
