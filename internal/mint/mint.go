// Package mint validates Solana mint addresses.
package mint

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// addressLength is the byte length of a Solana public key.
const addressLength = 32

// Validate checks that addr is a well-formed Solana mint address:
// valid base58 decoding to exactly 32 bytes. Mints created through
// launchpads are often PDAs, so no on-curve check is applied.
func Validate(addr string) error {
	if addr == "" {
		return fmt.Errorf("mint address is empty")
	}

	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode mint address: %w", err)
	}
	if len(raw) != addressLength {
		return fmt.Errorf("mint address decodes to %d bytes, want %d", len(raw), addressLength)
	}
	return nil
}

// IsValid reports whether addr is a well-formed mint address.
func IsValid(addr string) bool {
	return Validate(addr) == nil
}
