package analyzer

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/portto/solana-go-sdk/common"
)

// ErrInvalidAddress is returned before any work when the wallet address is malformed.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateAddress checks that address is a canonical base58 encoding of a
// 32-byte public key.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %q is not base58", ErrInvalidAddress, address)
	}
	if len(raw) != common.PublicKeyLength {
		return fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, address, len(raw))
	}
	if common.PublicKeyFromString(address).ToBase58() != address {
		return fmt.Errorf("%w: %q is not canonical", ErrInvalidAddress, address)
	}
	return nil
}
