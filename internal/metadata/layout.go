package metadata

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/portto/solana-go-sdk/program/token"
)

// SPL mint base layout. Token-2022 mints append extensions after it.
const mintAccountSize = 82

// Metaplex metadata V1 account key.
const metadataV1Key = 4

// decodeMint returns the decimals and raw supply of mint account data.
func decodeMint(data []byte) (int, uint64, error) {
	if len(data) < mintAccountSize {
		return 0, 0, fmt.Errorf("mint data too short: %d", len(data))
	}
	mint, err := token.MintAccountFromData(data[:mintAccountSize])
	if err != nil {
		return 0, 0, fmt.Errorf("decode mint: %w", err)
	}
	return int(mint.Decimals), mint.Supply, nil
}

// decodeMetaplex reads name and symbol from a Metaplex metadata account.
// Layout: key(1) updateAuthority(32) mint(32) name(borsh string)
// symbol(borsh string) uri(borsh string) ...
// Values are NUL padded on chain. Missing or malformed fields are empty.
func decodeMetaplex(data []byte) (name, symbol string) {
	if len(data) < 69 || data[0] != metadataV1Key {
		return "", ""
	}

	offset := 65
	name, offset, ok := borshString(data, offset, 100)
	if !ok {
		return "", ""
	}
	symbol, _, ok = borshString(data, offset, 20)
	if !ok {
		return name, ""
	}
	return name, symbol
}

func borshString(data []byte, offset, limit int) (string, int, bool) {
	if offset+4 > len(data) {
		return "", offset, false
	}
	n := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	if n > limit || offset+n > len(data) {
		return "", offset, false
	}
	s := strings.TrimSpace(strings.TrimRight(string(data[offset:offset+n]), "\x00"))
	return s, offset + n, true
}
