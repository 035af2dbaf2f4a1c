// Package metadata resolves token decimals, supply, name and symbol from
// the mint account and its Metaplex metadata account.
package metadata

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// Source returns token metadata for a mint.
// Returns nil, nil if the mint does not exist.
type Source interface {
	Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// RPCSource fetches token metadata from Solana RPC.
type RPCSource struct {
	rpc    solana.RPCClient
	logger *zap.Logger
	now    func() time.Time
}

// NewRPCSource creates a new RPC-based metadata source.
func NewRPCSource(rpc solana.RPCClient, logger *zap.Logger) *RPCSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCSource{rpc: rpc, logger: logger, now: time.Now}
}

// Fetch reads the mint account for decimals and supply, then the Metaplex
// metadata account for name and symbol. A missing or unreadable Metaplex
// account leaves name and symbol nil.
func (s *RPCSource) Fetch(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	if meta := Known(mint); meta != nil {
		return meta, nil
	}

	info, err := s.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if info == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint account data: %w", err)
	}
	decimals, supply, err := decodeMint(data)
	if err != nil {
		return nil, err
	}

	meta := &domain.TokenMetadata{
		Mint:      mint,
		Decimals:  decimals,
		Supply:    &supply,
		FetchedAt: s.now().UnixMilli(),
	}

	pda, err := MetadataPDA(mint)
	if err != nil {
		s.logger.Debug("metadata pda", zap.String("mint", mint), zap.Error(err))
		return meta, nil
	}
	metaInfo, err := s.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		s.logger.Debug("metaplex account fetch failed", zap.String("mint", mint), zap.Error(err))
		return meta, nil
	}
	if metaInfo == nil {
		return meta, nil
	}
	raw, err := base64.StdEncoding.DecodeString(metaInfo.Data)
	if err != nil {
		return meta, nil
	}
	if name, symbol := decodeMetaplex(raw); name != "" || symbol != "" {
		if name != "" {
			meta.Name = &name
		}
		if symbol != "" {
			meta.Symbol = &symbol
		}
	}
	return meta, nil
}

// errMintNotFound marks a mint with no account.
var errMintNotFound = errors.New("mint not found")

// Known returns fixed metadata for SOL, USDC and USDT, or nil.
func Known(mint string) *domain.TokenMetadata {
	var name, symbol string
	var decimals int
	switch mint {
	case solana.WSOLMint:
		name, symbol, decimals = "Wrapped SOL", "SOL", solana.SOLDecimals
	case solana.USDCMint:
		name, symbol, decimals = "USD Coin", "USDC", 6
	case solana.USDTMint:
		name, symbol, decimals = "USDT", "USDT", 6
	default:
		return nil
	}
	return &domain.TokenMetadata{
		Mint:     mint,
		Name:     &name,
		Symbol:   &symbol,
		Decimals: decimals,
	}
}
