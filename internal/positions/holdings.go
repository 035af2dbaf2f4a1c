package positions

import (
	"context"
	"fmt"
	"sort"

	"github.com/portto/solana-go-sdk/program/token"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"solana-wallet-pnl/internal/domain"
	"solana-wallet-pnl/internal/solana"
)

// SPL token account base layout. Token-2022 accounts append extensions after it.
const tokenAccountSize = 165

// FetchBalances reads the native SOL balance and the SPL Token and
// Token-2022 accounts of owner concurrently. Raw amounts are summed per mint;
// native lamports are reported under the wrapped SOL mint. Accounts that
// cannot be decoded and empty accounts are skipped.
func FetchBalances(ctx context.Context, rpc solana.RPCClient, owner string) (map[string]uint64, error) {
	var (
		lamports uint64
		programs = []string{solana.TokenProgramID, solana.Token2022ProgramID}
		accounts = make([][]solana.TokenAccount, len(programs))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := rpc.GetBalance(gctx, owner)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		lamports = b
		return nil
	})
	for i, program := range programs {
		g.Go(func() error {
			accs, err := rpc.GetTokenAccountsByOwner(gctx, owner, program)
			if err != nil {
				return fmt.Errorf("get token accounts (%s): %w", program, err)
			}
			accounts[i] = accs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	balances := make(map[string]uint64)
	if lamports > 0 {
		balances[solana.WSOLMint] += lamports
	}
	for _, accs := range accounts {
		for _, acc := range accs {
			mint, amount, err := DecodeTokenAccount(acc.Data)
			if err != nil || amount == 0 {
				continue
			}
			balances[mint] += amount
		}
	}
	return balances, nil
}

// DecodeTokenAccount returns the mint and raw amount of token account data.
func DecodeTokenAccount(data []byte) (string, uint64, error) {
	if len(data) < tokenAccountSize {
		return "", 0, fmt.Errorf("token account data too short: %d", len(data))
	}
	acc, err := token.TokenAccountFromData(data[:tokenAccountSize])
	if err != nil {
		return "", 0, fmt.Errorf("decode token account: %w", err)
	}
	return acc.Mint.ToBase58(), acc.Amount, nil
}

// ToHoldings converts raw balances to UI amounts using mint decimals.
// Mints without metadata are omitted. Output is sorted by mint.
func ToHoldings(balances map[string]uint64, metadata map[string]*domain.TokenMetadata) []domain.Holding {
	holdings := make([]domain.Holding, 0, len(balances))
	for mint, raw := range balances {
		meta, ok := metadata[mint]
		if !ok || meta == nil {
			continue
		}
		holdings = append(holdings, domain.Holding{
			Mint:     mint,
			Amount:   decimal.NewFromUint64(raw).Shift(-int32(meta.Decimals)),
			Decimals: meta.Decimals,
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Mint < holdings[j].Mint })
	return holdings
}
