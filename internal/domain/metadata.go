package domain

// TokenMetadata represents token metadata read from chain.
// Corresponds to token_metadata table in PostgreSQL.
type TokenMetadata struct {
	Mint      string  // token mint address
	Name      *string // Metaplex name (nullable)
	Symbol    *string // Metaplex symbol (nullable)
	Decimals  int     // mint decimals
	Supply    *uint64 // raw supply (nullable)
	FetchedAt int64   // when metadata was fetched (ms)
}

// DisplaySymbol returns the symbol, falling back to a shortened mint.
func (m *TokenMetadata) DisplaySymbol() string {
	if m != nil && m.Symbol != nil && *m.Symbol != "" {
		return *m.Symbol
	}
	if m == nil {
		return ""
	}
	return ShortMint(m.Mint)
}

// ShortMint abbreviates a mint address for display.
func ShortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + ".." + mint[len(mint)-4:]
}
