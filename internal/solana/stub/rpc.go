package stub

import (
	"context"
	"errors"
	"sync"

	"solana-wallet-pnl/internal/solana"
)

// ErrNotFound is returned for unknown accounts when StrictAccounts is set.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient for testing. Safe for concurrent use.
type RPCClient struct {
	mu sync.Mutex

	Transactions  map[string]*solana.Transaction
	Signatures    map[string][]solana.SignatureInfo
	Accounts      map[string]*solana.AccountInfo
	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount // key: owner + "/" + program

	// Failure injection
	TxErrors          map[string]error
	SignaturesErr     error
	SignaturesOKPages int // pages served before SignaturesErr applies
	BalanceErr        error
	TokenAccountsErr  error

	calls map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions:  make(map[string]*solana.Transaction),
		Signatures:    make(map[string][]solana.SignatureInfo),
		Accounts:      make(map[string]*solana.AccountInfo),
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		TxErrors:      make(map[string]error),
		calls:         make(map[string]int),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

func (c *RPCClient) record(method string) {
	c.calls[method]++
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// GetTransaction returns the stored transaction, or nil if unknown.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getTransaction")

	if err, ok := c.TxErrors[signature]; ok {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress pages through stored signatures honoring Before and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getSignaturesForAddress")

	if c.SignaturesErr != nil && c.calls["getSignaturesForAddress"] > c.SignaturesOKPages {
		return nil, c.SignaturesErr
	}

	sigs := c.Signatures[address]
	if opts != nil && opts.Before != "" {
		start := len(sigs)
		for i, s := range sigs {
			if s.Signature == opts.Before {
				start = i + 1
				break
			}
		}
		sigs = sigs[start:]
	}

	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	out := make([]solana.SignatureInfo, len(sigs))
	copy(out, sigs)
	return out, nil
}

// GetAccountInfo returns the stored account, or nil if unknown.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getAccountInfo")
	return c.Accounts[pubkey], nil
}

// GetBalance returns the stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getBalance")
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	return c.Balances[pubkey], nil
}

// GetTokenAccountsByOwner returns the stored token accounts for owner and program.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, programID string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getTokenAccountsByOwner")
	if c.TokenAccountsErr != nil {
		return nil, c.TokenAccountsErr
	}
	return c.TokenAccounts[owner+"/"+programID], nil
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures sets the newest-first signature history of an address.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = sigs
}

// AddAccount stores raw account info.
func (c *RPCClient) AddAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = info
}

// AddTokenAccount stores a token account owned by owner.
func (c *RPCClient) AddTokenAccount(owner string, acc solana.TokenAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := owner + "/" + acc.ProgramID
	c.TokenAccounts[key] = append(c.TokenAccounts[key], acc)
}
