package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the analyzer.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature. Returns nil, nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address, newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetAccountInfo retrieves raw account data. Returns nil, nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetBalance returns the native balance in lamports.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountsByOwner lists token accounts of owner under the given token program.
	GetTokenAccountsByOwner(ctx context.Context, owner, programID string) ([]TokenAccount, error)
}

// Transaction represents a confirmed Solana transaction with metadata.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	Fee               uint64 // lamports
	PreBalances       []uint64
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructionSet
	LoadedAddresses   *LoadedAddresses
	LogMessages       []string
}

// TransactionMessage contains the transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction is a compiled instruction referencing account keys by index.
type Instruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string // base58
}

// InnerInstructionSet holds CPI instructions issued by top-level instruction Index.
type InnerInstructionSet struct {
	Index        int
	Instructions []Instruction
}

// LoadedAddresses are keys resolved from address lookup tables (v0 transactions).
type LoadedAddresses struct {
	Writable []string
	Readonly []string
}

// TokenBalance is a pre or post token balance entry.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	ProgramID    string
	Amount       string // raw integer amount
	Decimals     int
}

// Failed reports whether the transaction recorded an error.
func (tx *Transaction) Failed() bool {
	return tx.Meta != nil && tx.Meta.Err != nil
}

// AllAccountKeys returns static keys followed by loaded writable and readonly keys,
// matching the index space used by instructions and balances.
func (tx *Transaction) AllAccountKeys() []string {
	if tx.Message == nil {
		return nil
	}
	keys := make([]string, 0, len(tx.Message.AccountKeys))
	keys = append(keys, tx.Message.AccountKeys...)
	if tx.Meta != nil && tx.Meta.LoadedAddresses != nil {
		keys = append(keys, tx.Meta.LoadedAddresses.Writable...)
		keys = append(keys, tx.Meta.LoadedAddresses.Readonly...)
	}
	return keys
}

// KeyAt returns the account key at index, or false if out of range.
func (tx *Transaction) KeyAt(index int) (string, bool) {
	keys := tx.AllAccountKeys()
	if index < 0 || index >= len(keys) {
		return "", false
	}
	return keys[index], true
}
