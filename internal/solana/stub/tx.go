package stub

import (
	"strconv"

	"solana-wallet-pnl/internal/solana"
)

// TxBuilder assembles transactions for tests. The owner is the fee payer at index 0.
type TxBuilder struct {
	tx    *solana.Transaction
	inner []string
}

// NewTx starts a successful transaction for owner with no balance changes.
func NewTx(signature string, blockTime int64, owner string) *TxBuilder {
	return &TxBuilder{tx: &solana.Transaction{
		Slot:      blockTime,
		Signature: signature,
		BlockTime: blockTime,
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{0},
			PostBalances: []uint64{0},
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{owner},
		},
	}}
}

func (b *TxBuilder) addKey(key string, pre, post uint64) int {
	b.tx.Message.AccountKeys = append(b.tx.Message.AccountKeys, key)
	b.tx.Meta.PreBalances = append(b.tx.Meta.PreBalances, pre)
	b.tx.Meta.PostBalances = append(b.tx.Meta.PostBalances, post)
	return len(b.tx.Message.AccountKeys) - 1
}

// SOL sets the owner's lamport balance before and after.
func (b *TxBuilder) SOL(pre, post uint64) *TxBuilder {
	b.tx.Meta.PreBalances[0] = pre
	b.tx.Meta.PostBalances[0] = post
	return b
}

// Fee sets the transaction fee in lamports.
func (b *TxBuilder) Fee(lamports uint64) *TxBuilder {
	b.tx.Meta.Fee = lamports
	return b
}

// Program adds a top-level instruction invoking programID.
func (b *TxBuilder) Program(programID string) *TxBuilder {
	idx := b.addKey(programID, 1, 1)
	b.tx.Message.Instructions = append(b.tx.Message.Instructions, solana.Instruction{
		ProgramIDIndex: idx,
		Accounts:       []int{0},
	})
	return b
}

// InnerProgram adds programID only as a CPI of the first top-level instruction.
// The key is placed in the loaded readonly addresses so it is not a static key.
func (b *TxBuilder) InnerProgram(programID string) *TxBuilder {
	b.inner = append(b.inner, programID)
	return b
}

// Token records a token account of owner for mint with raw pre/post amounts.
// An empty pre means the account did not exist before the transaction.
func (b *TxBuilder) Token(mint, owner string, decimals int, pre, post uint64) *TxBuilder {
	idx := b.addKey("ata-"+mint+"-"+owner+"-"+strconv.Itoa(len(b.tx.Message.AccountKeys)), 2039280, 2039280)
	bal := func(amount uint64) solana.TokenBalance {
		return solana.TokenBalance{
			AccountIndex: idx,
			Mint:         mint,
			Owner:        owner,
			ProgramID:    solana.TokenProgramID,
			Amount:       strconv.FormatUint(amount, 10),
			Decimals:     decimals,
		}
	}
	b.tx.Meta.PreTokenBalances = append(b.tx.Meta.PreTokenBalances, bal(pre))
	b.tx.Meta.PostTokenBalances = append(b.tx.Meta.PostTokenBalances, bal(post))
	return b
}

// NewTokenAccount records a token account created in this transaction (no pre balance).
func (b *TxBuilder) NewTokenAccount(mint, owner string, decimals int, post uint64) *TxBuilder {
	idx := b.addKey("ata-"+mint+"-"+owner+"-"+strconv.Itoa(len(b.tx.Message.AccountKeys)), 0, 2039280)
	b.tx.Meta.PostTokenBalances = append(b.tx.Meta.PostTokenBalances, solana.TokenBalance{
		AccountIndex: idx,
		Mint:         mint,
		Owner:        owner,
		ProgramID:    solana.TokenProgramID,
		Amount:       strconv.FormatUint(post, 10),
		Decimals:     decimals,
	})
	return b
}

// Failed marks the transaction as failed on chain.
func (b *TxBuilder) Failed() *TxBuilder {
	b.tx.Meta.Err = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
	return b
}

// Build returns the transaction.
func (b *TxBuilder) Build() *solana.Transaction {
	if len(b.inner) > 0 {
		loaded := &solana.LoadedAddresses{Readonly: b.inner}
		b.tx.Meta.LoadedAddresses = loaded
		set := solana.InnerInstructionSet{Index: 0}
		for i := range b.inner {
			set.Instructions = append(set.Instructions, solana.Instruction{
				ProgramIDIndex: len(b.tx.Message.AccountKeys) + i,
			})
		}
		b.tx.Meta.InnerInstructions = []solana.InnerInstructionSet{set}
	}
	return b.tx
}
