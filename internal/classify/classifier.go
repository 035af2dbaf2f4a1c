// Package classify decides whether a transaction touched a known DEX program.
package classify

import "solana-wallet-pnl/internal/solana"

// Site is where in a transaction a program ID was found.
type Site int

const (
	SiteAccountKey Site = iota
	SiteInstruction
	SiteInnerInstruction
)

func (s Site) String() string {
	switch s {
	case SiteAccountKey:
		return "account_key"
	case SiteInstruction:
		return "instruction"
	case SiteInnerInstruction:
		return "inner_instruction"
	default:
		return "unknown"
	}
}

// Reference is one program ID occurrence in a transaction.
type Reference struct {
	Site      Site
	ProgramID string
}

// Match describes the first allow-listed program found.
type Match struct {
	Reference
	Name string
}

// Classifier matches transactions against a program allow-list. Safe for concurrent use.
type Classifier struct {
	programs ProgramSet
}

// New creates a classifier. A nil set uses DefaultPrograms.
func New(programs ProgramSet) *Classifier {
	if programs == nil {
		programs = DefaultPrograms()
	}
	return &Classifier{programs: programs}
}

// IsDEX reports whether tx touched any allow-listed program.
func (c *Classifier) IsDEX(tx *solana.Transaction) bool {
	_, ok := c.Match(tx)
	return ok
}

// Match returns the first allow-listed reference in walk order.
func (c *Classifier) Match(tx *solana.Transaction) (Match, bool) {
	var found Match
	ok := false
	Walk(tx, func(ref Reference) bool {
		if name, known := c.programs[ref.ProgramID]; known {
			found = Match{Reference: ref, Name: name}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// Walk visits static account keys, then top-level instruction programs, then
// inner instruction programs, stopping when visit returns false. Instruction
// indexes resolve against static plus lookup-table keys; out of range indexes
// are skipped.
func Walk(tx *solana.Transaction, visit func(Reference) bool) {
	if tx == nil || tx.Message == nil {
		return
	}
	keys := tx.AllAccountKeys()

	for _, key := range tx.Message.AccountKeys {
		if !visit(Reference{Site: SiteAccountKey, ProgramID: key}) {
			return
		}
	}

	resolve := func(site Site, ix solana.Instruction) bool {
		if ix.ProgramIDIndex < 0 || ix.ProgramIDIndex >= len(keys) {
			return true
		}
		return visit(Reference{Site: site, ProgramID: keys[ix.ProgramIDIndex]})
	}

	for _, ix := range tx.Message.Instructions {
		if !resolve(SiteInstruction, ix) {
			return
		}
	}

	if tx.Meta == nil {
		return
	}
	for _, set := range tx.Meta.InnerInstructions {
		for _, ix := range set.Instructions {
			if !resolve(SiteInnerInstruction, ix) {
				return
			}
		}
	}
}
