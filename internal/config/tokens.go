package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"solana-wallet-pnl/internal/classify"
	"solana-wallet-pnl/internal/swap"
)

// ProgramEntry is one DEX program of the allow-list.
type ProgramEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Tokens overrides the built-in program and mint lists.
//
//	programs:
//	  - id: 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8
//	    name: raydium_amm_v4
//	replace_programs: false
//	stable_mints: [EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v]
//	excluded_mints: []
type Tokens struct {
	Programs        []ProgramEntry `yaml:"programs"`
	ReplacePrograms bool           `yaml:"replace_programs"` // use only Programs, not the defaults
	StableMints     []string       `yaml:"stable_mints"`
	ExcludedMints   []string       `yaml:"excluded_mints"`
}

// LoadTokens reads a YAML token list.
func LoadTokens(path string) (*Tokens, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var t Tokens
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tokens file %s: %w", path, err)
	}
	for i, p := range t.Programs {
		if p.ID == "" {
			return nil, fmt.Errorf("parse tokens file %s: program %d has no id", path, i)
		}
	}
	return &t, nil
}

// ProgramSet returns the allow-list: the defaults merged with the file's
// programs, or only the file's programs when ReplacePrograms is set.
// A nil receiver returns the defaults.
func (t *Tokens) ProgramSet() classify.ProgramSet {
	if t == nil {
		return classify.DefaultPrograms()
	}
	extra := make(classify.ProgramSet, len(t.Programs))
	for _, p := range t.Programs {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		extra[p.ID] = name
	}
	if t.ReplacePrograms {
		return extra
	}
	return classify.DefaultPrograms().Merge(extra)
}

// ParserOptions returns swap parser options carrying the file's mint lists.
// Stable mints replace the USDC/USDT defaults only when the file lists some.
func (t *Tokens) ParserOptions() swap.Options {
	if t == nil {
		return swap.Options{}
	}
	opts := swap.Options{ExcludedMints: t.ExcludedMints}
	if len(t.StableMints) > 0 {
		opts.StableMints = t.StableMints
	}
	return opts
}
