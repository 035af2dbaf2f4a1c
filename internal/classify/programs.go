package classify

// Known DEX and AMM program IDs.
const (
	RaydiumAMMV4     = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCPMM      = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"
	RaydiumCLMM      = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	RaydiumLaunchLab = "LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj"
	RaydiumRouting   = "routeUGWgWzqBWFcrCfv8tritsqukccJPu3q5GPP3xS"
	PumpFun          = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	PumpAMM          = "pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA"
	JupiterV6        = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	JupiterV4        = "JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB"
	OrcaWhirlpool    = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	OrcaV2           = "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP"
	MeteoraDLMM      = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
	MeteoraPools     = "Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"
	MeteoraDAMMV2    = "cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG"
	MeteoraDBC       = "dbcij3LWUppWqq96dh6gJWwBifmcGfLSB5D4DuSMaqN"
	LifinityV2       = "2wT8Yq49kHgDzXuPxZSaeLaH1qbmGXtEyPy64bL7aD3c"
	Phoenix          = "PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqLR89jjFHGqdXY"
	OpenBookV2       = "opnb2LAfJYbRMAHHvqjCwQxanZn7ReEHp1k81EohpZb"
	Moonshot         = "MoonCVVNZFSYkqNXP6bxHLPL6QQJiMagDL3qcqUQTrG"
	FluxBeam         = "FLUXubRmkEi2q6K3Y9kBPg9248ggaZVsoSFhtJHSrm1X"
	SaberStableSwap  = "SSwpkEEcbUqx4vtoEByFjSkhKdCT862DNVb52nZg1UZ"
)

// ProgramSet maps program ID to a human readable DEX name.
type ProgramSet map[string]string

// DefaultPrograms returns the built-in allow-list.
func DefaultPrograms() ProgramSet {
	return ProgramSet{
		RaydiumAMMV4:     "raydium_amm_v4",
		RaydiumCPMM:      "raydium_cpmm",
		RaydiumCLMM:      "raydium_clmm",
		RaydiumLaunchLab: "raydium_launchlab",
		RaydiumRouting:   "raydium_routing",
		PumpFun:          "pumpfun",
		PumpAMM:          "pump_amm",
		JupiterV6:        "jupiter_v6",
		JupiterV4:        "jupiter_v4",
		OrcaWhirlpool:    "orca_whirlpool",
		OrcaV2:           "orca_v2",
		MeteoraDLMM:      "meteora_dlmm",
		MeteoraPools:     "meteora_pools",
		MeteoraDAMMV2:    "meteora_damm_v2",
		MeteoraDBC:       "meteora_dbc",
		LifinityV2:       "lifinity_v2",
		Phoenix:          "phoenix",
		OpenBookV2:       "openbook_v2",
		Moonshot:         "moonshot",
		FluxBeam:         "fluxbeam",
		SaberStableSwap:  "saber",
	}
}

// Merge returns a copy of s with extra entries added or overriding names.
func (s ProgramSet) Merge(extra ProgramSet) ProgramSet {
	out := make(ProgramSet, len(s)+len(extra))
	for id, name := range s {
		out[id] = name
	}
	for id, name := range extra {
		out[id] = name
	}
	return out
}
