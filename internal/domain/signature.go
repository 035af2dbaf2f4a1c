package domain

// RawSignature is one entry of an address's signature history.
type RawSignature struct {
	Signature string
	Slot      uint64
	BlockTime *int64 // unix seconds, nil if the node does not know it
	Failed    bool   // transaction error recorded on chain
}
