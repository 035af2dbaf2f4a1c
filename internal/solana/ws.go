package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to transaction logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogsFilter) (<-chan LogNotification, error)

	// Close closes the connection and all subscription channels.
	Close() error
}

// LogsFilter defines the logsSubscribe filter.
type LogsFilter struct {
	// Mentions limits notifications to transactions mentioning this address.
	// The RPC accepts a single address here.
	Mentions []string
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// Failed reports whether the notified transaction failed.
func (n LogNotification) Failed() bool {
	return n.Err != nil
}
