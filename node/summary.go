package node

import (
	"context"
	"fmt"
)

const (
	// NotConnectedSummary is shown instead of node info while disconnected.
	NotConnectedSummary = "Not connected"

	// BalanceUnavailable is reported by Balance when a connected node fails
	// to answer the balance query.
	BalanceUnavailable int64 = -1
)

// Summary describes the node n is connected to in one line. Query failures
// are reported in the returned text, not as an error.
func Summary(ctx context.Context, n Node) string {
	if !n.IsConnected() {
		return NotConnectedSummary
	}

	info, err := n.GetInfo(ctx)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	return fmt.Sprintf("Node: %s, Version: %s, Network: %s", info.Alias, info.Version, info.Network)
}

// Balance returns the total wallet balance in satoshis. It is 0 without
// asking the node when n is disconnected, and BalanceUnavailable when a
// connected node fails the query.
func Balance(ctx context.Context, n Node) int64 {
	if !n.IsConnected() {
		return 0
	}

	balance, err := n.WalletBalance(ctx)
	if err != nil {
		return BalanceUnavailable
	}

	return balance
}
