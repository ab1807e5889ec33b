package node

import (
	"context"
)

// Info identifies the node a client is connected to.
type Info struct {
	Alias          string
	Version        string
	IdentityPubkey string
	Chain          string
	Network        string
}

// Invoice is a payment request issued by the node.
type Invoice struct {
	PaymentRequest string
	RHash          string
}

// DecodedInvoice is what the node reads out of a payment request.
type DecodedInvoice struct {
	Destination string
	PaymentHash string
	NumSatoshis int64
	Description string
	Expiry      int64
}

// Payment is the outcome of a successful payment.
type Payment struct {
	Hash     string
	Preimage string
}

// Connection is the result of connecting to a node. A connection that
// failed stays failed; clients never reconnect on their own.
type Connection struct {
	Connected   bool
	Endpoint    string
	Credentials Credentials
	Info        *Info
	Err         error
}

// Node is the capability set the trade workflow needs from a payment
// channel node.
type Node interface {
	Connect(ctx context.Context) (*Connection, error)
	IsConnected() bool
	GetInfo(ctx context.Context) (*Info, error)
	AddInvoice(ctx context.Context, amount int64, memo string) (*Invoice, error)
	DecodeInvoice(ctx context.Context, paymentRequest string) (*DecodedInvoice, error)
	PayInvoice(ctx context.Context, paymentRequest string) (*Payment, error)
	WalletBalance(ctx context.Context) (int64, error)
	Stop() error
}
