package node

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/the-lightning-land/tradefee/fault"
)

// Compile time check for protocol compatibility
var _ Node = (*MockNode)(nil)

// MockIdentityPubkey is the identity of a mock node unless its Info sets one.
const MockIdentityPubkey = "02a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"

type MockNodeConfig struct {
	Info    Info
	Balance int64
	// ConnectErr makes Connect fail with the given error.
	ConnectErr error
	Logger     Logger
}

type mockInvoice struct {
	amount   int64
	memo     string
	preimage lntypes.Preimage
	paid     bool
}

// MockNode is an in-memory node. It issues invoices it can pay itself and
// keeps a wallet balance, which makes it usable without a running lnd.
type MockNode struct {
	mu         sync.Mutex
	info       Info
	balance    int64
	connectErr error
	connection *Connection
	invoices   map[string]*mockInvoice
	failures   map[string]error
	calls      map[string]int
	log        Logger
}

func NewMockNode(config *MockNodeConfig) *MockNode {
	n := &MockNode{
		info:       config.Info,
		balance:    config.Balance,
		connectErr: config.ConnectErr,
		invoices:   make(map[string]*mockInvoice),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
	}

	if n.info.Alias == "" {
		n.info = Info{
			Alias:   "mock",
			Version: "0.0.0-mock",
			Chain:   DefaultChain,
			Network: DefaultFallbackNetwork,
		}
	}

	if n.info.IdentityPubkey == "" {
		n.info.IdentityPubkey = MockIdentityPubkey
	}

	if config.Logger != nil {
		n.log = config.Logger
	} else {
		n.log = noopLogger{}
	}

	return n
}

// SetFailure makes every following call of op fail with err until it is
// cleared by passing a nil err.
func (n *MockNode) SetFailure(op string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err == nil {
		delete(n.failures, op)
		return
	}

	n.failures[op] = err
}

// Calls returns how many times op reached the node while connected.
func (n *MockNode) Calls(op string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.calls[op]
}

// IsPaid reports whether the invoice behind paymentRequest was paid.
func (n *MockNode) IsPaid(paymentRequest string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	invoice, ok := n.invoices[paymentRequest]
	return ok && invoice.paid
}

func (n *MockNode) Connect(ctx context.Context) (*Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.connection != nil {
		return n.connection, n.connection.Err
	}

	n.connection = &Connection{
		Endpoint: "mock",
	}

	if n.connectErr != nil {
		n.log.Errorf("Could not connect to mock node: %v", n.connectErr)
		n.connection.Err = n.connectErr
		return n.connection, n.connectErr
	}

	info := n.info
	n.connection.Connected = true
	n.connection.Info = &info
	n.connection.Credentials.Network = info.Network

	n.log.Infof("Connected to mock node %v", info.Alias)

	return n.connection, nil
}

func (n *MockNode) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.isConnected()
}

func (n *MockNode) isConnected() bool {
	return n.connection != nil && n.connection.Connected
}

func (n *MockNode) Stop() error {
	return nil
}

// enter checks connectivity, counts the call and returns the scripted
// failure for op, if any. A done ctx fails the call the way a cancelled
// rpc would. The caller holds mu.
func (n *MockNode) enter(ctx context.Context, op string) error {
	if !n.isConnected() {
		return fault.New(fault.ErrNotConnected, op)
	}

	n.calls[op]++

	if err := ctx.Err(); err != nil {
		return fault.Wrap(fault.ErrNodeRequestFailed, op, err)
	}

	if err, ok := n.failures[op]; ok {
		return err
	}

	return nil
}

func (n *MockNode) GetInfo(ctx context.Context) (*Info, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.enter(ctx, "GetInfo"); err != nil {
		return nil, err
	}

	info := n.info
	return &info, nil
}

func (n *MockNode) AddInvoice(ctx context.Context, amount int64, memo string) (*Invoice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.enter(ctx, "AddInvoice"); err != nil {
		return nil, err
	}

	var preimage lntypes.Preimage
	if _, err := rand.Read(preimage[:]); err != nil {
		return nil, fault.Wrap(fault.ErrNodeRequestFailed, "AddInvoice", err)
	}

	hash := preimage.Hash()
	paymentRequest := fmt.Sprintf("lnmock%dn1%s", amount, hash.String())

	n.invoices[paymentRequest] = &mockInvoice{
		amount:   amount,
		memo:     memo,
		preimage: preimage,
	}

	n.log.Debugf("Created mock invoice of %v sat", amount)

	return &Invoice{
		PaymentRequest: paymentRequest,
		RHash:          hash.String(),
	}, nil
}

func (n *MockNode) DecodeInvoice(ctx context.Context, paymentRequest string) (*DecodedInvoice, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.enter(ctx, "DecodeInvoice"); err != nil {
		return nil, err
	}

	return n.decode(paymentRequest)
}

func (n *MockNode) decode(paymentRequest string) (*DecodedInvoice, error) {
	invoice, ok := n.invoices[paymentRequest]
	if !ok {
		return nil, fault.Wrap(fault.ErrNodeRequestFailed, "DecodeInvoice",
			errors.New("invalid payment request"))
	}

	return &DecodedInvoice{
		Destination: n.info.IdentityPubkey,
		PaymentHash: invoice.preimage.Hash().String(),
		NumSatoshis: invoice.amount,
		Description: invoice.memo,
	}, nil
}

func (n *MockNode) PayInvoice(ctx context.Context, paymentRequest string) (*Payment, error) {
	const op = "PayInvoice"

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.enter(ctx, op); err != nil {
		return nil, err
	}

	if _, err := n.decode(paymentRequest); err != nil {
		return nil, err
	}

	invoice := n.invoices[paymentRequest]

	if invoice.paid {
		return nil, fault.Wrap(fault.ErrPaymentRejected, op, errors.New("invoice is already paid"))
	}

	if invoice.amount > n.balance {
		return nil, fault.Wrap(fault.ErrPaymentRejected, op, errors.New("insufficient balance"))
	}

	invoice.paid = true
	n.balance -= invoice.amount

	return &Payment{
		Hash:     invoice.preimage.Hash().String(),
		Preimage: invoice.preimage.String(),
	}, nil
}

func (n *MockNode) WalletBalance(ctx context.Context) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.enter(ctx, "WalletBalance"); err != nil {
		return 0, err
	}

	return n.balance, nil
}
