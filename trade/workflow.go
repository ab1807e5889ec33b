package trade

import (
	"context"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/the-lightning-land/tradefee/fault"
	"github.com/the-lightning-land/tradefee/node"
)

// DefaultMemo is attached to every fee invoice unless configured otherwise.
const DefaultMemo = "Trading Platform Fee - 1%"

type Config struct {
	Node       node.Node
	Memo       string
	FeeRate    decimal.Decimal
	Registerer prometheus.Registerer
	Logger     Logger
}

// Workflow takes trades from creation through fee invoicing to fee
// settlement. It performs one blocking node call at a time and is not safe
// for concurrent use; hosts serialize access.
type Workflow struct {
	node       node.Node
	connection *node.Connection
	memo       string
	feeRate    decimal.Decimal
	metrics    *metrics
	log        Logger
}

func NewWorkflow(config *Config) *Workflow {
	w := &Workflow{
		node:    config.Node,
		memo:    config.Memo,
		feeRate: config.FeeRate,
		metrics: newMetrics(config.Registerer),
	}

	if w.memo == "" {
		w.memo = DefaultMemo
	}

	if w.feeRate.IsZero() {
		w.feeRate = DefaultFeeRate
	}

	if config.Logger != nil {
		w.log = config.Logger
	} else {
		w.log = noopLogger{}
	}

	return w
}

// Connect connects the node and keeps the resulting connection. A failed
// connection is logged and leaves the workflow disconnected for good.
func (w *Workflow) Connect(ctx context.Context) *node.Connection {
	conn, err := w.node.Connect(ctx)
	if err != nil {
		w.log.Errorf("Could not connect to lightning node: %v", err)
	}

	if conn == nil {
		conn = &node.Connection{Err: err}
	}

	w.connection = conn

	return conn
}

// Connection returns the connection established by Connect, or nil.
func (w *Workflow) Connection() *node.Connection {
	return w.connection
}

func (w *Workflow) GetConnectionStatus() bool {
	return w.connection != nil && w.connection.Connected
}

func (w *Workflow) GetNodeSummary(ctx context.Context) string {
	return node.Summary(ctx, w.node)
}

// GetWalletBalance returns the node's balance in satoshis, 0 when
// disconnected and node.BalanceUnavailable when the query fails.
func (w *Workflow) GetWalletBalance(ctx context.Context) int64 {
	return node.Balance(ctx, w.node)
}

// CreateTrade starts a new trade in the Created status.
func (w *Workflow) CreateTrade(sellerID, buyerID string, amount int64, price float64) (*Trade, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, fault.Wrapf(fault.ErrInvalidPrice, "CreateTrade", "price must be finite, got %v", price)
	}

	t, err := newTrade(sellerID, buyerID, amount, decimal.NewFromFloat(price))
	if err != nil {
		return nil, err
	}

	w.metrics.tradesCreated.Inc()

	w.log.Infof("Trade created: %v", t.id)

	return t, nil
}

// IssueFeeInvoice requests an invoice for the marketplace fee of t and
// moves it to FeeInvoiced. On failure t is left untouched.
func (w *Workflow) IssueFeeInvoice(ctx context.Context, t *Trade) (*Trade, error) {
	const op = "IssueFeeInvoice"

	if t == nil {
		return nil, fault.Wrapf(fault.ErrInvalidState, op, "no trade")
	}

	if !w.node.IsConnected() {
		w.metrics.feeInvoices.WithLabelValues(resultFailed).Inc()
		w.log.Errorf("Could not create fee invoice for trade %v: not connected to lightning node", t.id)
		return nil, fault.Wrap(fault.ErrFeeInvoiceFailed, op, fault.New(fault.ErrNotConnected, op))
	}

	if t.status != Created {
		return nil, fault.Wrapf(fault.ErrInvalidState, op,
			"trade %v is %v, want %v", t.id, t.status, Created)
	}

	fee := CalculateFee(t.amount, w.feeRate)

	w.log.Infof("Calculated fee: %v for trade amount: %v", btcutil.Amount(fee), btcutil.Amount(t.amount))

	// lnd reads a zero value as an open amount invoice
	if fee <= 0 {
		w.metrics.feeInvoices.WithLabelValues(resultFailed).Inc()
		return nil, fault.Wrap(fault.ErrFeeInvoiceFailed, op,
			fault.Wrapf(fault.ErrInvalidAmount, op, "fee for %d sat rounds to zero", t.amount))
	}

	invoice, err := w.node.AddInvoice(ctx, fee, w.memo)
	w.metrics.feeInvoices.WithLabelValues(result(err)).Inc()
	if err != nil {
		w.log.Errorf("Could not create fee invoice for trade %v: %v", t.id, err)
		return nil, fault.Wrap(fault.ErrFeeInvoiceFailed, op, err)
	}

	if err := t.invoiced(fee, invoice.PaymentRequest); err != nil {
		return nil, err
	}

	w.log.Infof("Fee invoice for trade %v: %v", t.id, invoice.PaymentRequest)

	return t, nil
}

// SettleFee pays the fee invoice of t and moves it to FeePaid. On failure
// t stays FeeInvoiced.
func (w *Workflow) SettleFee(ctx context.Context, t *Trade) (*Trade, error) {
	const op = "SettleFee"

	if t == nil {
		return nil, fault.Wrapf(fault.ErrInvalidState, op, "no trade")
	}

	if err := t.canSettle(); err != nil {
		return nil, err
	}

	payment, err := w.node.PayInvoice(ctx, t.feeInvoice)
	w.metrics.feePayments.WithLabelValues(result(err)).Inc()
	if err != nil {
		w.log.Errorf("Could not pay fee of trade %v: %v", t.id, err)
		return nil, fault.Wrap(fault.ErrFeePaymentFailed, op, err)
	}

	if err := t.paid(payment.Hash); err != nil {
		return nil, err
	}

	w.metrics.feesSettled.Add(float64(t.fee))

	w.log.Infof("Fee of trade %v successfully paid via lightning", t.id)
	w.log.Infof("Payment hash: %v", payment.Hash)

	return t, nil
}
