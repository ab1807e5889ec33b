package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/the-lightning-land/tradefee/fault"
)

// Trade is one peer to peer exchange between a seller and a buyer whose
// marketplace fee is settled over lightning. It is only mutated by the
// Workflow.
type Trade struct {
	id             string
	sellerID       string
	buyerID        string
	amount         int64
	price          decimal.Decimal
	createdAt      time.Time
	status         Status
	fee            int64
	feeInvoice     string
	feePaid        bool
	feePaymentHash string
}

func newTrade(sellerID, buyerID string, amount int64, price decimal.Decimal) (*Trade, error) {
	if amount <= 0 {
		return nil, fault.Wrapf(fault.ErrInvalidAmount, "CreateTrade", "amount must be positive, got %d", amount)
	}

	return &Trade{
		id:        uuid.New().String(),
		sellerID:  sellerID,
		buyerID:   buyerID,
		amount:    amount,
		price:     price,
		createdAt: time.Now(),
		status:    Created,
	}, nil
}

func (t *Trade) ID() string {
	return t.id
}

func (t *Trade) SellerID() string {
	return t.sellerID
}

func (t *Trade) BuyerID() string {
	return t.buyerID
}

// Amount is the traded amount in satoshis.
func (t *Trade) Amount() int64 {
	return t.amount
}

// Price is the quote currency price per unit.
func (t *Trade) Price() decimal.Decimal {
	return t.price
}

func (t *Trade) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Trade) Status() Status {
	return t.status
}

// Fee is the invoiced marketplace fee in satoshis, 0 before invoicing.
func (t *Trade) Fee() int64 {
	return t.fee
}

// FeeInvoice is the payment request of the fee, empty before invoicing.
func (t *Trade) FeeInvoice() string {
	return t.feeInvoice
}

func (t *Trade) FeePaid() bool {
	return t.feePaid
}

// FeePaymentHash is the hex payment hash of the settled fee.
func (t *Trade) FeePaymentHash() string {
	return t.feePaymentHash
}

// invoiced moves a created trade to FeeInvoiced.
func (t *Trade) invoiced(fee int64, paymentRequest string) error {
	if t.status != Created || t.feeInvoice != "" {
		return fault.Wrapf(fault.ErrInvalidState, "IssueFeeInvoice",
			"trade %v is %v, want %v", t.id, t.status, Created)
	}

	t.fee = fee
	t.feeInvoice = paymentRequest
	t.status = FeeInvoiced

	return nil
}

// canSettle reports whether the fee invoice of the trade can be paid.
func (t *Trade) canSettle() error {
	if t.status != FeeInvoiced || t.feeInvoice == "" {
		return fault.Wrapf(fault.ErrInvalidState, "SettleFee",
			"trade %v is %v, want %v", t.id, t.status, FeeInvoiced)
	}

	return nil
}

// paid moves an invoiced trade to FeePaid.
func (t *Trade) paid(paymentHash string) error {
	if err := t.canSettle(); err != nil {
		return err
	}

	t.feePaid = true
	t.feePaymentHash = paymentHash
	t.status = FeePaid

	return nil
}
