package trade

// Status is the position of a trade in the fee workflow. Statuses only
// ever move forward.
type Status int

const (
	Created Status = iota
	FeeInvoiced
	FeePaid
)

func (s Status) String() string {
	switch s {
	case Created:
		return "CREATED"
	case FeeInvoiced:
		return "FEE_INVOICED"
	case FeePaid:
		return "FEE_PAID"
	default:
		return "INVALID STATUS"
	}
}
