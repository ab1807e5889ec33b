package fault_test

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/tradefee/fault"
)

func TestErrorMatchesKindAndCause(t *testing.T) {
	cause := fault.New(fault.ErrNotConnected, "AddInvoice")
	err := fault.Wrap(fault.ErrFeeInvoiceFailed, "IssueFeeInvoice", cause)

	require.True(t, fault.Is(err, fault.ErrFeeInvoiceFailed))
	require.True(t, fault.Is(err, fault.ErrNotConnected))
	require.False(t, fault.Is(err, fault.ErrPaymentRejected))
	require.Equal(t, fault.ErrFeeInvoiceFailed, fault.KindOf(err))
	require.Equal(t,
		"IssueFeeInvoice: fee invoice failed: AddInvoice: not connected",
		err.Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind fault.Kind
	}{
		{
			name: "nil",
			err:  nil,
			kind: "",
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			kind: "",
		},
		{
			name: "bare_kind",
			err:  fault.ErrInvalidState,
			kind: fault.ErrInvalidState,
		},
		{
			name: "wrapped",
			err:  fault.Wrapf(fault.ErrNodeRequestFailed, "DecodeInvoice", "invalid index %d", 3),
			kind: fault.ErrNodeRequestFailed,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, fault.KindOf(tt.err))
		})
	}
}
