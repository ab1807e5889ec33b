package trade

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK     = "ok"
	resultFailed = "failed"
)

type metrics struct {
	tradesCreated prometheus.Counter
	feeInvoices   *prometheus.CounterVec
	feePayments   *prometheus.CounterVec
	feesSettled   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		tradesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradefee",
			Name:      "trades_created_total",
			Help:      "Number of trades created.",
		}),
		feeInvoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradefee",
			Name:      "fee_invoices_total",
			Help:      "Number of fee invoice requests by result.",
		}, []string{"result"}),
		feePayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tradefee",
			Name:      "fee_payments_total",
			Help:      "Number of fee payment attempts by result.",
		}, []string{"result"}),
		feesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tradefee",
			Name:      "fees_settled_sat_total",
			Help:      "Satoshis of marketplace fees settled.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.tradesCreated, m.feeInvoices, m.feePayments, m.feesSettled)
	}

	return m
}

func result(err error) string {
	if err != nil {
		return resultFailed
	}

	return resultOK
}
