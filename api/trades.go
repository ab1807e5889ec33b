package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/the-lightning-land/tradefee/trade"
)

type postTradeRequest struct {
	SellerId string  `json:"sellerId"`
	BuyerId  string  `json:"buyerId"`
	Amount   int64   `json:"amount"`
	Price    float64 `json:"price"`
}

type tradeResponse struct {
	Id             string          `json:"id"`
	SellerId       string          `json:"sellerId"`
	BuyerId        string          `json:"buyerId"`
	Amount         int64           `json:"amount"`
	Price          decimal.Decimal `json:"price"`
	CreatedAt      time.Time       `json:"createdAt"`
	Status         string          `json:"status"`
	Fee            int64           `json:"fee,omitempty"`
	FeeInvoice     string          `json:"feeInvoice,omitempty"`
	FeePaid        bool            `json:"feePaid"`
	FeePaymentHash string          `json:"feePaymentHash,omitempty"`
}

func newTradeResponse(t *trade.Trade) *tradeResponse {
	return &tradeResponse{
		Id:             t.ID(),
		SellerId:       t.SellerID(),
		BuyerId:        t.BuyerID(),
		Amount:         t.Amount(),
		Price:          t.Price(),
		CreatedAt:      t.CreatedAt(),
		Status:         t.Status().String(),
		Fee:            t.Fee(),
		FeeInvoice:     t.FeeInvoice(),
		FeePaid:        t.FeePaid(),
		FeePaymentHash: t.FeePaymentHash(),
	}
}

func (a *Api) handlePostTrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := postTradeRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.SellerId == "" || req.BuyerId == "" {
			a.jsonError(w, "sellerId and buyerId are required", http.StatusBadRequest)
			return
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		t, err := a.workflow.CreateTrade(req.SellerId, req.BuyerId, req.Amount, req.Price)
		if err != nil {
			a.faultError(w, err)
			return
		}

		a.trades[t.ID()] = t

		a.log.Infof("Created trade %v", t.ID())

		a.jsonResponse(w, newTradeResponse(t), http.StatusCreated)
	}
}

func (a *Api) handleGetTrade() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		t, ok := a.trades[mux.Vars(r)["id"]]
		if !ok {
			a.jsonError(w, "trade not found", http.StatusNotFound)
			return
		}

		a.jsonResponse(w, newTradeResponse(t), http.StatusOK)
	}
}

func (a *Api) handlePostInvoice() http.HandlerFunc {
	return a.handleTransition(a.workflow.IssueFeeInvoice)
}

func (a *Api) handlePostSettle() http.HandlerFunc {
	return a.handleTransition(a.workflow.SettleFee)
}

// handleTransition runs a workflow transition on the trade named in the
// path and responds with the trade as it is afterwards.
func (a *Api) handleTransition(
	transition func(ctx context.Context, t *trade.Trade) (*trade.Trade, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		t, ok := a.trades[mux.Vars(r)["id"]]
		if !ok {
			a.jsonError(w, "trade not found", http.StatusNotFound)
			return
		}

		// a payment lnd completes after the client went away must still
		// settle the trade, so transitions ignore request cancellation
		_, err := transition(context.Background(), t)
		if err != nil {
			a.log.Errorf("Trade %v: %v", t.ID(), err)
			a.faultError(w, err)
			return
		}

		a.jsonResponse(w, newTradeResponse(t), http.StatusOK)
	}
}
