package api

import (
	"net/http"
)

type getNodeResponse struct {
	Connected bool   `json:"connected"`
	Summary   string `json:"summary"`
	Balance   int64  `json:"balance"`
}

func (a *Api) handleGetNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()

		res := &getNodeResponse{
			Connected: a.workflow.GetConnectionStatus(),
			Summary:   a.workflow.GetNodeSummary(r.Context()),
			Balance:   a.workflow.GetWalletBalance(r.Context()),
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}
