package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/the-lightning-land/tradefee/trade"
)

// Workflow is the part of trade.Workflow the api drives.
type Workflow interface {
	CreateTrade(sellerID, buyerID string, amount int64, price float64) (*trade.Trade, error)
	IssueFeeInvoice(ctx context.Context, t *trade.Trade) (*trade.Trade, error)
	SettleFee(ctx context.Context, t *trade.Trade) (*trade.Trade, error)
	GetConnectionStatus() bool
	GetNodeSummary(ctx context.Context) string
	GetWalletBalance(ctx context.Context) int64
}

// Compile time check for protocol compatibility
var _ Workflow = (*trade.Workflow)(nil)

type Config struct {
	Workflow Workflow
	Gatherer prometheus.Gatherer
	Log      Logger
}

// Api exposes the trade fee workflow over http. The workflow is not safe
// for concurrent use, so every request that reaches it holds mu.
type Api struct {
	mu       sync.Mutex
	workflow Workflow
	trades   map[string]*trade.Trade
	router   *mux.Router
	server   *http.Server
	log      Logger
}

func New(config *Config) *Api {
	api := &Api{
		workflow: config.Workflow,
		trades:   make(map[string]*trade.Trade),
		router:   mux.NewRouter(),
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.router.Handle("/api/v1/node", api.handleGetNode()).Methods(http.MethodGet)

	api.router.Handle("/api/v1/trades", api.handlePostTrade()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/trades/{id}", api.handleGetTrade()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/trades/{id}/invoice", api.handlePostInvoice()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/trades/{id}/settle", api.handlePostSettle()).Methods(http.MethodPost)

	if config.Gatherer != nil {
		api.router.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}

	api.server = &http.Server{
		Handler: api.router,
	}

	return api
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) Serve(l net.Listener) error {
	err := a.server.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

func (a *Api) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		return errors.Errorf("Could not shut down api: %v", err)
	}

	return nil
}
