package node

import (
	"context"
	"encoding/hex"
	"net"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/the-lightning-land/tradefee/fault"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 10009
)

// Compile time check for protocol compatibility
var _ Node = (*LndNode)(nil)

type LndNodeConfig struct {
	LndDir   string
	Host     string
	Port     int
	Chain    string
	Networks []string
	Logger   Logger
}

// LndNode talks to a remote lnd over its gRPC interface. It is not safe
// for concurrent use; callers serialize access.
type LndNode struct {
	lndDir     string
	chain      string
	networks   []string
	endpoint   string
	conn       *grpc.ClientConn
	client     lnrpc.LightningClient
	connection *Connection
	newClient  func(conn grpc.ClientConnInterface) lnrpc.LightningClient
	log        Logger
}

func NewLndNode(config *LndNodeConfig) *LndNode {
	node := &LndNode{
		lndDir:    config.LndDir,
		chain:     config.Chain,
		networks:  config.Networks,
		newClient: lnrpc.NewLightningClient,
	}

	if node.lndDir == "" {
		node.lndDir = DefaultLndDir
	}

	if node.chain == "" {
		node.chain = DefaultChain
	}

	if len(node.networks) == 0 {
		node.networks = []string{DefaultNetwork, DefaultFallbackNetwork}
	}

	host := config.Host
	if host == "" {
		host = DefaultHost
	}

	port := config.Port
	if port == 0 {
		port = DefaultPort
	}

	node.endpoint = net.JoinHostPort(host, strconv.Itoa(port))

	if config.Logger != nil {
		node.log = config.Logger
	} else {
		node.log = noopLogger{}
	}

	return node
}

// Connect locates credentials, dials lnd and verifies the connection with
// an info request. It only ever runs once; later calls return the first
// result.
func (r *LndNode) Connect(ctx context.Context) (*Connection, error) {
	if r.connection != nil {
		return r.connection, r.connection.Err
	}

	r.connection = &Connection{
		Endpoint: r.endpoint,
	}

	if err := r.connect(ctx); err != nil {
		r.log.Errorf("Could not connect to lnd node at %v: %v", r.endpoint, err)
		r.connection.Err = err
		return r.connection, err
	}

	r.connection.Connected = true

	return r.connection, nil
}

func (r *LndNode) connect(ctx context.Context) error {
	const op = "Connect"

	r.log.Infof("Using lnd directory %v", r.lndDir)

	creds, err := LocateCredentials(r.lndDir, r.chain, r.networks...)
	if err != nil {
		return err
	}

	r.connection.Credentials = *creds

	r.log.Debugf("Using tls certificate %v and macaroon %v", creds.CertPath, creds.MacaroonPath)

	tlsCredentials, err := credentials.NewClientTLSFromFile(creds.CertPath, "")
	if err != nil {
		return fault.Wrapf(fault.ErrConnectionFailed, op, "could not load tls cert: %v", err)
	}

	mac, err := loadMacaroon(creds.MacaroonPath)
	if err != nil {
		return fault.Wrap(fault.ErrConnectionFailed, op, err)
	}

	conn, err := grpc.Dial(r.endpoint,
		grpc.WithTransportCredentials(tlsCredentials),
		grpc.WithPerRPCCredentials(macaroonCredential{mac: mac}),
	)
	if err != nil {
		return fault.Wrapf(fault.ErrConnectionFailed, op, "could not dial %v: %v", r.endpoint, err)
	}

	client := r.newClient(conn)

	res, err := client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		_ = conn.Close()
		return fault.Wrapf(fault.ErrConnectionFailed, op, "could not get node info: %v", statusMessage(err))
	}

	r.conn = conn
	r.client = client

	info := infoFromResponse(res)
	r.connection.Info = info

	r.log.Infof("Connected to lnd node %v", info.Alias)
	r.log.Infof("lnd version %v", info.Version)
	r.log.Infof("Blockchain %v", info.Chain)
	r.log.Infof("Network %v", info.Network)

	return nil
}

func (r *LndNode) IsConnected() bool {
	return r.connection != nil && r.connection.Connected
}

func (r *LndNode) Stop() error {
	if r.connection != nil {
		r.connection.Connected = false
	}

	if r.conn == nil {
		return nil
	}

	err := r.conn.Close()
	if err != nil {
		return errors.Errorf("Could not close connection: %v", err)
	}

	r.conn = nil

	return nil
}

func (r *LndNode) GetInfo(ctx context.Context) (*Info, error) {
	const op = "GetInfo"

	if !r.IsConnected() {
		return nil, fault.New(fault.ErrNotConnected, op)
	}

	res, err := r.client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		r.log.Errorf("Could not retrieve node info: %v", err)
		return nil, nodeError(op, err)
	}

	return infoFromResponse(res), nil
}

func (r *LndNode) AddInvoice(ctx context.Context, amount int64, memo string) (*Invoice, error) {
	const op = "AddInvoice"

	if !r.IsConnected() {
		return nil, fault.New(fault.ErrNotConnected, op)
	}

	res, err := r.client.AddInvoice(ctx, &lnrpc.Invoice{
		Value: amount,
		Memo:  memo,
	})
	if err != nil {
		r.log.Errorf("Could not create invoice: %v", err)
		return nil, nodeError(op, err)
	}

	r.log.Infof("Created invoice of %v: %v", btcutil.Amount(amount), res.PaymentRequest)

	return &Invoice{
		PaymentRequest: res.PaymentRequest,
		RHash:          hex.EncodeToString(res.RHash),
	}, nil
}

func (r *LndNode) DecodeInvoice(ctx context.Context, paymentRequest string) (*DecodedInvoice, error) {
	const op = "DecodeInvoice"

	if !r.IsConnected() {
		return nil, fault.New(fault.ErrNotConnected, op)
	}

	res, err := r.client.DecodePayReq(ctx, &lnrpc.PayReqString{
		PayReq: paymentRequest,
	})
	if err != nil {
		r.log.Errorf("Could not decode invoice: %v", err)
		return nil, nodeError(op, err)
	}

	return &DecodedInvoice{
		Destination: res.Destination,
		PaymentHash: res.PaymentHash,
		NumSatoshis: res.NumSatoshis,
		Description: res.Description,
		Expiry:      res.Expiry,
	}, nil
}

// PayInvoice decodes the payment request for diagnostics and then pays it
// synchronously. A payment error reported by lnd is a rejection even
// though the rpc itself succeeded.
func (r *LndNode) PayInvoice(ctx context.Context, paymentRequest string) (*Payment, error) {
	const op = "PayInvoice"

	if !r.IsConnected() {
		r.log.Errorf("Not connected to lnd node")
		return nil, fault.New(fault.ErrNotConnected, op)
	}

	decoded, err := r.DecodeInvoice(ctx, paymentRequest)
	if err != nil {
		return nil, err
	}

	r.log.Infof("Invoice decoded: %v to %v", btcutil.Amount(decoded.NumSatoshis), decoded.Destination)

	res, err := r.client.SendPaymentSync(ctx, &lnrpc.SendRequest{
		PaymentRequest: paymentRequest,
	})
	if err != nil {
		r.log.Errorf("Could not pay invoice: %v", err)
		return nil, nodeError(op, err)
	}

	if res.PaymentError != "" {
		r.log.Errorf("Payment error: %v", res.PaymentError)
		return nil, fault.Wrap(fault.ErrPaymentRejected, op, errors.New(res.PaymentError))
	}

	payment := &Payment{
		Hash:     hashString(res.PaymentHash),
		Preimage: preimageString(res.PaymentPreimage),
	}

	r.log.Infof("Paid invoice with payment hash %v", payment.Hash)

	return payment, nil
}

func (r *LndNode) WalletBalance(ctx context.Context) (int64, error) {
	const op = "WalletBalance"

	if !r.IsConnected() {
		return 0, fault.New(fault.ErrNotConnected, op)
	}

	res, err := r.client.WalletBalance(ctx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		r.log.Errorf("Could not retrieve wallet balance: %v", err)
		return 0, nodeError(op, err)
	}

	return res.TotalBalance, nil
}

func infoFromResponse(res *lnrpc.GetInfoResponse) *Info {
	info := &Info{
		Alias:          res.Alias,
		Version:        res.Version,
		IdentityPubkey: res.IdentityPubkey,
	}

	if len(res.Chains) > 0 {
		info.Chain = res.Chains[0].Chain
		info.Network = res.Chains[0].Network
	}

	return info
}

// nodeError converts an rpc error into a node request failure carrying the
// message lnd sent.
func nodeError(op string, err error) error {
	return fault.Wrap(fault.ErrNodeRequestFailed, op, errors.New(statusMessage(err)))
}

func statusMessage(err error) string {
	if s, ok := status.FromError(err); ok {
		return s.Message()
	}

	return err.Error()
}

func hashString(b []byte) string {
	hash, err := lntypes.MakeHash(b)
	if err != nil {
		return hex.EncodeToString(b)
	}

	return hash.String()
}

func preimageString(b []byte) string {
	preimage, err := lntypes.MakePreimage(b)
	if err != nil {
		return hex.EncodeToString(b)
	}

	return preimage.String()
}
