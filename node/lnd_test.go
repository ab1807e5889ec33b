package node

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"io/ioutil"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/tradefee/fault"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	macaroon "gopkg.in/macaroon.v2"
)

// fakeLightningClient answers the handful of rpcs LndNode uses. Calling
// any other method panics on the nil embedded interface.
type fakeLightningClient struct {
	lnrpc.LightningClient

	info       *lnrpc.GetInfoResponse
	infoErr    error
	invoiceErr error
	decoded    *lnrpc.PayReq
	decodeErr  error
	send       *lnrpc.SendResponse
	sendErr    error
	balance    *lnrpc.WalletBalanceResponse
	balanceErr error

	calls       map[string]int
	lastInvoice *lnrpc.Invoice
	lastSend    *lnrpc.SendRequest
}

func newFakeLightningClient() *fakeLightningClient {
	return &fakeLightningClient{
		info: &lnrpc.GetInfoResponse{
			Alias:   "alice",
			Version: "0.15.5-beta",
			Chains: []*lnrpc.Chain{
				{Chain: "bitcoin", Network: "testnet"},
			},
		},
		decoded: &lnrpc.PayReq{
			Destination: "02abcdef",
			NumSatoshis: 100,
		},
		send: &lnrpc.SendResponse{
			PaymentHash:     bytesOf(0x11),
			PaymentPreimage: bytesOf(0x22),
		},
		balance: &lnrpc.WalletBalanceResponse{
			TotalBalance: 250000,
		},
		calls: make(map[string]int),
	}
}

func bytesOf(b byte) []byte {
	out := make([]byte, 32)
	for i := range out {
		out[i] = b
	}
	return out
}

func (c *fakeLightningClient) GetInfo(ctx context.Context, in *lnrpc.GetInfoRequest, opts ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	c.calls["GetInfo"]++
	return c.info, c.infoErr
}

func (c *fakeLightningClient) AddInvoice(ctx context.Context, in *lnrpc.Invoice, opts ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error) {
	c.calls["AddInvoice"]++
	c.lastInvoice = in
	if c.invoiceErr != nil {
		return nil, c.invoiceErr
	}

	return &lnrpc.AddInvoiceResponse{
		PaymentRequest: "lntb1fake",
		RHash:          bytesOf(0x33),
	}, nil
}

func (c *fakeLightningClient) DecodePayReq(ctx context.Context, in *lnrpc.PayReqString, opts ...grpc.CallOption) (*lnrpc.PayReq, error) {
	c.calls["DecodePayReq"]++
	return c.decoded, c.decodeErr
}

func (c *fakeLightningClient) SendPaymentSync(ctx context.Context, in *lnrpc.SendRequest, opts ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	c.calls["SendPaymentSync"]++
	c.lastSend = in
	return c.send, c.sendErr
}

func (c *fakeLightningClient) WalletBalance(ctx context.Context, in *lnrpc.WalletBalanceRequest, opts ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error) {
	c.calls["WalletBalance"]++
	return c.balance, c.balanceErr
}

func newConnectedLndNode(client lnrpc.LightningClient) *LndNode {
	n := NewLndNode(&LndNodeConfig{})
	n.client = client
	n.connection = &Connection{Connected: true}
	return n
}

// writeLndDir lays out an lnd directory with a self signed tls cert and an
// admin macaroon for each of the given networks.
func writeLndDir(t *testing.T, networks ...string) string {
	t.Helper()

	dir := t.TempDir()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"tradefee test"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, tlsCertFilename), certPEM, 0600))

	mac, err := macaroon.New([]byte("root key"), []byte("0"), "lnd", macaroon.LatestVersion)
	require.NoError(t, err)

	macBytes, err := mac.MarshalBinary()
	require.NoError(t, err)

	for _, network := range networks {
		path := MacaroonPath(dir, DefaultChain, network)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
		require.NoError(t, ioutil.WriteFile(path, macBytes, 0600))
	}

	return dir
}

func TestLndNodeConnect(t *testing.T) {
	client := newFakeLightningClient()

	n := NewLndNode(&LndNodeConfig{
		LndDir: writeLndDir(t, "regtest"),
		Port:   10010,
	})
	n.newClient = func(conn grpc.ClientConnInterface) lnrpc.LightningClient {
		return client
	}
	defer n.Stop()

	conn, err := n.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, conn.Connected)
	require.True(t, n.IsConnected())
	require.Equal(t, "localhost:10010", conn.Endpoint)
	require.Equal(t, "regtest", conn.Credentials.Network)
	require.Equal(t, "alice", conn.Info.Alias)
	require.Equal(t, "testnet", conn.Info.Network)
	require.Equal(t, 1, client.calls["GetInfo"])

	again, err := n.Connect(context.Background())
	require.NoError(t, err)
	require.Same(t, conn, again)
	require.Equal(t, 1, client.calls["GetInfo"])

	require.NoError(t, n.Stop())
	require.False(t, n.IsConnected())
	require.False(t, conn.Connected)

	_, err = n.AddInvoice(context.Background(), 100, "fee")
	require.True(t, fault.Is(err, fault.ErrNotConnected))
	require.Zero(t, client.calls["AddInvoice"])
}

func TestLndNodeConnectFailures(t *testing.T) {
	tests := []struct {
		name     string
		networks []string
		infoErr  error
		kind     fault.Kind
		rpcs     int
	}{
		{
			name:     "no_macaroon",
			networks: nil,
			kind:     fault.ErrCredentialsNotFound,
			rpcs:     0,
		},
		{
			name:     "handshake_fails",
			networks: []string{"testnet"},
			infoErr:  status.Error(codes.Unavailable, "connection refused"),
			kind:     fault.ErrConnectionFailed,
			rpcs:     1,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			client := newFakeLightningClient()
			client.infoErr = tt.infoErr

			n := NewLndNode(&LndNodeConfig{
				LndDir: writeLndDir(t, tt.networks...),
			})
			n.newClient = func(conn grpc.ClientConnInterface) lnrpc.LightningClient {
				return client
			}

			conn, err := n.Connect(context.Background())
			require.Error(t, err)
			require.True(t, fault.Is(err, tt.kind))
			require.False(t, conn.Connected)
			require.Equal(t, err, conn.Err)
			require.False(t, n.IsConnected())

			// connection failures are permanent
			_, err = n.Connect(context.Background())
			require.True(t, fault.Is(err, tt.kind))
			require.Equal(t, tt.rpcs, client.calls["GetInfo"])

			_, err = n.AddInvoice(context.Background(), 100, "fee")
			require.True(t, fault.Is(err, fault.ErrNotConnected))
		})
	}
}

func TestLndNodeNotConnected(t *testing.T) {
	client := newFakeLightningClient()
	n := NewLndNode(&LndNodeConfig{})
	n.client = client
	ctx := context.Background()

	_, err := n.GetInfo(ctx)
	require.True(t, fault.Is(err, fault.ErrNotConnected))

	_, err = n.AddInvoice(ctx, 100, "fee")
	require.True(t, fault.Is(err, fault.ErrNotConnected))

	_, err = n.DecodeInvoice(ctx, "lntb1fake")
	require.True(t, fault.Is(err, fault.ErrNotConnected))

	_, err = n.PayInvoice(ctx, "lntb1fake")
	require.True(t, fault.Is(err, fault.ErrNotConnected))

	_, err = n.WalletBalance(ctx)
	require.True(t, fault.Is(err, fault.ErrNotConnected))

	require.Empty(t, client.calls)
	require.NoError(t, n.Stop())
}

func TestLndNodeAddInvoice(t *testing.T) {
	client := newFakeLightningClient()
	n := newConnectedLndNode(client)

	invoice, err := n.AddInvoice(context.Background(), 13, "Trading Platform Fee - 1%")
	require.NoError(t, err)
	require.Equal(t, "lntb1fake", invoice.PaymentRequest)
	require.Equal(t, hex.EncodeToString(bytesOf(0x33)), invoice.RHash)
	require.Equal(t, int64(13), client.lastInvoice.Value)
	require.Equal(t, "Trading Platform Fee - 1%", client.lastInvoice.Memo)

	client.invoiceErr = status.Error(codes.Unknown, "amount must be positive")

	_, err = n.AddInvoice(context.Background(), 13, "fee")
	require.True(t, fault.Is(err, fault.ErrNodeRequestFailed))
	require.Contains(t, err.Error(), "amount must be positive")
}

func TestLndNodePayInvoice(t *testing.T) {
	tests := []struct {
		name      string
		decodeErr error
		send      *lnrpc.SendResponse
		sendErr   error
		kind      fault.Kind
		sends     int
	}{
		{
			name: "paid",
			send: &lnrpc.SendResponse{
				PaymentHash:     bytesOf(0x11),
				PaymentPreimage: bytesOf(0x22),
			},
			sends: 1,
		},
		{
			name:  "payment_error",
			send:  &lnrpc.SendResponse{PaymentError: "unable to find a path to destination"},
			kind:  fault.ErrPaymentRejected,
			sends: 1,
		},
		{
			name:    "transport_error",
			sendErr: status.Error(codes.Unavailable, "transport is closing"),
			kind:    fault.ErrNodeRequestFailed,
			sends:   1,
		},
		{
			name:      "undecodable",
			decodeErr: status.Error(codes.Unknown, "invalid bech32 string"),
			kind:      fault.ErrNodeRequestFailed,
			sends:     0,
		},
	}

	for i := range tests {
		tt := tests[i]

		t.Run(tt.name, func(t *testing.T) {
			client := newFakeLightningClient()
			client.decodeErr = tt.decodeErr
			client.send = tt.send
			client.sendErr = tt.sendErr
			n := newConnectedLndNode(client)

			payment, err := n.PayInvoice(context.Background(), "lntb1fake")
			require.Equal(t, 1, client.calls["DecodePayReq"])
			require.Equal(t, tt.sends, client.calls["SendPaymentSync"])

			if tt.kind != "" {
				require.Error(t, err)
				require.True(t, fault.Is(err, tt.kind))
				require.Nil(t, payment)
				return
			}

			require.NoError(t, err)
			require.Equal(t, "lntb1fake", client.lastSend.PaymentRequest)
			require.Equal(t, hex.EncodeToString(bytesOf(0x11)), payment.Hash)
			require.Equal(t, hex.EncodeToString(bytesOf(0x22)), payment.Preimage)
		})
	}
}

func TestLndNodeDecodeInvoice(t *testing.T) {
	client := newFakeLightningClient()
	client.decoded = &lnrpc.PayReq{
		Destination: "03fedcba",
		PaymentHash: "aa",
		NumSatoshis: 1250,
		Description: "fee",
		Expiry:      3600,
	}
	n := newConnectedLndNode(client)

	decoded, err := n.DecodeInvoice(context.Background(), "lntb1fake")
	require.NoError(t, err)
	require.Equal(t, &DecodedInvoice{
		Destination: "03fedcba",
		PaymentHash: "aa",
		NumSatoshis: 1250,
		Description: "fee",
		Expiry:      3600,
	}, decoded)
}
