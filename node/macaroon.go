package node

import (
	"context"
	"encoding/hex"
	"io/ioutil"

	"github.com/go-errors/errors"
	"google.golang.org/grpc/credentials"
	macaroon "gopkg.in/macaroon.v2"
)

// Compile time check for protocol compatibility
var _ credentials.PerRPCCredentials = (*macaroonCredential)(nil)

// macaroonCredential attaches a macaroon to every rpc as lnd expects it.
type macaroonCredential struct {
	mac *macaroon.Macaroon
}

func (m macaroonCredential) RequireTransportSecurity() bool {
	return true
}

func (m macaroonCredential) GetRequestMetadata(
	ctx context.Context, uri ...string,
) (map[string]string, error) {
	macBytes, err := m.mac.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"macaroon": hex.EncodeToString(macBytes),
	}, nil
}

func loadMacaroon(path string) (*macaroon.Macaroon, error) {
	macBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read macaroon %v: %v", path, err)
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, errors.Errorf("Could not decode macaroon %v: %v", path, err)
	}

	return mac, nil
}
