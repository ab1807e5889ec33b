package node

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/the-lightning-land/tradefee/fault"
)

const (
	DefaultChain           = "bitcoin"
	DefaultNetwork         = "testnet"
	DefaultFallbackNetwork = "regtest"

	tlsCertFilename  = "tls.cert"
	macaroonFilename = "admin.macaroon"
)

// DefaultLndDir is where lnd keeps its data unless told otherwise.
var DefaultLndDir = btcutil.AppDataDir("lnd", false)

// Credentials are the files needed to authenticate against lnd.
type Credentials struct {
	CertPath     string
	MacaroonPath string
	Network      string
}

// MacaroonPath returns the admin macaroon location for a chain and network
// below an lnd directory.
func MacaroonPath(lndDir, chain, network string) string {
	return filepath.Join(lndDir, "data", "chain", chain, network, macaroonFilename)
}

// LocateCredentials finds the tls certificate and admin macaroon below
// lndDir. Networks are tried in order and the first one that has a
// macaroon wins.
func LocateCredentials(lndDir, chain string, networks ...string) (*Credentials, error) {
	const op = "LocateCredentials"

	certPath := filepath.Join(lndDir, tlsCertFilename)
	if !fileExists(certPath) {
		return nil, fault.Wrapf(fault.ErrCredentialsNotFound, op,
			"tls certificate not found at %v", certPath)
	}

	for _, network := range networks {
		if network == "" {
			continue
		}

		macaroonPath := MacaroonPath(lndDir, chain, network)
		if fileExists(macaroonPath) {
			return &Credentials{
				CertPath:     certPath,
				MacaroonPath: macaroonPath,
				Network:      network,
			}, nil
		}
	}

	return nil, fault.Wrapf(fault.ErrCredentialsNotFound, op,
		"no admin macaroon for %v networks %v in %v", chain, networks, lndDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
