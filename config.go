package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/the-lightning-land/tradefee/node"
	"github.com/the-lightning-land/tradefee/trade"
)

const (
	defaultConfigFilename = "tradefeed.conf"
	defaultNode           = "lnd"
	defaultApiListen      = "localhost:8080"
)

var (
	defaultAppDir     = btcutil.AppDataDir("tradefeed", false)
	defaultConfigFile = filepath.Join(defaultAppDir, defaultConfigFilename)
)

type lndConfig struct {
	Dir             string `long:"dir" env:"LND_DIR" description:"The lnd directory holding tls.cert and data/chain/<chain>/<network>/admin.macaroon"`
	Host            string `long:"host" description:"The host lnd's gRPC interface listens on"`
	Port            int    `long:"port" description:"The port lnd's gRPC interface listens on"`
	Chain           string `long:"chain" description:"The chain lnd runs on"`
	Network         string `long:"network" description:"The network whose macaroon is tried first"`
	FallbackNetwork string `long:"fallbacknetwork" description:"The network whose macaroon is tried when the first one is missing"`
}

type feeConfig struct {
	Memo string `long:"memo" description:"The memo of fee invoices"`
	Rate string `long:"rate" description:"The marketplace fee as a fraction of the trade amount"`
}

type apiConfig struct {
	Listen string `long:"listen" description:"Address the http api listens on"`
}

type mockConfig struct {
	Balance int64 `long:"balance" description:"Wallet balance of the mock node in satoshis"`
}

type config struct {
	ShowVersion bool        `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string      `long:"configfile" description:"Path to configuration file"`
	Debug       bool        `long:"debug" description:"Start the daemon in debug mode"`
	Node        string      `long:"node" description:"The lightning node to use" choice:"lnd" choice:"mock"`
	Lnd         *lndConfig  `group:"lnd" namespace:"lnd"`
	Fee         *feeConfig  `group:"fee" namespace:"fee"`
	Api         *apiConfig  `group:"api" namespace:"api"`
	Mock        *mockConfig `group:"mock" namespace:"mock"`

	feeRate decimal.Decimal
}

// loadConfig reads defaults, then the config file, then the command line,
// so that later sources win.
func loadConfig(args []string) (*config, error) {
	defaultCfg := config{
		ConfigFile: defaultConfigFile,
		Node:       defaultNode,
		Lnd: &lndConfig{
			Dir:             node.DefaultLndDir,
			Host:            node.DefaultHost,
			Port:            node.DefaultPort,
			Chain:           node.DefaultChain,
			Network:         node.DefaultNetwork,
			FallbackNetwork: node.DefaultFallbackNetwork,
		},
		Fee: &feeConfig{
			Memo: trade.DefaultMemo,
			Rate: trade.DefaultFeeRate.String(),
		},
		Api: &apiConfig{
			Listen: defaultApiListen,
		},
		Mock: &mockConfig{
			Balance: 1000000,
		},
	}

	// Pre-parse the command line to find an alternative config file
	preCfg := defaultCfg
	preCfg.Lnd, preCfg.Fee, preCfg.Api, preCfg.Mock = &lndConfig{}, &feeConfig{}, &apiConfig{}, &mockConfig{}
	if _, err := flags.NewParser(&preCfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	cfg := defaultCfg
	if err := flags.IniParse(preCfg.ConfigFile, &cfg); err != nil {
		// a missing default config file is fine
		if _, ok := err.(*os.PathError); !ok || preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "could not read config file %v", preCfg.ConfigFile)
		}
	}

	if _, err := flags.NewParser(&cfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	rate, err := decimal.NewFromString(cfg.Fee.Rate)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid fee rate %v", cfg.Fee.Rate)
	}

	if !rate.IsPositive() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("fee rate must be between 0 and 1, got %v", rate)
	}

	cfg.feeRate = rate

	return &cfg, nil
}
