package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/tradefee/api"
	"github.com/the-lightning-land/tradefee/node"
	"github.com/the-lightning-land/tradefee/trade"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// Date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// tradefeedMain is the true entry point for tradefeed. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func tradefeedMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig(os.Args[1:])
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	// The lightning node that invoices and pays trade fees
	var n node.Node

	switch cfg.Node {
	case "lnd":
		n = node.NewLndNode(&node.LndNodeConfig{
			LndDir:   cfg.Lnd.Dir,
			Host:     cfg.Lnd.Host,
			Port:     cfg.Lnd.Port,
			Chain:    cfg.Lnd.Chain,
			Networks: []string{cfg.Lnd.Network, cfg.Lnd.FallbackNetwork},
			Logger:   log.WithField("system", "node"),
		})

		log.Infof("Created lnd node for %v:%v.", cfg.Lnd.Host, cfg.Lnd.Port)
	case "mock":
		n = node.NewMockNode(&node.MockNodeConfig{
			Balance: cfg.Mock.Balance,
			Logger:  log.WithField("system", "node"),
		})

		log.Info("Created a mock node.")
	default:
		return errors.Errorf("Unknown node type %v", cfg.Node)
	}

	defer func() {
		err := n.Stop()
		if err != nil {
			log.Errorf("Could not properly stop node: %v", err)
		} else {
			log.Info("Stopped node.")
		}
	}()

	registry := prometheus.NewRegistry()

	workflow := trade.NewWorkflow(&trade.Config{
		Node:       n,
		Memo:       cfg.Fee.Memo,
		FeeRate:    cfg.feeRate,
		Registerer: registry,
		Logger:     log.WithField("system", "trade"),
	})

	// A failed connection is not fatal, the api keeps reporting it
	conn := workflow.Connect(context.Background())
	if conn.Connected {
		log.Infof("Connected to lightning node: %v", workflow.GetNodeSummary(context.Background()))
	} else {
		log.Warnf("Running without lightning node: %v", conn.Err)
	}

	a := api.New(&api.Config{
		Workflow: workflow,
		Gatherer: registry,
		Log:      log.WithField("system", "api"),
	})

	log.Infof("Created API")

	lis, err := net.Listen("tcp", cfg.Api.Listen)
	if err != nil {
		return errors.Errorf("API server unable to listen on %v: %v", cfg.Api.Listen, err)
	}

	errs := make(chan error, 1)

	go func() {
		log.Infof("Serving API on %v", lis.Addr())
		errs <- a.Serve(lis)
	}()

	// Handle interrupt signals correctly
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signals:
		log.Info(sig)
		log.Info("Received an interrupt, stopping tradefeed...")
	case err := <-errs:
		if err != nil {
			return errors.Errorf("Failed serving API: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = a.Shutdown(ctx)
	if err != nil {
		log.Errorf("Could not properly shut down API: %v", err)
	} else {
		log.Info("Stopped API.")
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := tradefeedMain(); err != nil {
		log.WithError(err).Println("Failed running tradefeed.")
		os.Exit(1)
	}
}
