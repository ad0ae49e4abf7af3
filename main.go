// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/sdcio/netconf-txn/pkg/config"
	"github.com/sdcio/netconf-txn/pkg/metrics"
	"github.com/sdcio/netconf-txn/pkg/server"
	"github.com/sdcio/netconf-txn/pkg/transaction"
)

var configFile string
var debug bool
var trace bool
var logJSON bool

var versionFlag bool
var version = "dev"
var commit = ""

func main() {
	pflag.StringVarP(&configFile, "config", "c", "", "config file path")
	pflag.BoolVarP(&debug, "debug", "d", false, "set log level to DEBUG")
	pflag.BoolVarP(&trace, "trace", "t", false, "set log level to TRACE")
	pflag.BoolVarP(&versionFlag, "version", "v", false, "print version")
	pflag.BoolVar(&logJSON, "log-json", false, "log in JSON format")
	pflag.Parse()

	if versionFlag {
		fmt.Println(version + "-" + commit)
		return
	}

	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	if trace {
		log.SetLevel(log.TraceLevel)
	}
	if logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.Infof("netconf-txn bootstrap version=%s commit=%s log-level=%s", version, commit, log.GetLevel())

	cfg, err := config.New(configFile)
	if err != nil {
		log.Errorf("failed to read config: %v", err)
		os.Exit(1)
	}
	if log.IsLevelEnabled(log.DebugLevel) {
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			log.Errorf("failed to marshal config: %v", err)
			os.Exit(1)
		}
		log.Debugf("read config: %s", b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupCloseHandler(cancel)

	os.Exit(run(ctx, cfg))
}

func run(ctx context.Context, cfg *config.Config) int {
	m := metrics.New()
	if cfg.Prometheus != nil && cfg.Prometheus.Address != "" {
		s, err := server.New(cfg.Prometheus, m)
		if err != nil {
			log.Errorf("failed to create metrics server: %v", err)
			return 1
		}
		go func() {
			if err := s.Serve(ctx); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	plan, err := cfg.Plan()
	if err != nil {
		log.Errorf("invalid transaction: %v", err)
		return 1
	}
	eps, err := cfg.Endpoints(m)
	if err != nil {
		log.Errorf("failed to set up ssh: %v", err)
		return 1
	}

	o := transaction.New(transaction.DialConnector(eps),
		transaction.WithMetrics(m),
		transaction.WithMaxConcurrency(cfg.Transaction.MaxConcurrency),
	)
	res, err := o.Run(ctx, plan)
	res.Report(os.Stdout)
	if err != nil {
		log.Errorf("transaction failed: %v", err)
		return 1
	}
	return 0
}

func setupCloseHandler(cancelFn context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-c
		fmt.Fprintf(os.Stderr, "\nreceived signal '%s'. closing sessions...\n", sig.String())
		// confirmed commits already sent revert on the devices by themselves
		cancelFn()
	}()
}
