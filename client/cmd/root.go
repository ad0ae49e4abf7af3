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

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/sdcio/netconf-txn/pkg/config"
	"github.com/sdcio/netconf-txn/pkg/netconf"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

var configFile string
var deviceName string
var format string
var debug bool
var raw bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ncctl",
	Short: "inspect devices of a netconf-txn configuration",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
		switch format {
		case formatTable, formatYAML:
			return nil
		}
		return fmt.Errorf("unknown format %q, must be %s or %s", format, formatTable, formatYAML)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "device name as defined in the config file")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "", formatTable, "print format, 'table' or 'yaml'")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every exchanged message")
	rootCmd.PersistentFlags().BoolVar(&raw, "raw", false, "print the rpc-reply as received")
}

// openSession connects to the device selected with --device.
func openSession(ctx context.Context) (*netconf.Session, error) {
	if deviceName == "" {
		return nil, fmt.Errorf("missing --device")
	}
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, err
	}
	eps, err := cfg.Endpoints(nil)
	if err != nil {
		return nil, err
	}
	ep, ok := eps[deviceName]
	if !ok {
		return nil, fmt.Errorf("device %q is not defined in %s", deviceName, configFile)
	}
	opts := ep.Session
	if debug {
		opts = append(opts, netconf.WithDebug(true))
	}
	return netconf.Dial(ctx, deviceName, ep.Transport, opts...)
}

func printYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func printTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}
