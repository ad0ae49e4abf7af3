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
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sdcio/netconf-txn/pkg/adjacency"
)

// neighborsCmd represents the neighbors command
var neighborsCmd = &cobra.Command{
	Use:          "neighbors",
	Short:        "show the established OSPF neighbors of a device",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		rsp, err := s.Get(ctx, adjacency.OSPFFilter())
		if err != nil {
			return err
		}
		if raw {
			fmt.Fprintln(cmd.OutOrStdout(), rsp.DocAsString(true))
			return nil
		}
		snap, err := adjacency.ExtractOSPF(rsp)
		if err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), snap)
	},
}

func init() {
	rootCmd.AddCommand(neighborsCmd)
}

func printSnapshot(w io.Writer, snap adjacency.Snapshot) error {
	if format == formatYAML {
		return printYAML(w, snap)
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	data := make([][]string, 0, len(names))
	for _, name := range names {
		data = append(data, []string{name, snap[name]})
	}
	printTable(w, []string{"Interface", "Neighbor"}, data)
	return nil
}
