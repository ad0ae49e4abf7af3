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
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdcio/netconf-txn/pkg/interfaces"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

var source string

// getConfigCmd represents the get-config command
var getConfigCmd = &cobra.Command{
	Use:          "get-config",
	Short:        "show the interface configuration of a device",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		rsp, err := s.GetConfig(ctx, rpc.Datastore(source), interfaces.Filter())
		if err != nil {
			return err
		}
		if raw {
			fmt.Fprintln(cmd.OutOrStdout(), rsp.DocAsString(true))
			return nil
		}
		return printInterfaces(cmd.OutOrStdout(), interfaces.Parse(rsp))
	},
}

func init() {
	rootCmd.AddCommand(getConfigCmd)

	getConfigCmd.Flags().StringVarP(&source, "source", "s", string(rpc.Running), "datastore to read, running, candidate or startup")
}

func printInterfaces(w io.Writer, ifs []interfaces.Interface) error {
	if format == formatYAML {
		return printYAML(w, ifs)
	}
	data := make([][]string, 0, len(ifs))
	for _, intf := range ifs {
		enabled := ""
		if intf.Enabled != nil {
			enabled = fmt.Sprint(*intf.Enabled)
		}
		addrs := make([]string, 0, len(intf.Addresses))
		for _, a := range intf.Addresses {
			addrs = append(addrs, a.IP+"/"+a.Netmask)
		}
		data = append(data, []string{intf.Name, intf.Description, enabled, strings.Join(addrs, "\n")})
	}
	printTable(w, []string{"Name", "Description", "Enabled", "Address(es)"}, data)
	return nil
}
