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
	"github.com/spf13/cobra"

	"github.com/sdcio/netconf-txn/pkg/xmlconv"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:          "convert",
	Short:        "read XML until an empty line and print it as YAML",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return xmlconv.Run(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
