// Copyright 2026 cloudygreybeard
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudygreybeard/xbel/pkg/adapter"
)

func newAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered input and output adapters",
		Long:  `Lists all registered input (import source) and output (export format) adapters.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Input Adapters (import sources):")
			fmt.Fprintln(w)
			for _, inp := range adapter.AllInputs() {
				status := "not available"
				if inp.Available() {
					status = "available"
				}
				fmt.Fprintf(w, "  %-12s %-20s [%s]\n", inp.Name(), inp.DisplayName(), status)
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, "Output Adapters (export formats):")
			fmt.Fprintln(w)
			for _, out := range adapter.AllOutputs() {
				fmt.Fprintf(w, "  %-12s %-20s %v\n", out.Name(), out.DisplayName(), out.Extensions())
			}
			return nil
		},
	}
}
