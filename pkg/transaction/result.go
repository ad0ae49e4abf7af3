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

package transaction

import (
	"fmt"
	"io"

	"github.com/sdcio/netconf-txn/pkg/adjacency"
)

type Outcome string

const (
	// OutcomeCommitted means every device received and accepted the final commit.
	OutcomeCommitted Outcome = "committed"
	// OutcomeAborted means the run stopped before any commit was issued.
	OutcomeAborted Outcome = "aborted"
	// OutcomeReverting means confirmed commits were left to lapse.
	OutcomeReverting Outcome = "reverting"
	// OutcomePartial means the final commit failed on some devices only.
	OutcomePartial Outcome = "partially-committed"
)

type DeviceResult struct {
	Name       string               `yaml:"name" json:"name"`
	Baseline   adjacency.Snapshot   `yaml:"baseline,omitempty" json:"baseline,omitempty"`
	Post       adjacency.Snapshot   `yaml:"post,omitempty" json:"post,omitempty"`
	Mismatches []adjacency.Mismatch `yaml:"mismatches,omitempty" json:"mismatches,omitempty"`
	Confirmed  bool                 `yaml:"confirmed" json:"confirmed"`
	Committed  bool                 `yaml:"committed" json:"committed"`
	// Err is the last failure seen on the device.
	Err error `yaml:"-" json:"-"`
}

type Result struct {
	Outcome Outcome         `yaml:"outcome" json:"outcome"`
	Devices []*DeviceResult `yaml:"devices" json:"devices"`
}

// Report writes a human readable summary.
func (r *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "outcome: %s\n", r.Outcome)
	for _, d := range r.Devices {
		fmt.Fprintf(w, "  %s: confirmed=%t committed=%t\n", d.Name, d.Confirmed, d.Committed)
		if d.Baseline != nil {
			fmt.Fprintf(w, "    before: %v\n", d.Baseline)
		}
		if d.Post != nil {
			fmt.Fprintf(w, "     after: %v\n", d.Post)
		}
		for _, m := range d.Mismatches {
			fmt.Fprintf(w, "    mismatch %s\n", m)
		}
		if d.Err != nil {
			fmt.Fprintf(w, "    error: %v\n", d.Err)
		}
	}
}
