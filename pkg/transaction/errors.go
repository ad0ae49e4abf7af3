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
	"sort"
	"strings"

	"github.com/sdcio/netconf-txn/pkg/adjacency"
)

type Phase string

const (
	PhaseConnect   Phase = "connect"
	PhasePrepare   Phase = "prepare"
	PhaseBaseline  Phase = "baseline"
	PhaseEdit      Phase = "edit"
	PhaseValidate  Phase = "validate"
	PhaseConfirm   Phase = "commit-confirmed"
	PhaseStabilize Phase = "stabilize"
	PhaseVerify    Phase = "verify"
	PhaseFinalize  Phase = "commit"
)

// PhaseError is a failure of one device in one phase of the run.
type PhaseError struct {
	Phase  Phase
	Device string
	Err    error
}

func (e *PhaseError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s phase: device %s: %v", e.Phase, e.Device, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// VerificationFailure reports devices whose post change snapshot differs
// from the baseline. The final commit is withheld on every device.
type VerificationFailure struct {
	Mismatches map[string][]adjacency.Mismatch
}

func (e *VerificationFailure) Error() string {
	devices := make([]string, 0, len(e.Mismatches))
	for d := range e.Mismatches {
		devices = append(devices, d)
	}
	sort.Strings(devices)
	parts := make([]string, 0, len(devices))
	for _, d := range devices {
		mm := make([]string, 0, len(e.Mismatches[d]))
		for _, m := range e.Mismatches[d] {
			mm = append(mm, m.String())
		}
		parts = append(parts, fmt.Sprintf("%s: [%s]", d, strings.Join(mm, "; ")))
	}
	return "adjacency verification failed: " + strings.Join(parts, ", ")
}
