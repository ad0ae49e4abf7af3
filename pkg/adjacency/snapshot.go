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

package adjacency

import (
	"fmt"
	"maps"
	"sort"
)

// Snapshot maps interface names to neighbor ids at one instant.
type Snapshot map[string]string

// Mismatch is one interface whose neighbor differs between two snapshots.
// An empty Expected or Actual means no neighbor.
type Mismatch struct {
	Interface string `yaml:"interface" json:"interface"`
	Expected  string `yaml:"expected,omitempty" json:"expected,omitempty"`
	Actual    string `yaml:"actual,omitempty" json:"actual,omitempty"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Interface, orNone(m.Expected), orNone(m.Actual))
}

func orNone(s string) string {
	if s == "" {
		return "no neighbor"
	}
	return s
}

func (s Snapshot) Equal(other Snapshot) bool {
	return maps.Equal(s, other)
}

// Diff compares actual against s key for key. Missing, changed and
// unexpected entries are all reported, sorted by interface name.
func (s Snapshot) Diff(actual Snapshot) []Mismatch {
	var mm []Mismatch
	for intf, want := range s {
		if got, ok := actual[intf]; !ok || got != want {
			mm = append(mm, Mismatch{Interface: intf, Expected: want, Actual: got})
		}
	}
	for intf, got := range actual {
		if _, ok := s[intf]; !ok {
			mm = append(mm, Mismatch{Interface: intf, Actual: got})
		}
	}
	sort.Slice(mm, func(i, j int) bool { return mm[i].Interface < mm[j].Interface })
	return mm
}
