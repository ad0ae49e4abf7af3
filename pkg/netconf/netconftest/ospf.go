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

package netconftest

import (
	"sort"

	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/adjacency"
)

// OSPFOperData builds Cisco-IOS-XE ospf-oper-data with one area holding an
// interface per key of neighbors. An empty neighbor id leaves the interface
// without neighbor.
func OSPFOperData(neighbors map[string]string) *etree.Element {
	root := etree.NewElement("ospf-oper-data")
	root.CreateAttr("xmlns", adjacency.OSPFNamespace)
	inst := root.CreateElement("ospfv2-instance")
	inst.CreateElement("instance-id").SetText("1")
	area := inst.CreateElement("ospfv2-area")
	area.CreateElement("area-id").SetText("0")

	names := make([]string, 0, len(neighbors))
	for n := range neighbors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		intf := area.CreateElement("ospfv2-interface")
		intf.CreateElement("name").SetText(n)
		if id := neighbors[n]; id != "" {
			nbr := intf.CreateElement("ospfv2-neighbor")
			nbr.CreateElement("nbr-id").SetText(id)
			nbr.CreateElement("state").SetText("ospf-nbr-full")
		}
	}
	return root
}
