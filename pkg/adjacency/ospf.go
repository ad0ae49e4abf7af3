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

// Package adjacency turns routing protocol operational state into snapshots
// that can be compared before and after a change.
package adjacency

import (
	"fmt"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

const OSPFNamespace = "http://cisco.com/ns/yang/Cisco-IOS-XE-ospf-oper"

// path from <data> to the per interface entries
const ospfInterfacePath = "ospf-oper-data/ospfv2-instance/ospfv2-area/ospfv2-interface"

// OSPFFilter selects the OSPF operational data in a get request.
func OSPFFilter() *rpc.Filter {
	return rpc.NewSubtreeFilter("ospf-oper-data", OSPFNamespace)
}

// ExtractOSPF maps every interface with an established OSPF neighbor to the
// neighbor's router id in dotted form. Interfaces without an established
// neighbor are omitted. Several neighbors on one interface are recorded as
// their sorted, comma separated ids. A reply without OSPF data yields an
// empty snapshot.
func ExtractOSPF(reply *rpc.Reply) (Snapshot, error) {
	snap := Snapshot{}
	if reply == nil || reply.Data == nil {
		return snap, nil
	}
	for _, intf := range reply.Data.FindElements(ospfInterfacePath) {
		name := ""
		if n := intf.SelectElement("name"); n != nil {
			name = strings.TrimSpace(n.Text())
		}
		var ids []string
		for _, nbr := range intf.SelectElements("ospfv2-neighbor") {
			if !established(nbr.SelectElement("state")) {
				continue
			}
			idElem := nbr.SelectElement("nbr-id")
			if idElem == nil {
				continue
			}
			id, err := NormalizeRouterID(idElem.Text())
			if err != nil {
				return nil, fmt.Errorf("interface %s: %w", name, err)
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("ospf interface without name has neighbors %v", ids)
		}
		sort.Strings(ids)
		snap[name] = strings.Join(ids, ",")
	}
	return snap, nil
}

// neighbors without a reported state are taken as established
func established(state *etree.Element) bool {
	if state == nil {
		return true
	}
	return strings.Contains(strings.ToLower(state.Text()), "full")
}

// NormalizeRouterID renders a router id given either as dotted quad or as
// an unsigned 32 bit integer in dotted form.
func NormalizeRouterID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}).String(), nil
	}
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return "", fmt.Errorf("invalid router id %q", s)
	}
	return a.String(), nil
}
