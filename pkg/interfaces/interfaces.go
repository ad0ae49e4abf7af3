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

// Package interfaces builds ietf-interfaces edit-config payloads and reads
// interface configuration back from get-config replies.
package interfaces

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/AlekSi/pointer"
	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

const (
	Namespace   = "urn:ietf:params:xml:ns:yang:ietf-interfaces"
	IPNamespace = "urn:ietf:params:xml:ns:yang:ietf-ip"
)

// Edit is one change to one interface. IP and Netmask add an address,
// RemoveIP removes one. Unset fields are left untouched on the device.
type Edit struct {
	Interface   string  `yaml:"interface,omitempty" json:"interface,omitempty"`
	Description *string `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     *bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	IP          string  `yaml:"ip,omitempty" json:"ip,omitempty"`
	Netmask     string  `yaml:"netmask,omitempty" json:"netmask,omitempty"`
	RemoveIP    string  `yaml:"remove-ip,omitempty" json:"remove-ip,omitempty"`
}

func (e *Edit) Validate() error {
	var errs []error
	if e.Interface == "" {
		errs = append(errs, errors.New("missing interface name"))
	}
	if (e.IP == "") != (e.Netmask == "") {
		errs = append(errs, fmt.Errorf("interface %s: ip and netmask must be set together", e.Interface))
	}
	if e.IP != "" {
		if err := validIPv4(e.IP); err != nil {
			errs = append(errs, fmt.Errorf("interface %s: ip: %w", e.Interface, err))
		}
		if err := validNetmask(e.Netmask); err != nil {
			errs = append(errs, fmt.Errorf("interface %s: netmask: %w", e.Interface, err))
		}
	}
	if e.RemoveIP != "" {
		if err := validIPv4(e.RemoveIP); err != nil {
			errs = append(errs, fmt.Errorf("interface %s: remove-ip: %w", e.Interface, err))
		}
	}
	if e.Description == nil && e.Enabled == nil && e.IP == "" && e.RemoveIP == "" {
		errs = append(errs, fmt.Errorf("interface %s: edit changes nothing", e.Interface))
	}
	return errors.Join(errs...)
}

// Removal reports whether the edit only removes an address.
func (e *Edit) Removal() bool {
	return e.RemoveIP != "" && e.Description == nil && e.Enabled == nil && e.IP == ""
}

// Split separates the address removal of a mixed edit from the rest, removal
// first. Edits that are removal-only or carry no removal are returned as is.
func (e *Edit) Split() []*Edit {
	if e.RemoveIP == "" || e.Removal() {
		return []*Edit{e}
	}
	rest := *e
	rest.RemoveIP = ""
	return []*Edit{{Interface: e.Interface, RemoveIP: e.RemoveIP}, &rest}
}

func (e *Edit) String() string {
	parts := []string{}
	if e.RemoveIP != "" {
		parts = append(parts, "remove "+e.RemoveIP)
	}
	if e.IP != "" {
		parts = append(parts, fmt.Sprintf("add %s %s", e.IP, e.Netmask))
	}
	if e.Description != nil {
		parts = append(parts, fmt.Sprintf("description %q", *e.Description))
	}
	if e.Enabled != nil {
		parts = append(parts, fmt.Sprintf("enabled %t", *e.Enabled))
	}
	return fmt.Sprintf("%s: %s", e.Interface, strings.Join(parts, ", "))
}

// Config returns the <interfaces> element to place inside edit-config's
// <config>. Removed addresses carry nc:operation="remove".
func (e *Edit) Config() *etree.Element {
	ifs := etree.NewElement("interfaces")
	ifs.CreateAttr("xmlns", Namespace)
	intf := ifs.CreateElement("interface")
	intf.CreateElement("name").SetText(e.Interface)
	if e.Description != nil {
		intf.CreateElement("description").SetText(*e.Description)
	}
	if e.Enabled != nil {
		intf.CreateElement("enabled").SetText(fmt.Sprint(*e.Enabled))
	}
	if e.IP == "" && e.RemoveIP == "" {
		return ifs
	}
	ipv4 := intf.CreateElement("ipv4")
	ipv4.CreateAttr("xmlns", IPNamespace)
	if e.RemoveIP != "" {
		addr := ipv4.CreateElement("address")
		rpc.AddOperation(addr, rpc.OperationRemove)
		addr.CreateElement("ip").SetText(e.RemoveIP)
	}
	if e.IP != "" {
		addr := ipv4.CreateElement("address")
		addr.CreateElement("ip").SetText(e.IP)
		addr.CreateElement("netmask").SetText(e.Netmask)
	}
	return ifs
}

// Filter selects the interface configuration in get-config.
func Filter() *rpc.Filter {
	return rpc.NewSubtreeFilter("interfaces", Namespace)
}

type Address struct {
	IP      string `yaml:"ip" json:"ip"`
	Netmask string `yaml:"netmask,omitempty" json:"netmask,omitempty"`
}

// Interface is the configuration of one interface as read from a device.
type Interface struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Enabled     *bool     `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Addresses   []Address `yaml:"addresses,omitempty" json:"addresses,omitempty"`
}

// Parse extracts the interfaces from a get-config reply. A reply without
// interface data yields no interfaces.
func Parse(reply *rpc.Reply) []Interface {
	if reply == nil || reply.Data == nil {
		return nil
	}
	var result []Interface
	for _, ifs := range reply.Data.SelectElements("interfaces") {
		for _, ie := range ifs.SelectElements("interface") {
			intf := Interface{Name: text(ie, "name")}
			if d := ie.SelectElement("description"); d != nil {
				intf.Description = strings.TrimSpace(d.Text())
			}
			if en := ie.SelectElement("enabled"); en != nil {
				intf.Enabled = pointer.ToBool(strings.TrimSpace(en.Text()) == "true")
			}
			if ipv4 := ie.SelectElement("ipv4"); ipv4 != nil {
				for _, a := range ipv4.SelectElements("address") {
					intf.Addresses = append(intf.Addresses, Address{IP: text(a, "ip"), Netmask: text(a, "netmask")})
				}
			}
			result = append(result, intf)
		}
	}
	return result
}

func text(e *etree.Element, tag string) string {
	if c := e.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func validIPv4(s string) error {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return err
	}
	if !a.Is4() {
		return fmt.Errorf("%s is not an IPv4 address", s)
	}
	return nil
}

func validNetmask(s string) error {
	if err := validIPv4(s); err != nil {
		return err
	}
	a := netip.MustParseAddr(s)
	if _, bits := net.IPMask(a.AsSlice()).Size(); bits == 0 {
		return fmt.Errorf("%s is not a contiguous netmask", s)
	}
	return nil
}
