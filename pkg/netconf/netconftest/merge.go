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
	"fmt"

	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

// list entries are identified by the first of these children they carry
var listKeys = []string{"name", "ip", "id"}

// merge applies the children of edit to target, honoring the operation
// attribute (merge, replace, create, delete, remove) at any level.
func merge(target, edit *etree.Element, strictRemove bool) *rpc.RPCError {
	for _, c := range edit.ChildElements() {
		match := findMatch(target, c)
		switch op := c.SelectAttrValue("operation", "merge"); op {
		case "delete", "remove":
			if match == nil {
				if op == "delete" || strictRemove {
					return &rpc.RPCError{
						Type:     "application",
						Tag:      rpc.TagDataMissing,
						Severity: rpc.SeverityError,
						Path:     c.GetPath(),
						Message:  fmt.Sprintf("%s does not exist", describe(c)),
					}
				}
				continue
			}
			target.RemoveChild(match)
		case "create":
			if match != nil {
				return &rpc.RPCError{
					Type:     "application",
					Tag:      "data-exists",
					Severity: rpc.SeverityError,
					Message:  fmt.Sprintf("%s already exists", describe(c)),
				}
			}
			target.AddChild(stripOperations(c.Copy()))
		case "replace":
			if match != nil {
				target.RemoveChild(match)
			}
			target.AddChild(stripOperations(c.Copy()))
		case "merge":
			switch {
			case match == nil:
				target.AddChild(stripOperations(c.Copy()))
			case len(c.ChildElements()) == 0:
				match.SetText(c.Text())
			default:
				if err := merge(match, c, strictRemove); err != nil {
					return err
				}
			}
		default:
			return &rpc.RPCError{
				Type:     "protocol",
				Tag:      "bad-attribute",
				Severity: rpc.SeverityError,
				Message:  fmt.Sprintf("unknown operation %q", op),
			}
		}
	}
	return nil
}

func findMatch(target, e *etree.Element) *etree.Element {
	key, val, keyed := listKey(e)
	for _, t := range target.SelectElements(e.Tag) {
		if !keyed {
			return t
		}
		if kc := t.SelectElement(key); kc != nil && kc.Text() == val {
			return t
		}
	}
	return nil
}

func listKey(e *etree.Element) (string, string, bool) {
	for _, k := range listKeys {
		if kc := e.SelectElement(k); kc != nil {
			return k, kc.Text(), true
		}
	}
	return "", "", false
}

func stripOperations(e *etree.Element) *etree.Element {
	e.RemoveAttr("nc:operation")
	e.RemoveAttr("operation")
	for _, c := range e.ChildElements() {
		stripOperations(c)
	}
	return e
}

func describe(e *etree.Element) string {
	if k, v, ok := listKey(e); ok {
		return fmt.Sprintf("%s[%s=%s]", e.Tag, k, v)
	}
	return e.Tag
}
