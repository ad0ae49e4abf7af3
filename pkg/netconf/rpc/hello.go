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

package rpc

import (
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"
)

const (
	CapabilityBase1_0         = "urn:ietf:params:netconf:base:1.0"
	CapabilityCandidate       = "urn:ietf:params:netconf:capability:candidate:1.0"
	CapabilityConfirmedCommit = "urn:ietf:params:netconf:capability:confirmed-commit:1.0"
	// CapabilityConfirmedCommit1_1 is advertised by base:1.1 capable servers.
	CapabilityConfirmedCommit1_1 = "urn:ietf:params:netconf:capability:confirmed-commit:1.1"
)

// Hello is the capability exchange message sent by both ends when a session starts.
type Hello struct {
	SessionID    string
	Capabilities []string
}

// HasCapability reports whether uri, optionally followed by parameters, was advertised.
func (h *Hello) HasCapability(uri string) bool {
	return slices.ContainsFunc(h.Capabilities, func(c string) bool {
		return c == uri || strings.HasPrefix(c, uri+"?")
	})
}

// EncodeHello renders a <hello> advertising caps. The session-id is only
// set by servers.
func EncodeHello(h *Hello) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	hello := doc.CreateElement("hello")
	hello.CreateAttr("xmlns", NcBase1_0)
	capsElem := hello.CreateElement("capabilities")
	for _, c := range h.Capabilities {
		capsElem.CreateElement("capability").SetText(c)
	}
	if h.SessionID != "" {
		hello.CreateElement("session-id").SetText(h.SessionID)
	}
	return doc.WriteToBytes()
}

// DecodeHello parses a <hello> message.
func DecodeHello(msg []byte) (*Hello, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg); err != nil {
		return nil, fmt.Errorf("failed to parse hello: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "hello" {
		return nil, fmt.Errorf("%w: expected hello, got %s", ErrUnexpectedMessage, rootTag(root))
	}
	h := &Hello{
		SessionID: childText(root, "session-id"),
	}
	if caps := root.SelectElement("capabilities"); caps != nil {
		for _, c := range caps.SelectElements("capability") {
			h.Capabilities = append(h.Capabilities, strings.TrimSpace(c.Text()))
		}
	}
	return h, nil
}
