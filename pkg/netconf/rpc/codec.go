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
	"strconv"

	"github.com/beevik/etree"
)

// Encode renders req as an <rpc> document carrying messageID.
func Encode(messageID uint64, req Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s request: %w", req.Operation(), err)
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.AddChild(NewRPCElement(messageID, req))
	return doc.WriteToBytes()
}

// NewRPCElement returns the <rpc> element for req without validating it.
func NewRPCElement(messageID uint64, req Request) *etree.Element {
	rpc := etree.NewElement("rpc")
	rpc.CreateAttr("message-id", strconv.FormatUint(messageID, 10))
	rpc.CreateAttr("xmlns", NcBase1_0)
	req.appendTo(rpc)
	return rpc
}

// Decode parses an <rpc-reply> message. rpc-errors with severity error make
// the reply a failure, every other reply is a success with its payload intact.
func Decode(msg []byte) (*Reply, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg); err != nil {
		return nil, fmt.Errorf("failed to parse rpc-reply: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "rpc-reply" {
		return nil, fmt.Errorf("%w: expected rpc-reply, got %s", ErrUnexpectedMessage, rootTag(root))
	}
	reply := &Reply{
		MessageID: root.SelectAttrValue("message-id", ""),
		Doc:       doc,
	}
	for _, re := range root.SelectElements("rpc-error") {
		rpcErr := parseRPCError(re)
		switch rpcErr.Severity {
		case SeverityWarning:
			reply.Warnings = append(reply.Warnings, rpcErr)
		default:
			reply.Errors = append(reply.Errors, rpcErr)
		}
	}
	reply.OK = root.SelectElement("ok") != nil
	reply.Data = root.SelectElement("data")
	return reply, nil
}

// DecodeRequest parses an <rpc> message and returns its message-id and the operation element.
func DecodeRequest(msg []byte) (string, *etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg); err != nil {
		return "", nil, fmt.Errorf("failed to parse rpc: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "rpc" {
		return "", nil, fmt.Errorf("%w: expected rpc, got %s", ErrUnexpectedMessage, rootTag(root))
	}
	ops := root.ChildElements()
	if len(ops) != 1 {
		return "", nil, fmt.Errorf("rpc must carry exactly one operation, got %d", len(ops))
	}
	return root.SelectAttrValue("message-id", ""), ops[0], nil
}

func rootTag(e *etree.Element) string {
	if e == nil {
		return "empty document"
	}
	return e.FullTag()
}
