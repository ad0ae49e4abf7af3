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
	"github.com/beevik/etree"
)

// Reply is a decoded <rpc-reply>. Exactly one of the success payload
// (OK or Data) and Errors is populated.
type Reply struct {
	MessageID string
	OK        bool
	// Data is the <data> element of get and get-config replies.
	Data *etree.Element
	// Errors holds the rpc-errors with severity error.
	Errors []*RPCError
	// Warnings holds the rpc-errors with severity warning, which do not fail the operation.
	Warnings []*RPCError
	Doc      *etree.Document
}

// Failed returns true if the reply carries at least one rpc-error with severity error.
func (r *Reply) Failed() bool {
	return r != nil && len(r.Errors) > 0
}

// Err returns the error payload of the reply, or nil for a success reply.
func (r *Reply) Err() error {
	if !r.Failed() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// DocAsString returns the raw reply document.
func (r *Reply) DocAsString(indented bool) string {
	if r == nil || r.Doc == nil {
		return ""
	}
	doc := r.Doc.Copy()
	if indented {
		doc.Indent(2)
	} else {
		doc.Unindent()
	}
	s, _ := doc.WriteToString()
	return s
}
