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
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	// TagDataMissing is reported when a delete targets data that does not exist.
	TagDataMissing = "data-missing"
)

var ErrUnexpectedMessage = errors.New("unexpected message")

// RPCError is a single <rpc-error> returned by the peer.
type RPCError struct {
	Type     string
	Tag      string
	Severity string
	AppTag   string
	Path     string
	Message  string
	// Info is the raw <error-info> content.
	Info string
}

func (e *RPCError) Error() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "rpc-error type=%s tag=%s severity=%s", e.Type, e.Tag, e.Severity)
	if e.AppTag != "" {
		fmt.Fprintf(sb, " app-tag=%s", e.AppTag)
	}
	if e.Path != "" {
		fmt.Fprintf(sb, " path=%s", e.Path)
	}
	if e.Message != "" {
		fmt.Fprintf(sb, ": %s", e.Message)
	}
	return sb.String()
}

// Errors aggregates several rpc-errors of one reply.
type Errors []*RPCError

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap allows errors.As to reach the individual rpc-errors.
func (es Errors) Unwrap() []error {
	errs := make([]error, 0, len(es))
	for _, e := range es {
		errs = append(errs, e)
	}
	return errs
}

// MessageIDMismatchError is returned when a reply does not answer the request just sent.
type MessageIDMismatchError struct {
	Want string
	Got  string
}

func (e *MessageIDMismatchError) Error() string {
	return fmt.Sprintf("protocol violation: reply message-id %q does not match request message-id %q", e.Got, e.Want)
}

// IsDataMissing reports whether err carries only rpc-errors that describe
// data which is already absent. Removing such data is an idempotent no-op.
func IsDataMissing(err error) bool {
	var es Errors
	if errors.As(err, &es) {
		for _, e := range es {
			if !isDataMissing(e) {
				return false
			}
		}
		return len(es) > 0
	}
	var re *RPCError
	if errors.As(err, &re) {
		return isDataMissing(re)
	}
	return false
}

func isDataMissing(e *RPCError) bool {
	if e.Tag == TagDataMissing {
		return true
	}
	// some devices report a missing address with a generic tag; only trust
	// the message when the error-path names the address being removed.
	if pathLeaf(e.Path) != "address" {
		return false
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}

// pathLeaf returns the last node name of an error-path, without
// predicates or namespace prefix.
func pathLeaf(path string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range path {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	path = strings.TrimRight(strings.TrimSpace(sb.String()), "/")
	leaf := path[strings.LastIndex(path, "/")+1:]
	if i := strings.LastIndex(leaf, ":"); i >= 0 {
		leaf = leaf[i+1:]
	}
	return leaf
}

func parseRPCError(e *etree.Element) *RPCError {
	re := &RPCError{
		Type:     childText(e, "error-type"),
		Tag:      childText(e, "error-tag"),
		Severity: childText(e, "error-severity"),
		AppTag:   childText(e, "error-app-tag"),
		Path:     childText(e, "error-path"),
		Message:  childText(e, "error-message"),
	}
	if info := e.SelectElement("error-info"); info != nil {
		d := etree.NewDocumentWithRoot(info.Copy())
		s, err := d.WriteToString()
		if err == nil {
			re.Info = s
		}
	}
	return re
}

func childText(e *etree.Element, tag string) string {
	c := e.SelectElement(tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}
