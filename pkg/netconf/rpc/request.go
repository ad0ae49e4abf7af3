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

const (
	NcBase1_0 = "urn:ietf:params:xml:ns:netconf:base:1.0"
)

// Datastore names a configuration datastore on the device.
type Datastore string

const (
	Running   Datastore = "running"
	Candidate Datastore = "candidate"
	Startup   Datastore = "startup"
)

func (d Datastore) validate() error {
	switch d {
	case Running, Candidate, Startup:
		return nil
	case "":
		return fmt.Errorf("missing datastore")
	}
	return fmt.Errorf("unknown datastore %q", string(d))
}

// ErrorOption is the edit-config error-option. Only rollback-on-error is
// accepted: a single edit-config is either applied completely or not at all.
type ErrorOption string

const (
	RollbackOnError ErrorOption = "rollback-on-error"
)

// Request is one NETCONF operation. The set of implementations is closed;
// each variant carries only the fields legal for its operation.
type Request interface {
	// Operation returns the element name of the operation inside <rpc>.
	Operation() string
	// Validate reports whether the request can be put on the wire.
	Validate() error

	appendTo(rpc *etree.Element)
}

// Filter is a subtree filter as used by get and get-config.
type Filter struct {
	Subtree []*etree.Element
}

// NewSubtreeFilter returns a filter selecting the top-level element tag in namespace ns.
func NewSubtreeFilter(tag, ns string) *Filter {
	e := etree.NewElement(tag)
	if ns != "" {
		e.CreateAttr("xmlns", ns)
	}
	return &Filter{Subtree: []*etree.Element{e}}
}

func (f *Filter) appendTo(parent *etree.Element) {
	if f == nil || len(f.Subtree) == 0 {
		return
	}
	fe := parent.CreateElement("filter")
	fe.CreateAttr("type", "subtree")
	for _, e := range f.Subtree {
		fe.AddChild(e.Copy())
	}
}

type DiscardChanges struct{}

func (DiscardChanges) Operation() string { return "discard-changes" }
func (DiscardChanges) Validate() error   { return nil }
func (r DiscardChanges) appendTo(rpc *etree.Element) {
	rpc.CreateElement(r.Operation())
}

type Lock struct {
	Target Datastore
}

func (Lock) Operation() string { return "lock" }
func (r Lock) Validate() error { return r.Target.validate() }
func (r Lock) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("target").CreateElement(string(r.Target))
}

type Unlock struct {
	Target Datastore
}

func (Unlock) Operation() string { return "unlock" }
func (r Unlock) Validate() error { return r.Target.validate() }
func (r Unlock) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("target").CreateElement(string(r.Target))
}

type GetConfig struct {
	Source Datastore
	Filter *Filter
}

func (GetConfig) Operation() string { return "get-config" }
func (r GetConfig) Validate() error { return r.Source.validate() }
func (r GetConfig) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("source").CreateElement(string(r.Source))
	r.Filter.appendTo(op)
}

// Get retrieves operational state and configuration.
type Get struct {
	Filter *Filter
}

func (Get) Operation() string { return "get" }
func (Get) Validate() error   { return nil }
func (r Get) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	r.Filter.appendTo(op)
}

// EditConfig applies Config, the children of the <config> element, to Target.
type EditConfig struct {
	Target      Datastore
	ErrorOption ErrorOption
	Config      []*etree.Element
}

func (EditConfig) Operation() string { return "edit-config" }
func (r EditConfig) Validate() error {
	if err := r.Target.validate(); err != nil {
		return err
	}
	if r.ErrorOption != RollbackOnError {
		return fmt.Errorf("unsupported error-option %q", string(r.ErrorOption))
	}
	if len(r.Config) == 0 {
		return fmt.Errorf("edit-config without config")
	}
	return nil
}
func (r EditConfig) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("target").CreateElement(string(r.Target))
	op.CreateElement("error-option").SetText(string(r.ErrorOption))
	cfg := op.CreateElement("config")
	for _, e := range r.Config {
		cfg.AddChild(e.Copy())
	}
}

type Validate struct {
	Source Datastore
}

func (Validate) Operation() string { return "validate" }
func (r Validate) Validate() error { return r.Source.validate() }
func (r Validate) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("source").CreateElement(string(r.Source))
}

// Commit is a plain commit. Issued while a confirmed commit is pending it
// makes the change permanent and cancels the revert timer.
type Commit struct{}

func (Commit) Operation() string { return "commit" }
func (Commit) Validate() error   { return nil }
func (r Commit) appendTo(rpc *etree.Element) {
	rpc.CreateElement(r.Operation())
}

// CommitConfirmed commits the candidate and starts a revert timer of
// TimeoutSeconds on the device.
type CommitConfirmed struct {
	TimeoutSeconds uint32
}

func (CommitConfirmed) Operation() string { return "commit" }
func (r CommitConfirmed) Validate() error {
	if r.TimeoutSeconds == 0 {
		return fmt.Errorf("confirm-timeout must be greater than zero")
	}
	return nil
}
func (r CommitConfirmed) appendTo(rpc *etree.Element) {
	op := rpc.CreateElement(r.Operation())
	op.CreateElement("confirmed")
	op.CreateElement("confirm-timeout").SetText(strconv.FormatUint(uint64(r.TimeoutSeconds), 10))
}

type CloseSession struct{}

func (CloseSession) Operation() string { return "close-session" }
func (CloseSession) Validate() error   { return nil }
func (r CloseSession) appendTo(rpc *etree.Element) {
	rpc.CreateElement(r.Operation())
}
