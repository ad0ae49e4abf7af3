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

// Package netconftest provides an in-memory NETCONF peer with candidate and
// running datastores, a candidate lock and a confirmed-commit revert timer.
package netconftest

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/netconf/framing"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

type CommitState string

const (
	CommitIdle      CommitState = "idle"
	CommitPending   CommitState = "pending"
	CommitCommitted CommitState = "committed"
	CommitReverted  CommitState = "reverted"
)

// defaultConfirmTimeout is the RFC 6241 default when confirm-timeout is omitted.
const defaultConfirmTimeout = 600

type Call struct {
	MessageID string
	Operation string
	// Confirmed is set for commits carrying <confirmed/>.
	Confirmed bool
}

// Server is a single-session NETCONF peer. Exported fields must be set
// before Connect or Serve.
type Server struct {
	SessionID    string
	Capabilities []string
	// TimeUnit is the duration of one confirm-timeout second.
	TimeUnit time.Duration
	// RequireLock rejects edits to an unlocked candidate.
	RequireLock bool
	// StrictRemove reports data-missing for remove operations on absent
	// data, like some device implementations do.
	StrictRemove bool
	// Hook runs for every rpc before it is applied. A returned error with
	// severity warning is attached to the reply, any other error replaces it.
	Hook func(op *etree.Element) *rpc.RPCError
	// ReplyMessageID rewrites the message-id echoed in replies.
	ReplyMessageID func(id string) string

	mu          sync.Mutex
	running     *etree.Element
	candidate   *etree.Element
	rollback    *etree.Element
	operational []*etree.Element
	locked      bool
	state       CommitState
	timer       *time.Timer
	calls       []Call
	clientHello *rpc.Hello
	done        chan struct{}
}

func NewServer() *Server {
	return &Server{
		SessionID: "1",
		Capabilities: []string{
			rpc.CapabilityBase1_0,
			rpc.CapabilityCandidate,
			rpc.CapabilityConfirmedCommit,
		},
		TimeUnit:    time.Second,
		RequireLock: true,
		running:     etree.NewElement("config"),
		candidate:   etree.NewElement("config"),
		state:       CommitIdle,
		done:        make(chan struct{}),
	}
}

// Connect serves a new session over an in-memory pipe and returns the
// client end. The client end is closed when the test ends.
func (s *Server) Connect(t testing.TB) io.ReadWriteCloser {
	client, server := net.Pipe()
	go s.Serve(server)
	t.Cleanup(func() { client.Close() })
	return client
}

// Done is closed once Serve returns.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Serve runs the session on conn until the client closes the session or the
// stream. Dropping the session reverts a pending confirmed commit.
func (s *Server) Serve(conn io.ReadWriteCloser) error {
	defer close(s.done)
	defer conn.Close()
	defer s.sessionEnded()

	hello, err := rpc.EncodeHello(&rpc.Hello{SessionID: s.SessionID, Capabilities: s.Capabilities})
	if err != nil {
		return err
	}
	if err = framing.Write(conn, hello); err != nil {
		return err
	}
	sc := framing.NewScanner(conn, framing.DefaultMaxMessageSize)
	msg, err := sc.Next()
	if err != nil {
		return err
	}
	ch, err := rpc.DecodeHello(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.clientHello = ch
	s.mu.Unlock()

	for {
		msg, err := sc.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		id, op, err := rpc.DecodeRequest(msg)
		if err != nil {
			return err
		}
		reply, err := s.reply(id, op)
		if err != nil {
			return err
		}
		if err = framing.Write(conn, reply); err != nil {
			return err
		}
		if op.Tag == "close-session" {
			return nil
		}
	}
}

func (s *Server) reply(id string, op *etree.Element) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{
		MessageID: id,
		Operation: op.Tag,
		Confirmed: op.Tag == "commit" && op.SelectElement("confirmed") != nil,
	})
	s.mu.Unlock()

	var data *etree.Element
	var rerrs []*rpc.RPCError
	var hookErr *rpc.RPCError
	if s.Hook != nil {
		hookErr = s.Hook(op)
	}
	switch {
	case hookErr != nil && hookErr.Severity != rpc.SeverityWarning:
		rerrs = append(rerrs, hookErr)
	default:
		if hookErr != nil {
			rerrs = append(rerrs, hookErr)
		}
		var rerr *rpc.RPCError
		data, rerr = s.handle(op)
		if rerr != nil {
			rerrs = append(rerrs, rerr)
		}
	}

	if s.ReplyMessageID != nil {
		id = s.ReplyMessageID(id)
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	r := doc.CreateElement("rpc-reply")
	r.CreateAttr("message-id", id)
	r.CreateAttr("xmlns", rpc.NcBase1_0)
	failed := false
	for _, e := range rerrs {
		r.AddChild(rpcErrorElement(e))
		failed = failed || e.Severity != rpc.SeverityWarning
	}
	switch {
	case failed:
	case data != nil:
		r.AddChild(data)
	default:
		r.CreateElement("ok")
	}
	return doc.WriteToBytes()
}

func (s *Server) handle(op *etree.Element) (*etree.Element, *rpc.RPCError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch op.Tag {
	case "lock":
		if s.locked {
			return nil, &rpc.RPCError{Type: "protocol", Tag: "lock-denied", Severity: rpc.SeverityError, Message: "lock already held"}
		}
		s.locked = true
	case "unlock":
		if !s.locked {
			return nil, &rpc.RPCError{Type: "protocol", Tag: "operation-failed", Severity: rpc.SeverityError, Message: "lock not held"}
		}
		s.locked = false
	case "discard-changes":
		s.candidate = s.running.Copy()
	case "get-config":
		store := s.running
		if src := op.FindElement("source/candidate"); src != nil {
			store = s.candidate
		}
		return dataElement(store.ChildElements(), op.SelectElement("filter")), nil
	case "get":
		return dataElement(s.operational, op.SelectElement("filter")), nil
	case "edit-config":
		if op.FindElement("target/candidate") == nil {
			return nil, &rpc.RPCError{Type: "protocol", Tag: "operation-not-supported", Severity: rpc.SeverityError, Message: "only the candidate datastore is writable"}
		}
		if s.RequireLock && !s.locked {
			return nil, &rpc.RPCError{Type: "protocol", Tag: "access-denied", Severity: rpc.SeverityError, Message: "candidate datastore is not locked"}
		}
		cfg := op.SelectElement("config")
		if cfg == nil {
			return nil, &rpc.RPCError{Type: "protocol", Tag: "missing-element", Severity: rpc.SeverityError, Message: "missing config"}
		}
		// rollback-on-error: edits land on a copy that replaces the candidate on success
		work := s.candidate.Copy()
		if rerr := merge(work, cfg, s.StrictRemove); rerr != nil {
			return nil, rerr
		}
		s.candidate = work
	case "validate":
	case "commit":
		if op.SelectElement("confirmed") != nil {
			timeout := defaultConfirmTimeout
			if t := op.SelectElement("confirm-timeout"); t != nil {
				v, err := strconv.Atoi(t.Text())
				if err != nil || v <= 0 {
					return nil, &rpc.RPCError{Type: "protocol", Tag: "invalid-value", Severity: rpc.SeverityError, Message: "invalid confirm-timeout"}
				}
				timeout = v
			}
			if s.state != CommitPending {
				s.rollback = s.running.Copy()
			}
			if s.timer != nil {
				s.timer.Stop()
			}
			s.running = s.candidate.Copy()
			s.state = CommitPending
			s.timer = time.AfterFunc(time.Duration(timeout)*s.TimeUnit, s.confirmTimeout)
			return nil, nil
		}
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.running = s.candidate.Copy()
		s.rollback = nil
		s.state = CommitCommitted
	case "close-session":
	default:
		return nil, &rpc.RPCError{Type: "protocol", Tag: "operation-not-supported", Severity: rpc.SeverityError, Message: op.Tag + " is not supported"}
	}
	return nil, nil
}

func (s *Server) confirmTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == CommitPending {
		s.revertLocked()
	}
}

func (s *Server) sessionEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
	if s.state == CommitPending {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.revertLocked()
	}
}

func (s *Server) revertLocked() {
	s.running = s.rollback
	s.candidate = s.rollback.Copy()
	s.rollback = nil
	s.timer = nil
	s.state = CommitReverted
}

// SetOperational replaces the data returned by get.
func (s *Server) SetOperational(elems ...*etree.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operational = elems
}

// SetRunning replaces both datastores with a copy of cfg's children.
func (s *Server) SetRunning(cfg ...*etree.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = etree.NewElement("config")
	for _, e := range cfg {
		s.running.AddChild(e.Copy())
	}
	s.candidate = s.running.Copy()
}

// Running returns a copy of the running datastore root.
func (s *Server) Running() *etree.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.Copy()
}

// Candidate returns a copy of the candidate datastore root.
func (s *Server) Candidate() *etree.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate.Copy()
}

func (s *Server) CommitState() CommitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// ClientHello returns the hello received from the client.
func (s *Server) ClientHello() *rpc.Hello {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientHello
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Operations returns the operation names received, in order.
func (s *Server) Operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		op := c.Operation
		if c.Confirmed {
			op = "commit-confirmed"
		}
		ops = append(ops, op)
	}
	return ops
}

// CallCount returns how often op was received. Confirmed commits are counted
// as "commit-confirmed", not as "commit".
func (s *Server) CallCount(op string) int {
	n := 0
	for _, o := range s.Operations() {
		if o == op {
			n++
		}
	}
	return n
}

func dataElement(elems []*etree.Element, filter *etree.Element) *etree.Element {
	data := etree.NewElement("data")
	for _, e := range elems {
		if filter != nil && !filterSelects(filter, e) {
			continue
		}
		data.AddChild(e.Copy())
	}
	return data
}

// filterSelects matches top level elements by tag and namespace only.
func filterSelects(filter, e *etree.Element) bool {
	for _, f := range filter.ChildElements() {
		if f.Tag == e.Tag && f.SelectAttrValue("xmlns", "") == e.SelectAttrValue("xmlns", "") {
			return true
		}
	}
	return false
}

func rpcErrorElement(e *rpc.RPCError) *etree.Element {
	re := etree.NewElement("rpc-error")
	add := func(tag, val string) {
		if val != "" {
			re.CreateElement(tag).SetText(val)
		}
	}
	add("error-type", e.Type)
	add("error-tag", e.Tag)
	add("error-severity", e.Severity)
	add("error-app-tag", e.AppTag)
	add("error-path", e.Path)
	add("error-message", e.Message)
	return re
}
