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

// Package netconf implements a NETCONF 1.0 client session: hello exchange,
// strictly ordered request/reply correlation and the datastore operations.
package netconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/beevik/etree"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/netconf-txn/pkg/metrics"
	"github.com/sdcio/netconf-txn/pkg/netconf/framing"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type SessionOption func(*Session)

// WithDebug logs every message exchanged with the device at info level
// instead of debug level.
func WithDebug(b bool) SessionOption {
	return func(s *Session) {
		s.debug = b
	}
}

// WithRPCTimeout bounds the time waited for each reply, including the hello.
// Zero leaves the bound to the caller's context.
func WithRPCTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.rpcTimeout = d
	}
}

func WithMaxMessageSize(n int) SessionOption {
	return func(s *Session) {
		s.maxMessageSize = n
	}
}

func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is one NETCONF session with one device. At most one request is
// outstanding at any time; replies are matched to requests by message-id.
type Session struct {
	name           string
	debug          bool
	rpcTimeout     time.Duration
	maxMessageSize int
	metrics        *metrics.Metrics
	logger         *log.Entry

	m         sync.Mutex
	rwc       io.ReadWriteCloser
	scanner   *framing.Scanner
	state     State
	messageID uint64
	peer      *rpc.Hello
}

// NewSession wraps an open transport. The session starts disconnected, call
// Hello to exchange capabilities before issuing operations.
func NewSession(name string, rwc io.ReadWriteCloser, opts ...SessionOption) *Session {
	s := &Session{
		name:           name,
		rwc:            rwc,
		maxMessageSize: framing.DefaultMaxMessageSize,
		logger:         log.WithField("device", name),
	}
	for _, o := range opts {
		o(s)
	}
	s.scanner = framing.NewScanner(rwc, s.maxMessageSize)
	return s
}

func (s *Session) Name() string { return s.name }

func (s *Session) State() State {
	s.m.Lock()
	defer s.m.Unlock()
	return s.state
}

// SessionID returns the session-id assigned by the device in its hello.
func (s *Session) SessionID() string {
	s.m.Lock()
	defer s.m.Unlock()
	if s.peer == nil {
		return ""
	}
	return s.peer.SessionID
}

// Capabilities returns the capabilities advertised by the device.
func (s *Session) Capabilities() []string {
	s.m.Lock()
	defer s.m.Unlock()
	if s.peer == nil {
		return nil
	}
	return append([]string(nil), s.peer.Capabilities...)
}

func (s *Session) HasCapability(uri string) bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.peer != nil && s.peer.HasCapability(uri)
}

// MessageID returns the last message-id sent, zero before the first request.
func (s *Session) MessageID() uint64 {
	s.m.Lock()
	defer s.m.Unlock()
	return s.messageID
}

// Hello reads the device hello and answers with a hello advertising
// base:1.0 only.
func (s *Session) Hello(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.state != StateDisconnected {
		return &StateError{Device: s.name, Operation: "hello", State: s.state}
	}
	clientHello, err := rpc.EncodeHello(&rpc.Hello{Capabilities: []string{rpc.CapabilityBase1_0}})
	if err != nil {
		return err
	}

	var peer *rpc.Hello
	err = s.roundTrip(ctx, func() error {
		msg, err := s.scanner.Next()
		if err != nil {
			return err
		}
		s.logMessage("received hello", msg)
		peer, err = rpc.DecodeHello(msg)
		if err != nil {
			return err
		}
		if !peer.HasCapability(rpc.CapabilityBase1_0) {
			return fmt.Errorf("device does not advertise %s", rpc.CapabilityBase1_0)
		}
		s.logMessage("sending hello", clientHello)
		return framing.Write(s.rwc, clientHello)
	})
	if err != nil {
		s.terminateLocked()
		return &ConnectivityError{Device: s.name, Operation: "hello", Raw: s.scanner.Buffered(), Err: err}
	}
	s.peer = peer
	s.state = StateConnected
	s.logger.Infof("session %s established, %d capabilities", peer.SessionID, len(peer.Capabilities))
	return nil
}

// Do sends req with the next message-id and waits for its reply. A reply
// carrying rpc-errors is returned together with an *OperationError.
func (s *Session) Do(ctx context.Context, req rpc.Request) (*rpc.Reply, error) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.doLocked(ctx, req)
}

func (s *Session) doLocked(ctx context.Context, req rpc.Request) (*rpc.Reply, error) {
	op := operationName(req)
	if s.state != StateConnected {
		return nil, &StateError{Device: s.name, Operation: op, State: s.state}
	}
	// validate before allocating so rejected requests leave no gap in message-ids
	if err := req.Validate(); err != nil {
		return nil, &OperationError{Device: s.name, Operation: op, Err: err}
	}
	s.messageID++
	msg, err := rpc.Encode(s.messageID, req)
	if err != nil {
		return nil, &OperationError{Device: s.name, Operation: op, Err: err}
	}
	want := fmt.Sprint(s.messageID)

	start := time.Now()
	var raw []byte
	err = s.roundTrip(ctx, func() error {
		s.logMessage("sending rpc", msg)
		if err := framing.Write(s.rwc, msg); err != nil {
			return err
		}
		raw, err = s.scanner.Next()
		return err
	})
	if err != nil {
		s.terminateLocked()
		s.metrics.ObserveRPC(s.name, op, metrics.ResultConnectivity, time.Since(start))
		return nil, &ConnectivityError{Device: s.name, Operation: op, Raw: s.scanner.Buffered(), Err: err}
	}
	s.logMessage("received rpc-reply", raw)

	reply, err := rpc.Decode(raw)
	if err == nil && reply.MessageID != want {
		err = &rpc.MessageIDMismatchError{Want: want, Got: reply.MessageID}
	}
	if err != nil {
		// the stream can no longer be trusted to be in step with our requests
		s.terminateLocked()
		s.metrics.ObserveRPC(s.name, op, metrics.ResultProtocol, time.Since(start))
		return nil, &OperationError{Device: s.name, Operation: op, Err: err}
	}
	for _, w := range reply.Warnings {
		s.logger.Warnf("%s: %v", op, w)
	}
	if reply.Failed() {
		s.metrics.ObserveRPC(s.name, op, metrics.ResultRPCError, time.Since(start))
		return reply, &OperationError{Device: s.name, Operation: op, Err: reply.Err()}
	}
	s.metrics.ObserveRPC(s.name, op, metrics.ResultOK, time.Since(start))
	return reply, nil
}

// roundTrip runs f while honoring ctx and the rpc timeout. When the wait is
// abandoned the transport is closed, which unblocks f.
func (s *Session) roundTrip(ctx context.Context, f func() error) error {
	if s.rpcTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.rpcTimeout)
		defer cancel()
	}
	done := make(chan error, 1)
	go func() {
		done <- f()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.rwc.Close()
		<-done
		return ctx.Err()
	}
}

func (s *Session) DiscardChanges(ctx context.Context) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.DiscardChanges{})
}

func (s *Session) Lock(ctx context.Context, target rpc.Datastore) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.Lock{Target: target})
}

func (s *Session) Unlock(ctx context.Context, target rpc.Datastore) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.Unlock{Target: target})
}

func (s *Session) GetConfig(ctx context.Context, source rpc.Datastore, filter *rpc.Filter) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.GetConfig{Source: source, Filter: filter})
}

func (s *Session) Get(ctx context.Context, filter *rpc.Filter) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.Get{Filter: filter})
}

// EditConfig loads config into target. The error option is always
// rollback-on-error.
func (s *Session) EditConfig(ctx context.Context, target rpc.Datastore, config ...*etree.Element) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.EditConfig{Target: target, ErrorOption: rpc.RollbackOnError, Config: config})
}

func (s *Session) Validate(ctx context.Context, source rpc.Datastore) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.Validate{Source: source})
}

func (s *Session) Commit(ctx context.Context) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.Commit{})
}

// CommitConfirmed commits the candidate and arms the device's revert timer.
// Unless Commit follows within timeoutSeconds the device reverts on its own.
func (s *Session) CommitConfirmed(ctx context.Context, timeoutSeconds uint32) (*rpc.Reply, error) {
	return s.Do(ctx, rpc.CommitConfirmed{TimeoutSeconds: timeoutSeconds})
}

// Close ends the session with close-session and tears down the transport.
// Closing a closed session is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	switch s.state {
	case StateClosed:
		return nil
	case StateDisconnected:
		s.terminateLocked()
		return nil
	}
	_, err := s.doLocked(ctx, rpc.CloseSession{})
	s.terminateLocked()
	return err
}

// Terminate closes the transport without any further message to the device.
func (s *Session) Terminate() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.state == StateClosed {
		return nil
	}
	return s.terminateLocked()
}

func (s *Session) terminateLocked() error {
	s.state = StateClosed
	err := s.rwc.Close()
	if errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

func (s *Session) logMessage(what string, msg []byte) {
	if s.debug {
		s.logger.Infof("%s:\n%s", what, msg)
		return
	}
	s.logger.Debugf("%s:\n%s", what, msg)
}

func operationName(req rpc.Request) string {
	if _, ok := req.(rpc.CommitConfirmed); ok {
		return "commit-confirmed"
	}
	return req.Operation()
}
