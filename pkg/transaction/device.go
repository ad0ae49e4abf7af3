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

package transaction

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sdcio/netconf-txn/pkg/netconf"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
)

// Device is the session to one device as driven by the Orchestrator.
type Device interface {
	Name() string
	HasCapability(uri string) bool
	DiscardChanges(ctx context.Context) (*rpc.Reply, error)
	Lock(ctx context.Context, target rpc.Datastore) (*rpc.Reply, error)
	Unlock(ctx context.Context, target rpc.Datastore) (*rpc.Reply, error)
	Get(ctx context.Context, filter *rpc.Filter) (*rpc.Reply, error)
	EditConfig(ctx context.Context, target rpc.Datastore, config ...*etree.Element) (*rpc.Reply, error)
	Validate(ctx context.Context, source rpc.Datastore) (*rpc.Reply, error)
	CommitConfirmed(ctx context.Context, timeoutSeconds uint32) (*rpc.Reply, error)
	Commit(ctx context.Context) (*rpc.Reply, error)
	// Close ends the session gracefully.
	Close(ctx context.Context) error
	// Terminate drops the session without sending anything.
	Terminate() error
}

var _ Device = (*netconf.Session)(nil)

// Connector opens the session to the named device, hello exchange included.
type Connector func(ctx context.Context, name string) (Device, error)

// Endpoint is how to reach one device over SSH.
type Endpoint struct {
	Transport *transport.Options
	Session   []netconf.SessionOption
}

// DialConnector returns a Connector dialing the endpoints by device name.
func DialConnector(endpoints map[string]*Endpoint) Connector {
	return func(ctx context.Context, name string) (Device, error) {
		ep, ok := endpoints[name]
		if !ok {
			return nil, fmt.Errorf("unknown device %q", name)
		}
		s, err := netconf.Dial(ctx, name, ep.Transport, ep.Session...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
