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

package netconf

import (
	"context"

	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
)

// Dial opens the netconf subsystem on the device described by opts and
// completes the hello exchange. Any failure is a *ConnectivityError.
func Dial(ctx context.Context, name string, opts *transport.Options, sopts ...SessionOption) (*Session, error) {
	conn, err := transport.Dial(ctx, opts)
	if err != nil {
		return nil, &ConnectivityError{Device: name, Operation: "connect", Err: err}
	}
	s := NewSession(name, conn, sopts...)
	if err = s.Hello(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
