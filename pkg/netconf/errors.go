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
	"errors"
	"fmt"
)

var (
	ErrNotConnected = errors.New("session not connected")
	ErrClosed       = errors.New("session closed")
)

// ConnectivityError is returned when the device cannot be reached, the
// transport breaks or a reply does not arrive in time. Raw carries whatever
// partial output was received before the failure.
type ConnectivityError struct {
	Device    string
	Operation string
	Raw       []byte
	Err       error
}

func (e *ConnectivityError) Error() string {
	if len(e.Raw) > 0 {
		return fmt.Sprintf("device %s: %s: connectivity failure: %v (partial output: %q)", e.Device, e.Operation, e.Err, e.Raw)
	}
	return fmt.Sprintf("device %s: %s: connectivity failure: %v", e.Device, e.Operation, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// OperationError is returned when the device answers with rpc-errors or the
// reply violates the protocol.
type OperationError struct {
	Device    string
	Operation string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("device %s: %s failed: %v", e.Device, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// StateError is returned when an operation is attempted in a session state
// that does not allow it.
type StateError struct {
	Device    string
	Operation string
	State     State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("device %s: %s not allowed in state %s", e.Device, e.Operation, e.State)
}

func (e *StateError) Unwrap() error {
	if e.State == StateClosed {
		return ErrClosed
	}
	return ErrNotConnected
}
