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

package config

import (
	"time"

	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
)

const (
	defaultNCPort = 830

	defaultHostKeyPolicy  = transport.HostKeyAcceptNew
	defaultKnownHostsFile = "~/.ssh/known_hosts"
	defaultConnectTimeout = 15 * time.Second
	defaultRPCTimeout     = 2 * time.Minute

	defaultConfirmTimeout    = 30 * time.Second
	defaultStabilizationWait = 15 * time.Second
	defaultRemovalPasses     = 1
)
