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

package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyPolicy selects how unknown or changed device host keys are handled.
type HostKeyPolicy string

const (
	// HostKeyInsecureAccept accepts every host key without checking. Each
	// accepted key is logged with its fingerprint.
	HostKeyInsecureAccept HostKeyPolicy = "insecure-accept"
	// HostKeyAcceptNew trusts keys listed in the known hosts file, records keys
	// of hosts not listed yet and rejects changed keys.
	HostKeyAcceptNew HostKeyPolicy = "accept-new"
	// HostKeyStrict only trusts keys listed in the known hosts file.
	HostKeyStrict HostKeyPolicy = "strict"
)

// Validate reports whether p is a known policy.
func (p HostKeyPolicy) Validate() error {
	switch p {
	case HostKeyInsecureAccept, HostKeyAcceptNew, HostKeyStrict:
		return nil
	}
	return fmt.Errorf("unknown host-key-policy %q, must be one of %s, %s, %s",
		string(p), HostKeyInsecureAccept, HostKeyAcceptNew, HostKeyStrict)
}

// knownHostsMu serializes appends to known hosts files across concurrent dials.
var knownHostsMu sync.Mutex

// HostKeyCallback returns the ssh.HostKeyCallback implementing policy.
// knownHostsFile is required for accept-new and strict.
func HostKeyCallback(policy HostKeyPolicy, knownHostsFile string) (ssh.HostKeyCallback, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if policy == HostKeyInsecureAccept {
		return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
			log.Warnf("accepting host key %s for %s without verification", ssh.FingerprintSHA256(key), hostname)
			return nil
		}, nil
	}
	if knownHostsFile == "" {
		return nil, fmt.Errorf("host-key-policy %s requires a known hosts file", policy)
	}
	if policy == HostKeyAcceptNew {
		if err := ensureFile(knownHostsFile); err != nil {
			return nil, err
		}
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// reload per dial so keys recorded by earlier dials are seen
		check, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return err
		}
		err = check(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if policy == HostKeyAcceptNew && errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			log.Infof("recording new host key %s for %s in %s", ssh.FingerprintSHA256(key), hostname, knownHostsFile)
			return appendKnownHost(knownHostsFile, hostname, key)
		}
		return err
	}, nil
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	knownHostsMu.Lock()
	defer knownHostsMu.Unlock()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, knownhosts.Line([]string{hostname}, key))
	return err
}
