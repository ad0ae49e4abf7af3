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
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
)

type DeviceConfig struct {
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
	Port    uint32 `yaml:"port,omitempty" json:"port,omitempty"`
	// Device credentials
	Credentials *Creds `yaml:"credentials,omitempty" json:"credentials,omitempty"`
	// log every exchanged message at info level
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`
	// overrides transaction.confirm-timeout for this device
	ConfirmTimeout time.Duration `yaml:"confirm-timeout,omitempty" json:"confirm-timeout,omitempty"`
}

type Creds struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

func (d *DeviceConfig) validateSetDefaults() error {
	if d.Name == "" {
		return errors.New("device without name")
	}
	if d.Address == "" {
		return fmt.Errorf("device %s: missing address", d.Name)
	}
	if d.Port == 0 {
		d.Port = defaultNCPort
	}
	if d.Port > 65535 {
		return fmt.Errorf("device %s: invalid port %d", d.Name, d.Port)
	}
	if d.Credentials == nil || d.Credentials.Username == "" {
		return fmt.Errorf("device %s: missing username", d.Name)
	}
	if d.ConfirmTimeout < 0 {
		return fmt.Errorf("device %s: negative confirm-timeout", d.Name)
	}
	return nil
}

type SSHConfig struct {
	// one of insecure-accept, accept-new, strict
	HostKeyPolicy  transport.HostKeyPolicy `yaml:"host-key-policy,omitempty" json:"host-key-policy,omitempty"`
	KnownHostsFile string                  `yaml:"known-hosts-file,omitempty" json:"known-hosts-file,omitempty"`
	// bounds TCP connect, SSH handshake and authentication
	ConnectTimeout time.Duration `yaml:"connect-timeout,omitempty" json:"connect-timeout,omitempty"`
	// bounds the wait for each reply
	RPCTimeout     time.Duration `yaml:"rpc-timeout,omitempty" json:"rpc-timeout,omitempty"`
	MaxMessageSize int           `yaml:"max-message-size,omitempty" json:"max-message-size,omitempty"`
}

func (s *SSHConfig) validateSetDefaults() error {
	if s.HostKeyPolicy == "" {
		s.HostKeyPolicy = defaultHostKeyPolicy
	}
	if err := s.HostKeyPolicy.Validate(); err != nil {
		return err
	}
	if s.KnownHostsFile == "" {
		s.KnownHostsFile = defaultKnownHostsFile
	}
	var err error
	s.KnownHostsFile, err = homedir.Expand(s.KnownHostsFile)
	if err != nil {
		return fmt.Errorf("known-hosts-file: %w", err)
	}
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = defaultConnectTimeout
	}
	if s.RPCTimeout <= 0 {
		s.RPCTimeout = defaultRPCTimeout
	}
	if s.MaxMessageSize < 0 {
		return fmt.Errorf("negative max-message-size %d", s.MaxMessageSize)
	}
	return nil
}
