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
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sdcio/netconf-txn/pkg/interfaces"
	"github.com/sdcio/netconf-txn/pkg/metrics"
	"github.com/sdcio/netconf-txn/pkg/netconf"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
	"github.com/sdcio/netconf-txn/pkg/transaction"
)

type Config struct {
	Devices     []*DeviceConfig    `yaml:"devices,omitempty" json:"devices,omitempty"`
	SSH         *SSHConfig         `yaml:"ssh,omitempty" json:"ssh,omitempty"`
	Transaction *TransactionConfig `yaml:"transaction,omitempty" json:"transaction,omitempty"`
	Prometheus  *PromConfig        `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
}

type PromConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

type TransactionConfig struct {
	ConfirmTimeout    time.Duration `yaml:"confirm-timeout,omitempty" json:"confirm-timeout,omitempty"`
	StabilizationWait time.Duration `yaml:"stabilization-wait,omitempty" json:"stabilization-wait,omitempty"`
	// run validate on the candidate before commit-confirmed
	Validate bool `yaml:"validate,omitempty" json:"validate,omitempty"`
	// how often each address removal is sent
	RemovalPasses       int      `yaml:"removal-passes,omitempty" json:"removal-passes,omitempty"`
	RequireCapabilities []string `yaml:"require-capabilities,omitempty" json:"require-capabilities,omitempty"`
	// number of devices worked on in parallel, 0 means all
	MaxConcurrency int     `yaml:"max-concurrency,omitempty" json:"max-concurrency,omitempty"`
	Steps          []*Step `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Step lists the interface edits for one device.
type Step struct {
	Device string             `yaml:"device,omitempty" json:"device,omitempty"`
	Edits  []*interfaces.Edit `yaml:"edits,omitempty" json:"edits,omitempty"`
}

func New(file string) (*Config, error) {
	c := new(Config)
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		err = yaml.UnmarshalStrict(b, c)
		if err != nil {
			return nil, err
		}
	}
	err := c.validateSetDefaults()
	return c, err
}

func (c *Config) validateSetDefaults() error {
	if c.SSH == nil {
		c.SSH = &SSHConfig{}
	}
	if err := c.SSH.validateSetDefaults(); err != nil {
		return err
	}
	var errs []error
	devices := map[string]*DeviceConfig{}
	for _, d := range c.Devices {
		if err := d.validateSetDefaults(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := devices[d.Name]; ok {
			errs = append(errs, fmt.Errorf("device %s defined twice", d.Name))
			continue
		}
		devices[d.Name] = d
	}
	if c.Transaction == nil {
		c.Transaction = &TransactionConfig{}
	}
	errs = append(errs, c.Transaction.validateSetDefaults(devices))
	return errors.Join(errs...)
}

func (t *TransactionConfig) validateSetDefaults(devices map[string]*DeviceConfig) error {
	if t.ConfirmTimeout <= 0 {
		t.ConfirmTimeout = defaultConfirmTimeout
	}
	if t.StabilizationWait <= 0 {
		t.StabilizationWait = defaultStabilizationWait
	}
	if t.RemovalPasses <= 0 {
		t.RemovalPasses = defaultRemovalPasses
	}
	if t.RequireCapabilities == nil {
		t.RequireCapabilities = []string{rpc.CapabilityCandidate, rpc.CapabilityConfirmedCommit}
	}
	if t.MaxConcurrency < 0 {
		return fmt.Errorf("negative max-concurrency %d", t.MaxConcurrency)
	}

	var errs []error
	for i, s := range t.Steps {
		d, ok := devices[s.Device]
		if !ok {
			errs = append(errs, fmt.Errorf("step %d: unknown device %q", i, s.Device))
			continue
		}
		if len(s.Edits) == 0 {
			errs = append(errs, fmt.Errorf("step %d: device %s has no edits", i, s.Device))
		}
		for _, e := range s.Edits {
			if err := e.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("step %d: device %s: %w", i, s.Device, err))
			}
		}
		ct := t.ConfirmTimeout
		if d.ConfirmTimeout > 0 {
			ct = d.ConfirmTimeout
		}
		if t.StabilizationWait >= ct {
			errs = append(errs, fmt.Errorf("device %s: stabilization-wait %s must be shorter than confirm-timeout %s",
				s.Device, t.StabilizationWait, ct))
		}
	}
	return errors.Join(errs...)
}

// Plan builds the transaction of all steps. Devices take part in the order
// they are defined in, devices without steps are left out. Mixed edits are
// split so that address removals are sent first.
func (c *Config) Plan() (*transaction.Plan, error) {
	if len(c.Transaction.Steps) == 0 {
		return nil, errors.New("transaction has no steps")
	}
	changes := map[string][]transaction.Change{}
	for _, s := range c.Transaction.Steps {
		for _, e := range s.Edits {
			for _, part := range e.Split() {
				changes[s.Device] = append(changes[s.Device], part)
			}
		}
	}
	p := &transaction.Plan{
		ConfirmTimeout:      c.Transaction.ConfirmTimeout,
		StabilizationWait:   c.Transaction.StabilizationWait,
		ValidateCandidate:   c.Transaction.Validate,
		RemovalPasses:       c.Transaction.RemovalPasses,
		RequireCapabilities: c.Transaction.RequireCapabilities,
	}
	for _, d := range c.Devices {
		ch, ok := changes[d.Name]
		if !ok {
			continue
		}
		p.Devices = append(p.Devices, &transaction.DevicePlan{
			Name:           d.Name,
			Changes:        ch,
			ConfirmTimeout: d.ConfirmTimeout,
		})
	}
	return p, p.Validate()
}

// Endpoints returns how to reach every configured device. All devices share
// the host key policy and the metrics.
func (c *Config) Endpoints(m *metrics.Metrics) (map[string]*transaction.Endpoint, error) {
	hostKeyCallback, err := transport.HostKeyCallback(c.SSH.HostKeyPolicy, c.SSH.KnownHostsFile)
	if err != nil {
		return nil, err
	}
	eps := make(map[string]*transaction.Endpoint, len(c.Devices))
	for _, d := range c.Devices {
		eps[d.Name] = &transaction.Endpoint{
			Transport: &transport.Options{
				Address:         d.Address,
				Port:            int(d.Port),
				Username:        d.Credentials.Username,
				Password:        d.Credentials.Password,
				Timeout:         c.SSH.ConnectTimeout,
				HostKeyCallback: hostKeyCallback,
			},
			Session: []netconf.SessionOption{
				netconf.WithDebug(d.Debug),
				netconf.WithRPCTimeout(c.SSH.RPCTimeout),
				netconf.WithMaxMessageSize(c.SSH.MaxMessageSize),
				netconf.WithMetrics(m),
			},
		}
	}
	return eps, nil
}
