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
	"errors"
	"fmt"
	"time"

	"github.com/beevik/etree"
)

// Change is one edit-config payload for the candidate datastore.
type Change interface {
	Config() *etree.Element
	// Removal reports whether the change only removes data. Removals of
	// data that is already absent are tolerated.
	Removal() bool
	String() string
}

type DevicePlan struct {
	Name string
	// Changes are applied in order.
	Changes []Change
	// ConfirmTimeout overrides Plan.ConfirmTimeout when set.
	ConfirmTimeout time.Duration
}

type Plan struct {
	Devices []*DevicePlan
	// ConfirmTimeout is the revert timer armed by commit-confirmed.
	ConfirmTimeout time.Duration
	// StabilizationWait is the pause between commit-confirmed and the post
	// change snapshot. It must be shorter than every confirm timeout.
	StabilizationWait time.Duration
	// ValidateCandidate runs validate on the candidate before committing.
	ValidateCandidate bool
	// RemovalPasses is how often each removal is sent. Values below one mean once.
	RemovalPasses int
	// RequireCapabilities lists capabilities every device must advertise.
	RequireCapabilities []string
}

func (p *Plan) confirmTimeout(dp *DevicePlan) time.Duration {
	if dp.ConfirmTimeout > 0 {
		return dp.ConfirmTimeout
	}
	return p.ConfirmTimeout
}

// confirmSeconds rounds the device's confirm timeout up to whole seconds.
func (p *Plan) confirmSeconds(dp *DevicePlan) uint32 {
	d := p.confirmTimeout(dp)
	return uint32((d + time.Second - 1) / time.Second)
}

func (p *Plan) removalPasses() int {
	if p.RemovalPasses < 1 {
		return 1
	}
	return p.RemovalPasses
}

func (p *Plan) Validate() error {
	if len(p.Devices) == 0 {
		return errors.New("plan has no devices")
	}
	var errs []error
	seen := map[string]struct{}{}
	for _, dp := range p.Devices {
		if dp.Name == "" {
			errs = append(errs, errors.New("device without name"))
			continue
		}
		if _, ok := seen[dp.Name]; ok {
			errs = append(errs, fmt.Errorf("device %s listed twice", dp.Name))
		}
		seen[dp.Name] = struct{}{}
		ct := p.confirmTimeout(dp)
		if ct < time.Second {
			errs = append(errs, fmt.Errorf("device %s: confirm timeout %s is shorter than one second", dp.Name, ct))
			continue
		}
		if p.StabilizationWait >= ct {
			errs = append(errs, fmt.Errorf("device %s: stabilization wait %s must be shorter than the confirm timeout %s",
				dp.Name, p.StabilizationWait, ct))
		}
	}
	if p.StabilizationWait < 0 {
		errs = append(errs, fmt.Errorf("negative stabilization wait %s", p.StabilizationWait))
	}
	return errors.Join(errs...)
}
