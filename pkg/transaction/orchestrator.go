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

// Package transaction applies configuration changes to several devices with
// confirmed commits as safety net. Every device commits on its own, there is
// no atomicity across devices: when the change breaks OSPF adjacencies the
// final commit is withheld everywhere and each device reverts when its
// confirm timer lapses.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sdcio/netconf-txn/pkg/adjacency"
	"github.com/sdcio/netconf-txn/pkg/metrics"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

const cleanupTimeout = 30 * time.Second

type Option func(*Orchestrator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithSleep replaces the stabilization wait.
func WithSleep(f func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = f
	}
}

// WithMaxConcurrency bounds the number of devices worked on in parallel.
// Commit-confirmed is always sent to all devices at once.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.maxConcurrency = n
	}
}

type Orchestrator struct {
	connect        Connector
	metrics        *metrics.Metrics
	sleep          func(ctx context.Context, d time.Duration) error
	maxConcurrency int
}

func New(connect Connector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		connect: connect,
		sleep:   sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deviceRun is the state of one device during a run. It is only touched by
// the worker of its device.
type deviceRun struct {
	plan   *DevicePlan
	dev    Device
	locked bool
	result *DeviceResult
	log    *log.Entry
}

type step struct {
	phase Phase
	f     func(ctx context.Context, r *deviceRun) error
}

// Run executes plan. The returned Result is always set and describes what
// happened on every device, the error tells why the run did not commit.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan) (*Result, error) {
	res := &Result{Outcome: OutcomeAborted}
	if err := plan.Validate(); err != nil {
		return res, fmt.Errorf("invalid plan: %w", err)
	}
	runs := make([]*deviceRun, 0, len(plan.Devices))
	for _, dp := range plan.Devices {
		dr := &DeviceResult{Name: dp.Name}
		res.Devices = append(res.Devices, dr)
		runs = append(runs, &deviceRun{plan: dp, result: dr, log: log.WithField("device", dp.Name)})
	}
	defer func() {
		o.metrics.ObserveRun(string(res.Outcome))
	}()

	// 1. connect everything before touching anything
	err := o.phase(ctx, PhaseConnect, runs, false, func(ctx context.Context, r *deviceRun) error {
		dev, err := o.connect(ctx, r.plan.Name)
		if err != nil {
			return err
		}
		r.dev = dev
		for _, c := range plan.RequireCapabilities {
			if !dev.HasCapability(c) {
				return fmt.Errorf("device does not advertise capability %s", c)
			}
		}
		return nil
	})
	if err != nil {
		o.closeAll(ctx, runs)
		return res, err
	}

	// 2. to 4. prepare, baseline and edits fail fast before any commit
	steps := []step{
		{PhasePrepare, o.prepare},
		{PhaseBaseline, o.baseline},
		{PhaseEdit, func(ctx context.Context, r *deviceRun) error { return o.edit(ctx, plan, r) }},
	}
	if plan.ValidateCandidate {
		steps = append(steps, step{PhaseValidate, o.validate})
	}
	for _, step := range steps {
		if err = o.phase(ctx, step.phase, runs, false, step.f); err != nil {
			o.abort(ctx, runs)
			return res, err
		}
	}

	// 5. arm every revert timer as close together as possible
	err = o.phase(ctx, PhaseConfirm, runs, true, func(ctx context.Context, r *deviceRun) error {
		secs := plan.confirmSeconds(r.plan)
		if _, err := r.dev.CommitConfirmed(ctx, secs); err != nil {
			return err
		}
		r.result.Confirmed = true
		r.log.Infof("commit-confirmed sent, device reverts in %ds unless confirmed", secs)
		return nil
	})
	if err != nil {
		// devices that did confirm revert on their own
		res.Outcome = OutcomeReverting
		o.terminateAll(runs)
		return res, err
	}

	// 6. let the control plane settle
	log.Infof("waiting %s for adjacencies to settle", plan.StabilizationWait)
	start := time.Now()
	err = o.sleep(ctx, plan.StabilizationWait)
	o.metrics.ObservePhase(string(PhaseStabilize), time.Since(start))
	if err != nil {
		res.Outcome = OutcomeReverting
		o.terminateAll(runs)
		return res, &PhaseError{Phase: PhaseStabilize, Err: err}
	}

	// 7. compare against the baseline
	err = o.phase(ctx, PhaseVerify, runs, false, o.verify)
	if err == nil {
		vf := &VerificationFailure{Mismatches: map[string][]adjacency.Mismatch{}}
		for _, r := range runs {
			if len(r.result.Mismatches) > 0 {
				vf.Mismatches[r.plan.Name] = r.result.Mismatches
			}
		}
		if len(vf.Mismatches) > 0 {
			err = vf
		}
	}
	if err != nil {
		// no further calls, the confirm timers revert every device
		log.Errorf("withholding final commit on all devices: %v", err)
		res.Outcome = OutcomeReverting
		o.terminateAll(runs)
		return res, err
	}

	// 8. make it permanent everywhere
	err = o.phase(ctx, PhaseFinalize, runs, true, func(ctx context.Context, r *deviceRun) error {
		if _, err := r.dev.Commit(ctx); err != nil {
			return err
		}
		r.result.Committed = true
		r.log.Info("change committed")
		return nil
	})
	if err != nil {
		res.Outcome = OutcomeReverting
		for _, r := range runs {
			if r.result.Committed {
				res.Outcome = OutcomePartial
				break
			}
		}
		o.closeAll(ctx, runs)
		return res, err
	}
	res.Outcome = OutcomeCommitted
	o.closeAll(ctx, runs)
	return res, nil
}

func (o *Orchestrator) prepare(ctx context.Context, r *deviceRun) error {
	if _, err := r.dev.DiscardChanges(ctx); err != nil {
		return err
	}
	if _, err := r.dev.Lock(ctx, rpc.Candidate); err != nil {
		return err
	}
	r.locked = true
	return nil
}

func (o *Orchestrator) baseline(ctx context.Context, r *deviceRun) error {
	snap, err := snapshot(ctx, r.dev)
	if err != nil {
		return err
	}
	r.result.Baseline = snap
	r.log.Infof("baseline adjacencies: %v", snap)
	return nil
}

func (o *Orchestrator) edit(ctx context.Context, plan *Plan, r *deviceRun) error {
	for _, c := range r.plan.Changes {
		passes := 1
		if c.Removal() {
			passes = plan.removalPasses()
		}
		for i := 0; i < passes; i++ {
			_, err := r.dev.EditConfig(ctx, rpc.Candidate, c.Config())
			switch {
			case err == nil:
				r.log.Infof("applied %s", c)
			case c.Removal() && rpc.IsDataMissing(err):
				r.log.Infof("nothing to remove for %s: %v", c, err)
			default:
				return fmt.Errorf("%s: %w", c, err)
			}
		}
	}
	return nil
}

func (o *Orchestrator) validate(ctx context.Context, r *deviceRun) error {
	_, err := r.dev.Validate(ctx, rpc.Candidate)
	return err
}

func (o *Orchestrator) verify(ctx context.Context, r *deviceRun) error {
	snap, err := snapshot(ctx, r.dev)
	if err != nil {
		return err
	}
	r.result.Post = snap
	r.result.Mismatches = r.result.Baseline.Diff(snap)
	for _, m := range r.result.Mismatches {
		r.log.Warnf("adjacency mismatch: %s", m)
	}
	return nil
}

func snapshot(ctx context.Context, dev Device) (adjacency.Snapshot, error) {
	reply, err := dev.Get(ctx, adjacency.OSPFFilter())
	if err != nil {
		return nil, err
	}
	return adjacency.ExtractOSPF(reply)
}

// phase runs f for every device in parallel and waits for all of them. The
// failures of all devices are returned joined as *PhaseError. Phases without
// unbounded set honor the concurrency limit.
func (o *Orchestrator) phase(ctx context.Context, p Phase, runs []*deviceRun, unbounded bool, f func(context.Context, *deviceRun) error) error {
	start := time.Now()
	defer func() {
		o.metrics.ObservePhase(string(p), time.Since(start))
	}()
	limit := int64(len(runs))
	if !unbounded && o.maxConcurrency > 0 && int64(o.maxConcurrency) < limit {
		limit = int64(o.maxConcurrency)
	}
	sem := semaphore.NewWeighted(limit)

	errs := make([]error, len(runs))
	// a plain group: one device failing must not cancel the others mid-rpc
	var g errgroup.Group
	for i, r := range runs {
		i, r := i, r
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = &PhaseError{Phase: p, Device: r.plan.Name, Err: err}
				return nil
			}
			defer sem.Release(1)
			if err := f(ctx, r); err != nil {
				r.log.Errorf("%s failed: %v", p, err)
				r.result.Err = err
				errs[i] = &PhaseError{Phase: p, Device: r.plan.Name, Err: err}
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// abort undoes a run that failed before any commit: candidate changes are
// discarded, the lock released and the session closed, best effort.
func (o *Orchestrator) abort(ctx context.Context, runs []*deviceRun) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	var g errgroup.Group
	for _, r := range runs {
		r := r
		if r.dev == nil {
			continue
		}
		g.Go(func() error {
			if _, err := r.dev.DiscardChanges(ctx); err != nil {
				r.log.Warnf("discard-changes during abort failed: %v", err)
			}
			if r.locked {
				if _, err := r.dev.Unlock(ctx, rpc.Candidate); err != nil {
					r.log.Warnf("unlock during abort failed: %v", err)
				}
			}
			if err := r.dev.Close(ctx); err != nil {
				r.log.Warnf("close during abort failed: %v", err)
			}
			return nil
		})
	}
	g.Wait()
}

func (o *Orchestrator) closeAll(ctx context.Context, runs []*deviceRun) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	var g errgroup.Group
	for _, r := range runs {
		r := r
		if r.dev == nil {
			continue
		}
		g.Go(func() error {
			if err := r.dev.Close(ctx); err != nil {
				r.log.Warnf("close failed: %v", err)
			}
			return nil
		})
	}
	g.Wait()
}

// terminateAll drops every session without a further rpc so that pending
// confirmed commits are left to revert.
func (o *Orchestrator) terminateAll(runs []*deviceRun) {
	for _, r := range runs {
		if r.dev == nil {
			continue
		}
		if err := r.dev.Terminate(); err != nil {
			r.log.Debugf("terminate: %v", err)
		}
	}
}
