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

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netconf"

const (
	ResultOK           = "ok"
	ResultRPCError     = "rpc-error"
	ResultConnectivity = "connectivity-error"
	ResultProtocol     = "protocol-error"
)

// Metrics holds the collectors shared by sessions and the transaction orchestrator.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	rpcs          *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		rpcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_total",
			Help:      "Number of NETCONF RPCs issued, by device, operation and result.",
		}, []string{"device", "operation", "result"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Round trip time of NETCONF RPCs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"operation"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "runs_total",
			Help:      "Number of transaction runs, by outcome.",
		}, []string{"outcome"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transaction",
			Name:      "phase_duration_seconds",
			Help:      "Duration of the transaction phases across all devices.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"phase"}),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, c := range []prometheus.Collector{m.rpcs, m.rpcDuration, m.runs, m.phaseDuration} {
		errs = append(errs, reg.Register(c))
	}
	return errors.Join(errs...)
}

func (m *Metrics) ObserveRPC(device, operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcs.WithLabelValues(device, operation, result).Inc()
	m.rpcDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
