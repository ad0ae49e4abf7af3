package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Observe(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatal(err)
	}
	m.ObserveRPC("R2", "lock", ResultOK, 10*time.Millisecond)
	m.ObserveRPC("R2", "lock", ResultOK, 20*time.Millisecond)
	m.ObserveRPC("R3", "edit-config", ResultRPCError, time.Millisecond)
	m.ObserveRun("committed")

	if got := testutil.ToFloat64(m.rpcs.WithLabelValues("R2", "lock", ResultOK)); got != 2 {
		t.Errorf("rpc_total{R2,lock,ok} = %v, want 2", got)
	}
	expected := `
# HELP netconf_transaction_runs_total Number of transaction runs, by outcome.
# TYPE netconf_transaction_runs_total counter
netconf_transaction_runs_total{outcome="committed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "netconf_transaction_runs_total"); err != nil {
		t.Error(err)
	}

	// registering twice fails
	if err := m.Register(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("R2", "lock", ResultOK, time.Second)
	m.ObserveRun("aborted")
	m.ObservePhase("connect", time.Second)
	if err := m.Register(prometheus.NewRegistry()); err != nil {
		t.Error(err)
	}
}
