package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/netconf-txn/pkg/interfaces"
	"github.com/sdcio/netconf-txn/pkg/metrics"
	"github.com/sdcio/netconf-txn/pkg/netconf"
	"github.com/sdcio/netconf-txn/pkg/netconf/netconftest"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

func pipeConnector(t *testing.T, servers map[string]*netconftest.Server) Connector {
	return func(ctx context.Context, name string) (Device, error) {
		s := netconf.NewSession(name, servers[name].Connect(t))
		if err := s.Hello(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
}

func interfaceConfig(name, ip, netmask string) *etree.Element {
	return (&interfaces.Edit{Interface: name, IP: ip, Netmask: netmask}).Config()
}

func newDevice(neighbors map[string]string) *netconftest.Server {
	srv := netconftest.NewServer()
	srv.TimeUnit = 10 * time.Millisecond
	srv.SetRunning(interfaceConfig("GigabitEthernet3", "10.1.3.2", "255.255.255.0"))
	srv.SetOperational(netconftest.OSPFOperData(neighbors))
	return srv
}

func addressIPs(t *testing.T, cfg *etree.Element) []string {
	t.Helper()
	var ips []string
	for _, ip := range cfg.FindElements("interfaces/interface/ipv4/address/ip") {
		ips = append(ips, ip.Text())
	}
	return ips
}

func integrationPlan(names ...string) *Plan {
	p := &Plan{
		ConfirmTimeout:      100 * time.Second,
		StabilizationWait:   time.Second,
		RemovalPasses:       2,
		ValidateCandidate:   true,
		RequireCapabilities: []string{rpc.CapabilityCandidate, rpc.CapabilityConfirmedCommit},
	}
	for _, n := range names {
		p.Devices = append(p.Devices, &DevicePlan{Name: n, Changes: edits()})
	}
	return p
}

func TestRun_Integration_Commit(t *testing.T) {
	servers := map[string]*netconftest.Server{
		"R2": newDevice(map[string]string{"GigabitEthernet3": "10.0.0.3"}),
		"R3": newDevice(map[string]string{"GigabitEthernet3": "10.0.0.2", "GigabitEthernet4": "10.0.0.4"}),
	}
	o := New(pipeConnector(t, servers), WithSleep(noSleep), WithMetrics(metrics.New()))
	res, err := o.Run(context.Background(), integrationPlan("R2", "R3"))
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, res.Outcome)

	for name, srv := range servers {
		<-srv.Done()
		require.Equal(t, netconftest.CommitCommitted, srv.CommitState(), name)
		require.Equal(t, []string{"10.2.3.2"}, addressIPs(t, srv.Running()), name)
		require.Equal(t, []string{
			"discard-changes", "lock", "get",
			"edit-config", "edit-config", "edit-config",
			"validate", "commit-confirmed", "get", "commit", "close-session",
		}, srv.Operations(), name)
		require.False(t, srv.Locked(), name)
	}
	for _, d := range res.Devices {
		require.True(t, d.Confirmed)
		require.True(t, d.Committed)
		require.Empty(t, d.Mismatches)
	}
}

func TestRun_Integration_MismatchReverts(t *testing.T) {
	servers := map[string]*netconftest.Server{
		"R2": newDevice(map[string]string{"GigabitEthernet3": "10.0.0.3"}),
		"R3": newDevice(map[string]string{"GigabitEthernet3": "10.0.0.2", "GigabitEthernet4": "10.0.0.4"}),
	}
	// R3 loses its neighbor on Gi4 once the change is active
	r3 := servers["R3"]
	r3.Hook = func(op *etree.Element) *rpc.RPCError {
		if op.Tag == "commit" && op.SelectElement("confirmed") != nil {
			r3.SetOperational(netconftest.OSPFOperData(map[string]string{"GigabitEthernet3": "10.0.0.2"}))
		}
		return nil
	}

	o := New(pipeConnector(t, servers), WithSleep(noSleep))
	res, err := o.Run(context.Background(), integrationPlan("R2", "R3"))
	var vf *VerificationFailure
	require.True(t, errors.As(err, &vf), "got %v", err)
	require.Contains(t, vf.Mismatches, "R3")
	require.NotContains(t, vf.Mismatches, "R2")
	require.Equal(t, OutcomeReverting, res.Outcome)

	for name, srv := range servers {
		require.Equal(t, 1, srv.CallCount("commit-confirmed"), name)
		require.Equal(t, 0, srv.CallCount("commit"), name)
		require.Eventually(t, func() bool {
			return srv.CommitState() == netconftest.CommitReverted
		}, 2*time.Second, 5*time.Millisecond, name)
		require.Equal(t, []string{"10.1.3.2"}, addressIPs(t, srv.Running()), name)
	}
}

func TestRun_Integration_TimerLapsesWhileConnected(t *testing.T) {
	srv := newDevice(map[string]string{"GigabitEthernet3": "10.0.0.3"})
	srv.Hook = func(op *etree.Element) *rpc.RPCError {
		if op.Tag == "commit" && op.SelectElement("confirmed") != nil {
			srv.SetOperational(netconftest.OSPFOperData(map[string]string{}))
		}
		return nil
	}
	plan := integrationPlan("R2")
	plan.ConfirmTimeout = 5 * time.Second
	plan.StabilizationWait = 0

	// the session stays open during the wait, the device reverts on its own
	o := New(pipeConnector(t, map[string]*netconftest.Server{"R2": srv}), WithSleep(func(ctx context.Context, d time.Duration) error {
		require.Eventually(t, func() bool {
			return srv.CommitState() == netconftest.CommitReverted
		}, 2*time.Second, 5*time.Millisecond)
		return nil
	}))
	res, err := o.Run(context.Background(), plan)
	var vf *VerificationFailure
	require.ErrorAs(t, err, &vf)
	require.Equal(t, OutcomeReverting, res.Outcome)
	require.Equal(t, 0, srv.CallCount("commit"))
}

func TestRun_Integration_StrictRemoveTolerated(t *testing.T) {
	srv := newDevice(map[string]string{"GigabitEthernet3": "10.0.0.3"})
	srv.StrictRemove = true
	// the address to remove is not configured
	srv.SetRunning(interfaceConfig("GigabitEthernet3", "10.9.9.9", "255.255.255.0"))

	o := New(pipeConnector(t, map[string]*netconftest.Server{"R2": srv}), WithSleep(noSleep))
	res, err := o.Run(context.Background(), integrationPlan("R2"))
	require.NoError(t, err)
	require.Equal(t, OutcomeCommitted, res.Outcome)
	<-srv.Done()
	require.ElementsMatch(t, []string{"10.9.9.9", "10.2.3.2"}, addressIPs(t, srv.Running()))
}

func TestRun_Integration_EditRejectedDiscards(t *testing.T) {
	srv := newDevice(map[string]string{"GigabitEthernet3": "10.0.0.3"})
	srv.Hook = func(op *etree.Element) *rpc.RPCError {
		if op.Tag == "edit-config" && op.FindElement("config/interfaces/interface/ipv4/address/netmask") != nil {
			return &rpc.RPCError{Type: "application", Tag: "invalid-value", Severity: rpc.SeverityError, Message: "overlapping address"}
		}
		return nil
	}
	o := New(pipeConnector(t, map[string]*netconftest.Server{"R2": srv}), WithSleep(noSleep))
	res, err := o.Run(context.Background(), integrationPlan("R2"))
	var pe *PhaseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, PhaseEdit, pe.Phase)
	require.Equal(t, OutcomeAborted, res.Outcome)
	<-srv.Done()
	require.Equal(t, netconftest.CommitIdle, srv.CommitState())
	require.Equal(t, []string{"10.1.3.2"}, addressIPs(t, srv.Candidate()))
	require.Equal(t, []string{
		"discard-changes", "lock", "get",
		"edit-config", "edit-config", "edit-config",
		"discard-changes", "unlock", "close-session",
	}, srv.Operations())
}
