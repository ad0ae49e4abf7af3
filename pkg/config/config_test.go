package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/netconf-txn/pkg/interfaces"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
	"github.com/sdcio/netconf-txn/pkg/netconf/transport"
	"github.com/sdcio/netconf-txn/pkg/transaction"
)

const validConfig = `
devices:
  - name: R2
    address: 192.168.122.12
    credentials:
      username: admin
      password: secret
  - name: R3
    address: 192.168.122.13
    port: 22830
    debug: true
    confirm-timeout: 45s
    credentials:
      username: admin
      password: secret
  - name: R4
    address: 192.168.122.14
    credentials:
      username: admin
ssh:
  host-key-policy: insecure-accept
transaction:
  stabilization-wait: 20s
  validate: true
  removal-passes: 2
  steps:
    - device: R3
      edits:
        - interface: GigabitEthernet3
          remove-ip: 10.1.3.2
          ip: 10.2.3.2
          netmask: 255.255.255.0
    - device: R2
      edits:
        - interface: GigabitEthernet3
          description: to R3
          enabled: true
`

func writeConfig(t *testing.T, s string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(f, []byte(s), 0o600))
	return f
}

func TestNew(t *testing.T) {
	c, err := New(writeConfig(t, validConfig))
	require.NoError(t, err)

	require.Len(t, c.Devices, 3)
	require.Equal(t, uint32(defaultNCPort), c.Devices[0].Port)
	require.Equal(t, uint32(22830), c.Devices[1].Port)
	require.Equal(t, 45*time.Second, c.Devices[1].ConfirmTimeout)

	require.Equal(t, transport.HostKeyInsecureAccept, c.SSH.HostKeyPolicy)
	require.Equal(t, defaultConnectTimeout, c.SSH.ConnectTimeout)
	require.Equal(t, defaultRPCTimeout, c.SSH.RPCTimeout)
	require.True(t, filepath.IsAbs(c.SSH.KnownHostsFile), c.SSH.KnownHostsFile)

	require.Equal(t, defaultConfirmTimeout, c.Transaction.ConfirmTimeout)
	require.Equal(t, 20*time.Second, c.Transaction.StabilizationWait)
	require.Equal(t, 2, c.Transaction.RemovalPasses)
	require.Equal(t, []string{rpc.CapabilityCandidate, rpc.CapabilityConfirmedCommit}, c.Transaction.RequireCapabilities)
	require.Equal(t, pointer.ToString("to R3"), c.Transaction.Steps[1].Edits[0].Description)
	require.Equal(t, pointer.ToBool(true), c.Transaction.Steps[1].Edits[0].Enabled)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		conf string
		want string
	}{
		{
			name: "unknown field",
			conf: "devcies: []\n",
			want: "field devcies not found",
		},
		{
			name: "device without address",
			conf: "devices:\n  - name: R2\n    credentials: {username: admin}\n",
			want: "device R2: missing address",
		},
		{
			name: "duplicate device",
			conf: `
devices:
  - {name: R2, address: 10.0.0.2, credentials: {username: admin}}
  - {name: R2, address: 10.0.0.3, credentials: {username: admin}}
`,
			want: "device R2 defined twice",
		},
		{
			name: "unknown host key policy",
			conf: "ssh:\n  host-key-policy: yolo\n",
			want: `unknown host-key-policy "yolo"`,
		},
		{
			name: "step references unknown device",
			conf: `
devices:
  - {name: R2, address: 10.0.0.2, credentials: {username: admin}}
transaction:
  steps:
    - device: R9
      edits:
        - {interface: Gi3, remove-ip: 10.1.3.2}
`,
			want: `step 0: unknown device "R9"`,
		},
		{
			name: "ip without netmask",
			conf: `
devices:
  - {name: R2, address: 10.0.0.2, credentials: {username: admin}}
transaction:
  steps:
    - device: R2
      edits:
        - {interface: Gi3, ip: 10.2.3.2}
`,
			want: "ip and netmask must be set together",
		},
		{
			name: "wait not shorter than device confirm timeout",
			conf: `
devices:
  - {name: R2, address: 10.0.0.2, confirm-timeout: 10s, credentials: {username: admin}}
transaction:
  steps:
    - device: R2
      edits:
        - {interface: Gi3, remove-ip: 10.1.3.2}
`,
			want: "stabilization-wait 15s must be shorter than confirm-timeout 10s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(writeConfig(t, tt.conf))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Plan(t *testing.T) {
	c, err := New(writeConfig(t, validConfig))
	require.NoError(t, err)
	p, err := c.Plan()
	require.NoError(t, err)

	want := &transaction.Plan{
		ConfirmTimeout:      defaultConfirmTimeout,
		StabilizationWait:   20 * time.Second,
		ValidateCandidate:   true,
		RemovalPasses:       2,
		RequireCapabilities: []string{rpc.CapabilityCandidate, rpc.CapabilityConfirmedCommit},
		Devices: []*transaction.DevicePlan{
			{
				Name: "R2",
				Changes: []transaction.Change{
					&interfaces.Edit{Interface: "GigabitEthernet3", Description: pointer.ToString("to R3"), Enabled: pointer.ToBool(true)},
				},
			},
			{
				Name:           "R3",
				ConfirmTimeout: 45 * time.Second,
				Changes: []transaction.Change{
					&interfaces.Edit{Interface: "GigabitEthernet3", RemoveIP: "10.1.3.2"},
					&interfaces.Edit{Interface: "GigabitEthernet3", IP: "10.2.3.2", Netmask: "255.255.255.0"},
				},
			},
		},
	}
	if d := cmp.Diff(want, p); d != "" {
		t.Errorf("plan (-want +got):\n%s", d)
	}
}

func TestConfig_PlanWithoutSteps(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	_, err = c.Plan()
	require.EqualError(t, err, "transaction has no steps")
}

func TestConfig_Endpoints(t *testing.T) {
	c, err := New(writeConfig(t, validConfig))
	require.NoError(t, err)
	eps, err := c.Endpoints(nil)
	require.NoError(t, err)
	require.Len(t, eps, 3)

	r3 := eps["R3"]
	require.Equal(t, "192.168.122.13", r3.Transport.Address)
	require.Equal(t, 22830, r3.Transport.Port)
	require.Equal(t, "admin", r3.Transport.Username)
	require.Equal(t, "secret", r3.Transport.Password)
	require.Equal(t, defaultConnectTimeout, r3.Transport.Timeout)
	require.NotNil(t, r3.Transport.HostKeyCallback)
	require.Len(t, r3.Session, 4)

	connect := transaction.DialConnector(eps)
	_, err = connect(context.Background(), "R9")
	require.EqualError(t, err, `unknown device "R9"`)
}

func TestConfig_EndpointsStrictNeedsFile(t *testing.T) {
	c := &Config{SSH: &SSHConfig{HostKeyPolicy: transport.HostKeyStrict}}
	_, err := c.Endpoints(nil)
	require.Error(t, err)
}
