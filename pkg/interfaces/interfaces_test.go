package interfaces

import (
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"

	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

func TestEdit_Config(t *testing.T) {
	tests := []struct {
		name string
		edit *Edit
		want string
	}{
		{
			name: "add address",
			edit: &Edit{Interface: "GigabitEthernet3", IP: "10.2.3.2", Netmask: "255.255.255.0"},
			want: `<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"><interface><name>GigabitEthernet3</name>` +
				`<ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip"><address><ip>10.2.3.2</ip><netmask>255.255.255.0</netmask></address></ipv4>` +
				`</interface></interfaces>`,
		},
		{
			name: "remove address",
			edit: &Edit{Interface: "GigabitEthernet3", RemoveIP: "10.2.3.2"},
			want: `<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"><interface><name>GigabitEthernet3</name>` +
				`<ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip"><address xmlns:nc="urn:ietf:params:xml:ns:netconf:base:1.0" nc:operation="remove"><ip>10.2.3.2</ip></address></ipv4>` +
				`</interface></interfaces>`,
		},
		{
			name: "description and enabled only",
			edit: &Edit{Interface: "Loopback0", Description: pointer.ToString("mgmt"), Enabled: pointer.ToBool(false)},
			want: `<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"><interface><name>Loopback0</name>` +
				`<description>mgmt</description><enabled>false</enabled></interface></interfaces>`,
		},
		{
			name: "remove before add",
			edit: &Edit{Interface: "GigabitEthernet4", IP: "10.2.4.2", Netmask: "255.255.255.0", RemoveIP: "10.1.4.2"},
			want: `<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"><interface><name>GigabitEthernet4</name>` +
				`<ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip">` +
				`<address xmlns:nc="urn:ietf:params:xml:ns:netconf:base:1.0" nc:operation="remove"><ip>10.1.4.2</ip></address>` +
				`<address><ip>10.2.4.2</ip><netmask>255.255.255.0</netmask></address></ipv4>` +
				`</interface></interfaces>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := etree.NewDocumentWithRoot(tt.edit.Config()).WriteToString()
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(tt.want, got); d != "" {
				t.Errorf("Config() mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestEdit_Validate(t *testing.T) {
	tests := []struct {
		name    string
		edit    *Edit
		wantErr bool
	}{
		{name: "add", edit: &Edit{Interface: "Gi3", IP: "10.0.0.1", Netmask: "255.255.255.252"}},
		{name: "remove", edit: &Edit{Interface: "Gi3", RemoveIP: "10.0.0.1"}},
		{name: "enable", edit: &Edit{Interface: "Gi3", Enabled: pointer.ToBool(true)}},
		{name: "no interface", edit: &Edit{RemoveIP: "10.0.0.1"}, wantErr: true},
		{name: "ip without netmask", edit: &Edit{Interface: "Gi3", IP: "10.0.0.1"}, wantErr: true},
		{name: "non contiguous netmask", edit: &Edit{Interface: "Gi3", IP: "10.0.0.1", Netmask: "255.0.255.0"}, wantErr: true},
		{name: "ipv6", edit: &Edit{Interface: "Gi3", RemoveIP: "2001:db8::1"}, wantErr: true},
		{name: "no change", edit: &Edit{Interface: "Gi3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edit.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEdit_Split(t *testing.T) {
	mixed := &Edit{Interface: "Gi4", IP: "10.2.4.2", Netmask: "255.255.255.0", RemoveIP: "10.1.4.2"}
	got := mixed.Split()
	want := []*Edit{
		{Interface: "Gi4", RemoveIP: "10.1.4.2"},
		{Interface: "Gi4", IP: "10.2.4.2", Netmask: "255.255.255.0"},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Split() mismatch (-want +got):\n%s", d)
	}
	if !got[0].Removal() || got[1].Removal() {
		t.Errorf("unexpected Removal() results")
	}
	removal := &Edit{Interface: "Gi4", RemoveIP: "10.1.4.2"}
	if s := removal.Split(); len(s) != 1 || s[0] != removal {
		t.Errorf("removal-only edit must not be split")
	}
}

func TestParse(t *testing.T) {
	reply, err := rpc.Decode([]byte(`<rpc-reply message-id="4" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <data>
    <interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
      <interface>
        <name>GigabitEthernet1</name>
        <description>uplink</description>
        <enabled>true</enabled>
        <ipv4 xmlns="urn:ietf:params:xml:ns:yang:ietf-ip">
          <address><ip>192.168.1.2</ip><netmask>255.255.255.0</netmask></address>
        </ipv4>
      </interface>
      <interface>
        <name>GigabitEthernet2</name>
        <enabled>false</enabled>
      </interface>
    </interfaces>
  </data>
</rpc-reply>`))
	if err != nil {
		t.Fatal(err)
	}
	want := []Interface{
		{
			Name:        "GigabitEthernet1",
			Description: "uplink",
			Enabled:     pointer.ToBool(true),
			Addresses:   []Address{{IP: "192.168.1.2", Netmask: "255.255.255.0"}},
		},
		{Name: "GigabitEthernet2", Enabled: pointer.ToBool(false)},
	}
	if d := cmp.Diff(want, Parse(reply)); d != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", d)
	}
	if got := Parse(&rpc.Reply{}); got != nil {
		t.Errorf("Parse() without data = %v, want nil", got)
	}
}
