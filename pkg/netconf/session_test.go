package netconf

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sdcio/netconf-txn/pkg/netconf/framing"
	"github.com/sdcio/netconf-txn/pkg/netconf/netconftest"
	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

func connect(t *testing.T, srv *netconftest.Server, opts ...SessionOption) *Session {
	t.Helper()
	s := NewSession("R2", srv.Connect(t), opts...)
	require.NoError(t, s.Hello(context.Background()))
	return s
}

func hostnameConfig(name string) *etree.Element {
	e := etree.NewElement("native")
	e.CreateAttr("xmlns", "http://cisco.com/ns/yang/Cisco-IOS-XE-native")
	e.CreateElement("hostname").SetText(name)
	return e
}

func TestSession_HelloAndMessageIDs(t *testing.T) {
	ctx := context.Background()
	srv := netconftest.NewServer()
	srv.SessionID = "4711"
	s := connect(t, srv)

	require.Equal(t, StateConnected, s.State())
	require.Equal(t, "4711", s.SessionID())
	require.True(t, s.HasCapability(rpc.CapabilityCandidate))
	require.True(t, s.HasCapability(rpc.CapabilityConfirmedCommit))
	require.Equal(t, []string{rpc.CapabilityBase1_0}, srv.ClientHello().Capabilities)

	steps := []func() (*rpc.Reply, error){
		func() (*rpc.Reply, error) { return s.DiscardChanges(ctx) },
		func() (*rpc.Reply, error) { return s.Lock(ctx, rpc.Candidate) },
		func() (*rpc.Reply, error) { return s.EditConfig(ctx, rpc.Candidate, hostnameConfig("R2")) },
		func() (*rpc.Reply, error) { return s.GetConfig(ctx, rpc.Candidate, nil) },
		func() (*rpc.Reply, error) { return s.Validate(ctx, rpc.Candidate) },
		func() (*rpc.Reply, error) { return s.CommitConfirmed(ctx, 30) },
		func() (*rpc.Reply, error) { return s.Commit(ctx) },
		func() (*rpc.Reply, error) { return s.Get(ctx, nil) },
		func() (*rpc.Reply, error) { return s.Unlock(ctx, rpc.Candidate) },
	}
	for i, step := range steps {
		reply, err := step()
		require.NoError(t, err, "step %d", i)
		require.Equal(t, fmt.Sprint(i+1), reply.MessageID)
	}
	require.Equal(t, uint64(len(steps)), s.MessageID())

	require.NoError(t, s.Close(ctx))
	<-srv.Done()
	require.Equal(t, StateClosed, s.State())

	var ids []string
	for _, c := range srv.Calls() {
		ids = append(ids, c.MessageID)
	}
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	if d := cmp.Diff(want, ids); d != "" {
		t.Errorf("message-ids mismatch (-want +got):\n%s", d)
	}
	wantOps := []string{"discard-changes", "lock", "edit-config", "get-config", "validate",
		"commit-confirmed", "commit", "get", "unlock", "close-session"}
	if d := cmp.Diff(wantOps, srv.Operations()); d != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", d)
	}
	require.Equal(t, netconftest.CommitCommitted, srv.CommitState())
	require.NotNil(t, srv.Running().FindElement("native/hostname"))
}

func TestSession_GetConfigData(t *testing.T) {
	ctx := context.Background()
	srv := netconftest.NewServer()
	srv.SetRunning(hostnameConfig("R3"))
	s := connect(t, srv)

	reply, err := s.GetConfig(ctx, rpc.Running, rpc.NewSubtreeFilter("native", "http://cisco.com/ns/yang/Cisco-IOS-XE-native"))
	require.NoError(t, err)
	require.NotNil(t, reply.Data)
	h := reply.Data.FindElement("native/hostname")
	require.NotNil(t, h)
	require.Equal(t, "R3", h.Text())

	reply, err = s.GetConfig(ctx, rpc.Running, rpc.NewSubtreeFilter("interfaces", "urn:ietf:params:xml:ns:yang:ietf-interfaces"))
	require.NoError(t, err)
	require.Empty(t, reply.Data.ChildElements())
}

func TestSession_StateErrors(t *testing.T) {
	ctx := context.Background()
	srv := netconftest.NewServer()
	s := NewSession("R2", srv.Connect(t))

	_, err := s.Lock(ctx, rpc.Candidate)
	var se *StateError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StateDisconnected, se.State)
	require.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, s.Hello(ctx))
	err = s.Hello(ctx)
	require.ErrorAs(t, err, &se)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	_, err = s.Commit(ctx)
	require.ErrorIs(t, err, ErrClosed)
	// nothing but close-session reached the device
	require.Equal(t, []string{"close-session"}, srv.Operations())
}

func TestSession_InvalidRequestKeepsMessageIDs(t *testing.T) {
	ctx := context.Background()
	srv := netconftest.NewServer()
	s := connect(t, srv)

	_, err := s.EditConfig(ctx, rpc.Candidate)
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, "edit-config", oe.Operation)
	require.Equal(t, uint64(0), s.MessageID())

	reply, err := s.Lock(ctx, rpc.Candidate)
	require.NoError(t, err)
	require.Equal(t, "1", reply.MessageID)
}

func TestSession_RPCError(t *testing.T) {
	ctx := context.Background()
	srv := netconftest.NewServer()
	s := connect(t, srv)

	// edits to an unlocked candidate are refused
	reply, err := s.EditConfig(ctx, rpc.Candidate, hostnameConfig("R2"))
	require.NotNil(t, reply)
	var oe *OperationError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, "R2", oe.Device)
	var re *rpc.RPCError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "access-denied", re.Tag)

	// the session stays usable
	require.Equal(t, StateConnected, s.State())
	reply, err = s.Lock(ctx, rpc.Candidate)
	require.NoError(t, err)
	require.Equal(t, "2", reply.MessageID)
}

func TestSession_Warnings(t *testing.T) {
	srv := netconftest.NewServer()
	srv.Hook = func(op *etree.Element) *rpc.RPCError {
		if op.Tag == "validate" {
			return &rpc.RPCError{Type: "application", Tag: "operation-failed", Severity: rpc.SeverityWarning, Message: "unused acl"}
		}
		return nil
	}
	s := connect(t, srv)
	reply, err := s.Validate(context.Background(), rpc.Candidate)
	require.NoError(t, err)
	require.True(t, reply.OK)
	require.Len(t, reply.Warnings, 1)
	require.Equal(t, "unused acl", reply.Warnings[0].Message)
}

func TestSession_MessageIDMismatch(t *testing.T) {
	srv := netconftest.NewServer()
	srv.ReplyMessageID = func(string) string { return "99" }
	s := connect(t, srv)

	_, err := s.Lock(context.Background(), rpc.Candidate)
	var mm *rpc.MessageIDMismatchError
	require.ErrorAs(t, err, &mm)
	require.Equal(t, "1", mm.Want)
	require.Equal(t, "99", mm.Got)
	require.Equal(t, StateClosed, s.State())
}

func TestSession_RPCTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	srv := netconftest.NewServer()
	srv.Hook = func(op *etree.Element) *rpc.RPCError {
		if op.Tag == "get" {
			<-release
		}
		return nil
	}
	s := connect(t, srv, WithRPCTimeout(50*time.Millisecond))

	_, err := s.Get(context.Background(), nil)
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "get", ce.Operation)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateClosed, s.State())
}

func TestSession_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	srv := netconftest.NewServer()
	srv.Hook = func(op *etree.Element) *rpc.RPCError {
		<-release
		return nil
	}
	s := connect(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := s.Commit(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateClosed, s.State())
}

func TestSession_PartialReply(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	go func() {
		defer server.Close()
		hello, _ := rpc.EncodeHello(&rpc.Hello{SessionID: "7", Capabilities: []string{rpc.CapabilityBase1_0}})
		if framing.Write(server, hello) != nil {
			return
		}
		sc := framing.NewScanner(server, framing.DefaultMaxMessageSize)
		if _, err := sc.Next(); err != nil { // client hello
			return
		}
		if _, err := sc.Next(); err != nil { // rpc
			return
		}
		server.Write([]byte(`<rpc-reply message-id="1"`))
	}()
	s := NewSession("R4", client)
	require.NoError(t, s.Hello(context.Background()))

	_, err := s.DiscardChanges(context.Background())
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	require.ErrorIs(t, err, framing.ErrUnexpectedEOF)
	require.Equal(t, `<rpc-reply message-id="1"`, strings.TrimSpace(string(ce.Raw)))
	require.Equal(t, "R4", ce.Device)
}

func TestSession_HelloWithoutBaseCapability(t *testing.T) {
	srv := netconftest.NewServer()
	srv.Capabilities = []string{"urn:ietf:params:netconf:base:1.1"}
	s := NewSession("R5", srv.Connect(t))

	err := s.Hello(context.Background())
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, "hello", ce.Operation)
	require.True(t, strings.Contains(err.Error(), rpc.CapabilityBase1_0))
	require.Equal(t, StateClosed, s.State())
}

func TestSession_SerializesConcurrentCalls(t *testing.T) {
	srv := netconftest.NewServer()
	s := connect(t, srv)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Get(context.Background(), nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	calls := srv.Calls()
	require.Len(t, calls, n)
	for i, c := range calls {
		require.Equal(t, fmt.Sprint(i+1), c.MessageID)
	}
}

func TestSession_ConfirmedCommitTimer(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) (*netconftest.Server, *Session) {
		srv := netconftest.NewServer()
		srv.TimeUnit = 10 * time.Millisecond
		s := connect(t, srv)
		_, err := s.Lock(ctx, rpc.Candidate)
		require.NoError(t, err)
		_, err = s.EditConfig(ctx, rpc.Candidate, hostnameConfig("changed"))
		require.NoError(t, err)
		return srv, s
	}

	t.Run("confirmed in time", func(t *testing.T) {
		srv, s := setup(t)
		_, err := s.CommitConfirmed(ctx, 100)
		require.NoError(t, err)
		require.Equal(t, netconftest.CommitPending, srv.CommitState())
		_, err = s.Commit(ctx)
		require.NoError(t, err)
		require.Equal(t, netconftest.CommitCommitted, srv.CommitState())
		require.NotNil(t, srv.Running().FindElement("native/hostname"))
	})

	t.Run("timer lapses", func(t *testing.T) {
		srv, s := setup(t)
		_, err := s.CommitConfirmed(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, srv.Running().FindElement("native/hostname"))
		require.Eventually(t, func() bool {
			return srv.CommitState() == netconftest.CommitReverted
		}, 2*time.Second, 5*time.Millisecond)
		require.Nil(t, srv.Running().FindElement("native/hostname"))
		require.Equal(t, StateConnected, s.State())
	})
}
