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

// Package transport opens the authenticated byte stream a NETCONF session
// runs over: the "netconf" SSH subsystem of the device.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
)

const (
	netconfSubsystem = "netconf"
	defaultTimeout   = 15 * time.Second
)

// Options describes how to reach and authenticate to one device.
type Options struct {
	Address  string
	Port     int
	Username string
	Password string
	// Timeout bounds TCP connect, SSH handshake and authentication.
	Timeout time.Duration
	// HostKeyCallback decides whether the device's host key is trusted.
	// Build it with HostKeyCallback(policy, file).
	HostKeyCallback ssh.HostKeyCallback
}

// Conn is an open netconf subsystem channel. Reads return bytes sent by the
// device, writes are delivered to it.
type Conn struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the device, authenticates and starts the netconf subsystem.
func Dial(ctx context.Context, opts *Options) (*Conn, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hostKeyCallback := opts.HostKeyCallback
	if hostKeyCallback == nil {
		return nil, fmt.Errorf("no host key callback configured")
	}
	cfg := &ssh.ClientConfig{
		User: opts.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(opts.Password),
			// devices prompting for the password via keyboard-interactive
			// get the stored credential for every question
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = opts.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(opts.Address, strconv.Itoa(opts.Port))
	dialer := &net.Dialer{Timeout: timeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	// bound the ssh handshake, the deadline is lifted once the subsystem runs
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = tcpConn.SetDeadline(deadline); err != nil {
		tcpConn.Close()
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, cfg)
	if err != nil {
		tcpConn.Close()
		return nil, err
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	c, err := startSubsystem(client)
	if err != nil {
		client.Close()
		return nil, err
	}
	if err = tcpConn.SetDeadline(time.Time{}); err != nil {
		c.Close()
		return nil, err
	}
	log.Debugf("netconf subsystem started on %s", addr)
	return c, nil
}

func startSubsystem(client *ssh.Client) (*Conn, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	if err = session.RequestSubsystem(netconfSubsystem); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start %s subsystem: %w", netconfSubsystem, err)
	}
	return &Conn{
		client:  client,
		session: session,
		stdin:   stdin,
		stdout:  stdout,
	}, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.stdout.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.stdin.Write(p)
}

// Close tears down the subsystem channel and the ssh connection. It is safe
// to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.stdin.Close()
		c.session.Close()
		c.closeErr = c.client.Close()
	})
	return c.closeErr
}
