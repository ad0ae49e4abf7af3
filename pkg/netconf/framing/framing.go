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

// Package framing implements the NETCONF 1.0 end-of-message framing.
// Every message on the stream is terminated by the literal marker "]]>]]>";
// there is no length prefix.
package framing

import (
	"bytes"
	"errors"
	"io"
)

// Marker terminates every message exchanged on a NETCONF 1.0 session.
const Marker = "]]>]]>"

const (
	defaultReadSize       = 4096
	DefaultMaxMessageSize = 64 * 1024 * 1024
)

var (
	ErrMessageTooLarge = errors.New("framing: message exceeds size limit")
	ErrUnexpectedEOF   = errors.New("framing: stream closed inside a message")
)

var marker = []byte(Marker)

// Scanner extracts marker-delimited messages from a byte stream.
// Bytes following a marker are kept in a residual buffer and served by the
// next call to Next, so a marker split across reads, or several messages
// arriving in one read, are handled the same way.
type Scanner struct {
	r        io.Reader
	buf      []byte
	searched int
	maxSize  int
	readSize int
}

// NewScanner returns a Scanner reading from r. A maxSize <= 0 selects DefaultMaxMessageSize.
func NewScanner(r io.Reader, maxSize int) *Scanner {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Scanner{
		r:        r,
		maxSize:  maxSize,
		readSize: defaultReadSize,
	}
}

// Next blocks until one complete message is available and returns it
// without the marker. Leading and trailing whitespace is trimmed.
func (s *Scanner) Next() ([]byte, error) {
	for {
		if msg, ok := s.extract(); ok {
			return msg, nil
		}
		if len(s.buf) > s.maxSize {
			return nil, ErrMessageTooLarge
		}
		if err := s.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				// one last scan, the final read may have completed a message
				if msg, ok := s.extract(); ok {
					return msg, nil
				}
				if len(bytes.TrimSpace(s.buf)) > 0 {
					return nil, ErrUnexpectedEOF
				}
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// Buffered returns a copy of the bytes received but not yet returned as a message.
func (s *Scanner) Buffered() []byte {
	return append([]byte(nil), s.buf...)
}

// extract looks for the marker in the residual buffer. The scan restarts
// len(marker)-1 bytes before the previous end so a split marker is found.
func (s *Scanner) extract() ([]byte, bool) {
	start := s.searched - (len(marker) - 1)
	if start < 0 {
		start = 0
	}
	idx := bytes.Index(s.buf[start:], marker)
	if idx < 0 {
		s.searched = len(s.buf)
		return nil, false
	}
	end := start + idx
	msg := bytes.TrimSpace(append([]byte(nil), s.buf[:end]...))

	// shift the residual to the front of the buffer
	n := copy(s.buf, s.buf[end+len(marker):])
	s.buf = s.buf[:n]
	s.searched = 0
	return msg, true
}

func (s *Scanner) fill() error {
	chunk := make([]byte, s.readSize)
	n, err := s.r.Read(chunk)
	if n > 0 {
		s.buf = append(s.buf, chunk[:n]...)
	}
	if err != nil {
		return err
	}
	return nil
}

// Write sends msg followed by the marker as a single write.
func Write(w io.Writer, msg []byte) error {
	out := make([]byte, 0, len(msg)+len(marker)+1)
	out = append(out, msg...)
	out = append(out, marker...)
	out = append(out, '\n')
	_, err := w.Write(out)
	return err
}
