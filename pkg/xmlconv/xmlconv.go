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

// Package xmlconv turns XML pasted on a terminal into YAML for inspection.
package xmlconv

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v2"

	"github.com/sdcio/netconf-txn/pkg/netconf/rpc"
)

const Prompt = "Enter XML:"

// ReadBlock returns the lines read from r up to the first empty line or the
// end of input, joined by newlines.
func ReadBlock(r io.Reader) (string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// Convert renders one XML document as YAML. Attributes are keyed with a
// leading "@", the text of mixed elements with "#text". Empty input yields
// empty output.
func Convert(xml string) ([]byte, error) {
	if strings.TrimSpace(xml) == "" {
		return nil, nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("invalid XML: no root element")
	}
	return yaml.Marshal(rpc.ToTree(root))
}

// Run prompts on out, reads one block from in and writes its conversion to out.
func Run(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, Prompt)
	xml, err := ReadBlock(in)
	if err != nil {
		return err
	}
	b, err := Convert(xml)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}
