/* Copyright 2019-2020 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// One JSON message per line.  Blank lines and lines starting with '#'
// are ignored.
type Stdio struct {
	// In is coupled to directive input.
	In io.Reader

	// Out is coupled to result output.
	Out io.Writer

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	// WG tracks the IO goroutines; Stop waits on it.
	WG sync.WaitGroup
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio() *Stdio {
	return &Stdio{
		In:       os.Stdin,
		Out:      os.Stdout,
		InputEOF: make(chan bool),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits until IO is complete.
func (s *Stdio) Stop(ctx context.Context) error {
	s.WG.Wait()
	return nil
}

func (s *Stdio) outf(format string, args ...interface{}) {
	if s.Timestamps {
		format = time.Now().UTC().Format(time.RFC3339Nano) + " " + format
	}
	fmt.Fprintf(s.Out, format+"\n", args...)
}

// IO returns channels for reading from stdin and writing to stdout.
func (s *Stdio) IO(ctx context.Context) (chan *Input, chan *Result, error) {
	in := make(chan *Input)
	out := make(chan *Result)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		scanner := bufio.NewScanner(s.In)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if s.EchoInput {
				s.outf("input %s", line)
			}
			parsed, err := ParseInput([]byte(line))
			if err != nil {
				log.Printf("Stdio input error %s on %s", err, line)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case in <- parsed:
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("Stdio read error %s", err)
		}
		if s.InputEOF != nil {
			close(s.InputEOF)
		}
	}()

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				js, err := json.Marshal(r)
				if err != nil {
					log.Printf("Stdio result Marshal error %s on %#v", err, r)
					continue
				}
				s.outf("%s", js)
			}
		}
	}()

	return in, out, nil
}
