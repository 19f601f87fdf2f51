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

package testutil

import (
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// JS renders its argument as JSON or as a string indicating an error.
func JS(x interface{}) string {
	bs, err := json.Marshal(&x)
	if err != nil {
		log.Printf("warning: testutil.JS error %s for %#v", err, x)
		return fmt.Sprintf("%#v", x)
	}
	return string(bs)
}

// Dwimjs, when given a string or bytes, parses that data as JSON.
// When given anything else, just returns what's given.
//
// See https://en.wikipedia.org/wiki/DWIM.
func Dwimjs(x interface{}) interface{} {
	switch vv := x.(type) {
	case []byte:
		return Dwimjs(string(vv))
	case string:
		var v interface{}
		if err := json.Unmarshal([]byte(vv), &v); err != nil {
			panic(err)
		}
		return v
	default:
		return x
	}
}

// Fataler is the part of testing.T that WaitFor needs.
type Fataler interface {
	Fatalf(format string, args ...interface{})
}

var (
	// WaitForTimeout bounds a WaitFor.
	WaitForTimeout = 2 * time.Second

	// WaitForInterval is the WaitFor polling interval.
	WaitForInterval = 2 * time.Millisecond
)

// WaitFor polls f until it returns true or WaitForTimeout passes, in
// which case the test fails with the given description.
//
// Crude but sufficient for synchronizing on work that happens on
// other goroutines.
func WaitFor(t Fataler, what string, f func() bool) {
	deadline := time.Now().Add(WaitForTimeout)
	for {
		if f() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("WaitFor timed out: %s", what)
			return
		}
		time.Sleep(WaitForInterval)
	}
}

// Never verifies that f stays false for the given duration.
//
// Used to check that something does not happen (say a successor
// dispatched past a blocking directive).  Obviously can't prove a
// negative; it just gives the race a generous chance to lose.
func Never(t Fataler, what string, d time.Duration, f func() bool) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if f() {
			t.Fatalf("Never violated: %s", what)
			return
		}
		time.Sleep(WaitForInterval)
	}
}
