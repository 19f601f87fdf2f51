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

package directive

import (
	"fmt"
)

// BlockingPolicy says whether dispatch of a directive's successors
// must wait for this directive's completion callback.
type BlockingPolicy int

const (
	// None means the directive is complete when its handler
	// returns.  The default when a router declines to choose.
	None BlockingPolicy = iota

	// NonBlocking means the handler reports completion
	// asynchronously, but successors need not wait for it.
	NonBlocking

	// Blocking means no successor is dispatched until the handler
	// reports completion.
	Blocking
)

var policyNames = map[BlockingPolicy]string{
	None:        "none",
	NonBlocking: "non-blocking",
	Blocking:    "blocking",
}

func (p BlockingPolicy) String() string {
	if name, have := policyNames[p]; have {
		return name
	}
	return fmt.Sprintf("BlockingPolicy(%d)", int(p))
}

// ParseBlockingPolicy maps a policy name to its BlockingPolicy.
//
// The empty string means None.
func ParseBlockingPolicy(name string) (BlockingPolicy, error) {
	switch name {
	case "", "none":
		return None, nil
	case "non-blocking", "nonblocking":
		return NonBlocking, nil
	case "blocking":
		return Blocking, nil
	}
	return None, &BadPolicy{Name: name}
}

func (p BlockingPolicy) MarshalText() ([]byte, error) {
	name, have := policyNames[p]
	if !have {
		return nil, &BadPolicy{Name: p.String()}
	}
	return []byte(name), nil
}

func (p *BlockingPolicy) UnmarshalText(bs []byte) error {
	parsed, err := ParseBlockingPolicy(string(bs))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
