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

package processor

import (
	"sync"
)

// Handle is the opaque identity of a registered Processor.
//
// Handles are never reused within a Registry.
type Handle int64

// Registry maps handles to live processors.
//
// A HandlerResult holds a Handle, not a *Processor, so a handler
// goroutine that outlives its processor cannot reach freed state: the
// lookup just misses.
//
// DefaultRegistry serves ordinary use.  Tests (or anything else that
// wants isolation) can make their own.
type Registry struct {
	mu    sync.Mutex
	next  Handle
	procs map[Handle]*Processor
}

// DefaultRegistry is used by New when no Registry is given.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		procs: make(map[Handle]*Processor, 4),
	}
}

func (r *Registry) register(p *Processor) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.procs[r.next] = p
	return r.next
}

func (r *Registry) deregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.procs, h)
}

// withProcessor invokes f on the processor registered under h, if
// any.  An unknown handle is dropped silently.
//
// The registry lock is held across f, so a processor cannot start
// shutdown between the lookup and f's use of it.  f must be brief and
// must not touch the registry; it may take the processor's own state
// lock, since shutdown takes the registry lock first and releases it
// before touching processor state.
func (r *Registry) withProcessor(h Handle, f func(*Processor)) {
	if r == nil {
		// The zero HandlerResult has no registry; its reports
		// are discarded.
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, have := r.procs[h]
	if !have {
		return
	}
	f(p)
}

// Len reports how many processors are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}
