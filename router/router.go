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

// Package router maps directives to handlers.
//
// A Table implements processor.Router by looking up a Handler for a
// directive's namespace and name.  Each registration declares the
// blocking policy the processor should observe for that route.
package router

import (
	"log"
	"sync"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/processor"
)

// Handler does the actual work for one kind of directive.
//
// PreHandle and Handle run on different goroutines (the ingesting
// goroutine and the processor's worker, respectively).  A handler
// that needs to report completion later must keep the HandlerResult
// it was given at PreHandle.
type Handler interface {
	PreHandle(d *directive.Directive, result processor.HandlerResult) error
	Handle(d *directive.Directive) error
	Cancel(d *directive.Directive)
}

// FuncHandler adapts plain functions to Handler.  Nil fields are
// no-ops (nil PreHandleF and HandleF accept and succeed).
type FuncHandler struct {
	PreHandleF func(d *directive.Directive, result processor.HandlerResult) error
	HandleF    func(d *directive.Directive) error
	CancelF    func(d *directive.Directive)
}

func (h *FuncHandler) PreHandle(d *directive.Directive, result processor.HandlerResult) error {
	if h.PreHandleF == nil {
		return nil
	}
	return h.PreHandleF(d, result)
}

func (h *FuncHandler) Handle(d *directive.Directive) error {
	if h.HandleF == nil {
		return nil
	}
	return h.HandleF(d)
}

func (h *FuncHandler) Cancel(d *directive.Directive) {
	if h.CancelF != nil {
		h.CancelF(d)
	}
}

type route struct {
	handler Handler
	policy  directive.BlockingPolicy
}

// Table routes directives to registered handlers.
//
// A Table is safe for the processor's calling pattern: PreHandle from
// ingesting goroutines, Handle and Cancel from the worker.
type Table struct {
	// Tracing enables debug output.
	Tracing bool

	sync.RWMutex

	routes map[directive.Key]*route
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{
		routes: make(map[directive.Key]*route, 16),
	}
}

func (t *Table) trf(format string, args ...interface{}) {
	if !t.Tracing {
		return
	}
	log.Printf("trace Table "+format, args...)
}

// Register binds a handler (and the blocking policy the processor
// should observe) to a directive key.
func (t *Table) Register(key directive.Key, policy directive.BlockingPolicy, h Handler) error {
	t.Lock()
	defer t.Unlock()
	if _, have := t.routes[key]; have {
		return Exists
	}
	t.routes[key] = &route{
		handler: h,
		policy:  policy,
	}
	return nil
}

// Deregister removes a route.
func (t *Table) Deregister(key directive.Key) error {
	t.Lock()
	defer t.Unlock()
	if _, have := t.routes[key]; !have {
		return NotFound
	}
	delete(t.routes, key)
	return nil
}

func (t *Table) find(d *directive.Directive) *route {
	t.RLock()
	defer t.RUnlock()
	return t.routes[d.Key()]
}

// PreHandle implements processor.Router.
//
// An unroutable directive, or a handler pre-handle error, declines
// the directive.
func (t *Table) PreHandle(d *directive.Directive, result processor.HandlerResult) bool {
	rt := t.find(d)
	if rt == nil {
		log.Printf("Table.PreHandle no route for %s", d)
		return false
	}
	if err := rt.handler.PreHandle(d, result); err != nil {
		log.Printf("Table.PreHandle %s error %s", d, err)
		return false
	}
	t.trf("PreHandle accepted %s", d)
	return true
}

// Handle implements processor.Router.  The policy returned is the one
// declared at registration.
func (t *Table) Handle(d *directive.Directive) (bool, directive.BlockingPolicy) {
	rt := t.find(d)
	if rt == nil {
		// Deregistered between pre-handle and dispatch.
		log.Printf("Table.Handle no route for %s", d)
		return false, directive.None
	}
	if err := rt.handler.Handle(d); err != nil {
		log.Printf("Table.Handle %s error %s", d, err)
		return false, directive.None
	}
	t.trf("Handle dispatched %s policy %s", d, rt.policy)
	return true, rt.policy
}

// Cancel implements processor.Router.
func (t *Table) Cancel(d *directive.Directive) {
	rt := t.find(d)
	if rt == nil {
		return
	}
	t.trf("Cancel %s", d)
	rt.handler.Cancel(d)
}
