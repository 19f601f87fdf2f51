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

// Package timers injects directives at future times: one-shot delays
// and recurring cron schedules.
package timers

// ToDo: Timers.Suspend, Timers.Resume

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Comcast/baton/directive"

	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

// Emitter consumes a fired timer's directive.  Typically this points
// at a processor's Ingest.
type Emitter func(ctx context.Context, d *directive.Directive) error

var (
	// Exists occurs when adding a timer with an id already in use.
	Exists = errors.New("id exists")

	// NotFound occurs when removing an unknown timer.
	NotFound = errors.New("not found")
)

// TimerEntry represents a pending timer.
type TimerEntry struct {
	Id        string               `json:"id"`
	Directive *directive.Directive `json:"directive"`

	// At is the next firing time (one-shot timers only).
	At time.Time `json:"at,omitempty"`

	// Cron, if set, makes the timer recurring.
	Cron string `json:"cron,omitempty"`

	ctl chan bool
}

// Timers represents pending timers.
//
// Every firing stamps a fresh message id on a copy of the entry's
// directive, so recurring timers don't collide with the uniqueness
// that the sequencing machinery demands.
type Timers struct {
	Errors chan interface{} `json:"-"`

	sync.Mutex

	timers map[string]*TimerEntry
	ctl    chan bool
	emit   Emitter
}

// NewTimers creates a Timers with the given function that firing
// timers will use to emit their directives.
func NewTimers(emitter Emitter) *Timers {
	return &Timers{
		timers: make(map[string]*TimerEntry, 32),
		emit:   emitter,
		ctl:    make(chan bool),
	}
}

// Add schedules a one-shot injection of d after the given delay.
func (ts *Timers) Add(ctx context.Context, id string, d *directive.Directive, in time.Duration) error {
	ts.Lock()
	defer ts.Unlock()

	if _, have := ts.timers[id]; have {
		return Exists
	}

	te := &TimerEntry{
		Id:        id,
		Directive: d,
		At:        time.Now().UTC().Add(in),
		ctl:       make(chan bool),
	}
	ts.timers[id] = te

	go func() {
		timer := time.NewTimer(te.At.Sub(time.Now()))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			ts.rem(id)
		case <-te.ctl:
			// We only get here via a Rem() call.
		case <-ts.ctl:
			ts.rem(id)
		case <-timer.C:
			ts.fire(ctx, te)
			ts.Lock()
			delete(ts.timers, id)
			ts.Unlock()
		}
	}()

	return nil
}

// AddCron schedules recurring injection of d per the given cron
// expression.
func (ts *Timers) AddCron(ctx context.Context, id string, d *directive.Directive, expr string) error {
	c, err := cronexpr.Parse(expr)
	if err != nil {
		return fmt.Errorf("bad cron expression %q: %s", expr, err)
	}

	ts.Lock()
	defer ts.Unlock()

	if _, have := ts.timers[id]; have {
		return Exists
	}

	te := &TimerEntry{
		Id:        id,
		Directive: d,
		Cron:      expr,
		ctl:       make(chan bool),
	}
	ts.timers[id] = te

	go func() {
		for {
			next := c.Next(time.Now())
			if next.IsZero() {
				// The expression has no more firings.
				ts.rem(id)
				return
			}
			timer := time.NewTimer(next.Sub(time.Now()))
			select {
			case <-ctx.Done():
				timer.Stop()
				ts.rem(id)
				return
			case <-te.ctl:
				timer.Stop()
				return
			case <-ts.ctl:
				timer.Stop()
				ts.rem(id)
				return
			case <-timer.C:
				ts.fire(ctx, te)
			}
		}
	}()

	return nil
}

// fire emits a copy of the entry's directive with a fresh message id.
func (ts *Timers) fire(ctx context.Context, te *TimerEntry) {
	d := *te.Directive
	d.Header.MessageID = uuid.NewString()
	if err := ts.emit(ctx, &d); err != nil {
		ts.err(fmt.Errorf("Timers emit error %v id=%s", err, te.Id))
	}
}

// Rem cancels a pending timer.
func (ts *Timers) Rem(ctx context.Context, id string) error {
	ts.Lock()
	defer ts.Unlock()

	te, have := ts.timers[id]
	if !have {
		return NotFound
	}
	delete(ts.timers, id)
	close(te.ctl)
	return nil
}

// rem is Rem for the timers' own goroutines, which must not close
// ctl (they are the ones listening on it).
func (ts *Timers) rem(id string) {
	ts.Lock()
	delete(ts.timers, id)
	ts.Unlock()
}

// Pending reports the ids of timers not yet fired or removed.
func (ts *Timers) Pending() []string {
	ts.Lock()
	defer ts.Unlock()
	ids := make([]string, 0, len(ts.timers))
	for id := range ts.timers {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops all pending timers.
func (ts *Timers) Shutdown() error {
	close(ts.ctl)
	return nil
}

func (ts *Timers) err(err error) {
	if ts.Errors != nil {
		ts.Errors <- err
	} else {
		log.Println(err)
	}
}
