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
	"log"
	"sync"

	"github.com/Comcast/baton/directive"
)

// Router is what a Processor dispatches to.
//
// The Processor calls PreHandle from the ingesting goroutine and
// Handle/Cancel from its worker goroutine, so implementations must
// tolerate that.  None of these calls may call back into the
// Processor synchronously; handlers report outcomes through the
// HandlerResult they got at pre-handle.
type Router interface {
	// PreHandle records that some handler accepts the directive.
	// Returns true iff accepted.  May be slow.
	PreHandle(d *directive.Directive, result HandlerResult) bool

	// Handle begins execution of the directive, reporting whether
	// dispatch succeeded and under what blocking policy.  With
	// policy None, the directive is considered complete when
	// Handle returns.  Otherwise the handler must eventually call
	// the HandlerResult it was given.
	Handle(d *directive.Directive) (bool, directive.BlockingPolicy)

	// Cancel aborts any work previously accepted for the
	// directive.  Must be idempotent.
	Cancel(d *directive.Directive)
}

// Processor sequences directives within a dialog.
//
// A Processor owns one long-lived worker goroutine.  Ingest runs on
// caller goroutines; HandlerResult callbacks run on handler
// goroutines.  See the package doc for the overall contract.
type Processor struct {
	// Tracing enables debug output.
	Tracing bool

	router   Router
	registry *Registry
	handle   Handle

	// ingestMu serializes Ingest calls, so at most one directive
	// is in pre-handling at a time.
	ingestMu sync.Mutex

	// mu guards everything below.  Never held across a Router
	// call: handler goroutines call back through HandlerResults,
	// which need it.
	mu   sync.Mutex
	wake *sync.Cond

	// dialogRequestID is the active dialog.  Empty means no
	// dialog is active and nothing is admitted.
	dialogRequestID string

	// preHandling holds the at-most-one directive currently
	// between ingest entry and ingest return.  A directive here
	// is in neither queue.  Cancellation that fires during
	// pre-handle steals the slot, which is how the resuming
	// Ingest learns not to enqueue.
	preHandling *directive.Directive

	// handlingQueue holds accepted directives awaiting or
	// undergoing handling, in ingest order.
	handlingQueue []*directive.Directive

	// cancelingQueue holds directives to hand to Router.Cancel,
	// in ingest order.
	cancelingQueue []*directive.Directive

	// isHandlingDirective is true while the head of the handling
	// queue is inside a blocking handle.
	isHandlingDirective bool

	isShuttingDown bool

	shutdown sync.Once
	done     chan struct{}
}

// New creates a Processor that dispatches to the given router,
// registers it, and starts its worker.
//
// A nil registry means DefaultRegistry.
func New(router Router, registry *Registry) *Processor {
	if registry == nil {
		registry = DefaultRegistry
	}
	p := &Processor{
		router:   router,
		registry: registry,
		done:     make(chan struct{}),
	}
	p.wake = sync.NewCond(&p.mu)
	p.handle = registry.register(p)
	go p.processingLoop()
	return p
}

func (p *Processor) trf(format string, args ...interface{}) {
	if !p.Tracing {
		return
	}
	log.Printf("trace Processor "+format, args...)
}

// SetDialogRequestID changes the active dialog.
//
// All directives still in flight for the previous dialog are queued
// for cancellation, in ingest order, before the new dialog takes
// effect.  Setting the current id again is a no-op.
func (p *Processor) SetDialogRequestID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == p.dialogRequestID {
		p.trf("SetDialogRequestID ignored: unchanged %q", id)
		return
	}
	p.queueAllForCancellationLocked()
	p.dialogRequestID = id
}

// Ingest accepts a directive for sequencing.
//
// A directive whose dialog request id doesn't match the active dialog
// is dropped silently: that's routine (a stale response), so Ingest
// returns nil.  A nil directive, ingest during shutdown, a duplicate
// message id, and pre-handle rejection are reported as errors; none
// of them enqueues anything.
//
// Ingest calls the router's PreHandle synchronously and so may be
// slow.  Concurrent Ingest calls are serialized.
func (p *Processor) Ingest(d *directive.Directive) error {
	if d == nil {
		return NilDirective
	}
	p.ingestMu.Lock()
	defer p.ingestMu.Unlock()

	p.mu.Lock()
	if p.isShuttingDown {
		p.mu.Unlock()
		return ShuttingDown
	}
	if p.dialogRequestID == "" || d.Header.DialogRequestID != p.dialogRequestID {
		dialog := p.dialogRequestID
		p.mu.Unlock()
		p.trf("Ingest dropped %s: dialog %q, active %q",
			d, d.Header.DialogRequestID, dialog)
		return nil
	}
	if p.trackedLocked(d.Header.MessageID) {
		p.mu.Unlock()
		return &DuplicateMessageID{MessageID: d.Header.MessageID}
	}
	p.preHandling = d
	p.mu.Unlock()

	accepted := p.router.PreHandle(d, HandlerResult{
		registry:  p.registry,
		handle:    p.handle,
		messageID: d.Header.MessageID,
	})

	p.mu.Lock()
	// If the slot no longer holds d, cancellation ran during
	// pre-handle and has already migrated d to the canceling
	// queue.  Nothing more to do here.
	if p.preHandling == d {
		p.preHandling = nil
		if accepted {
			p.handlingQueue = append(p.handlingQueue, d)
			p.wake.Signal()
		}
	}
	p.mu.Unlock()

	if !accepted {
		return &Rejected{MessageID: d.Header.MessageID}
	}
	return nil
}

// Shutdown deregisters the processor, cancels everything in flight,
// and waits for the worker to exit.
//
// After Shutdown returns, the processor makes no further router
// calls.  Shutdown is idempotent, and HandlerResults that refer to
// this processor become no-ops.
func (p *Processor) Shutdown() {
	p.shutdown.Do(func() {
		p.registry.deregister(p.handle)
		p.mu.Lock()
		p.queueAllForCancellationLocked()
		p.isShuttingDown = true
		p.wake.Signal()
		p.mu.Unlock()
	})
	<-p.done
}

func (p *Processor) onHandlingCompleted(messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trf("onHandlingCompleted %q preHandling=%s", messageID, mid(p.preHandling))

	if p.preHandling != nil && p.preHandling.Header.MessageID == messageID {
		// Completed before its ingest even returned.  Clearing
		// the slot keeps the resuming Ingest from enqueueing.
		p.preHandling = nil
	} else if !p.removeFromHandlingQueueLocked(messageID) {
		p.removeFromCancelingQueueLocked(messageID)
	}
}

func (p *Processor) onHandlingFailed(messageID string, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trf("onHandlingFailed %q preHandling=%s description=%q",
		messageID, mid(p.preHandling), description)

	// A failure found only in the canceling queue is expected (the
	// cancel is already underway) and must not re-cancel.
	// Anywhere else, the dialog can't be trusted to continue.
	if p.preHandling != nil && p.preHandling.Header.MessageID == messageID {
		p.preHandling = nil
		p.queueAllForCancellationLocked()
	} else if p.removeFromHandlingQueueLocked(messageID) {
		p.queueAllForCancellationLocked()
	} else {
		p.removeFromCancelingQueueLocked(messageID)
	}
}

func (p *Processor) trackedLocked(messageID string) bool {
	if p.preHandling != nil && p.preHandling.Header.MessageID == messageID {
		return true
	}
	return findDirective(messageID, p.handlingQueue) >= 0 ||
		findDirective(messageID, p.cancelingQueue) >= 0
}

func (p *Processor) removeFromHandlingQueueLocked(messageID string) bool {
	i := findDirective(messageID, p.handlingQueue)
	if i < 0 {
		return false
	}
	if p.isHandlingDirective && i == 0 {
		// The blocking handle at the head is done.
		p.isHandlingDirective = false
	}
	p.handlingQueue = append(p.handlingQueue[:i], p.handlingQueue[i+1:]...)
	if len(p.handlingQueue) > 0 {
		p.wake.Signal()
	}
	return true
}

func (p *Processor) removeFromCancelingQueueLocked(messageID string) bool {
	i := findDirective(messageID, p.cancelingQueue)
	if i < 0 {
		return false
	}
	p.cancelingQueue = append(p.cancelingQueue[:i], p.cancelingQueue[i+1:]...)
	if len(p.cancelingQueue) > 0 {
		p.wake.Signal()
	}
	return true
}

func findDirective(messageID string, queue []*directive.Directive) int {
	for i, d := range queue {
		if d.Header.MessageID == messageID {
			return i
		}
	}
	return -1
}

// queueAllForCancellationLocked migrates every tracked directive to
// the canceling queue, preserving ingest order, and clears the active
// dialog so late-arriving siblings are dropped.
func (p *Processor) queueAllForCancellationLocked() {
	p.dialogRequestID = ""
	if p.preHandling != nil {
		p.handlingQueue = append(p.handlingQueue, p.preHandling)
		p.preHandling = nil
	}
	if len(p.handlingQueue) > 0 {
		p.cancelingQueue = append(p.cancelingQueue, p.handlingQueue...)
		p.handlingQueue = nil
		p.wake.Signal()
	}
	p.isHandlingDirective = false
}

func (p *Processor) processingLoop() {
	defer close(p.done)

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		for !(len(p.cancelingQueue) > 0 ||
			(len(p.handlingQueue) > 0 && !p.isHandlingDirective) ||
			p.isShuttingDown) {
			p.wake.Wait()
		}
		if !p.processCancelingQueueLocked() && !p.handleDirectiveLocked() && p.isShuttingDown {
			return
		}
	}
}

// processCancelingQueueLocked drains the canceling queue, invoking
// Router.Cancel in order with the state lock released.  Entries
// appended during the drain are picked up on the next loop.
func (p *Processor) processCancelingQueueLocked() bool {
	if len(p.cancelingQueue) == 0 {
		return false
	}
	q := p.cancelingQueue
	p.cancelingQueue = nil
	p.mu.Unlock()
	for _, d := range q {
		p.trf("canceling %s", d)
		p.router.Cancel(d)
	}
	p.mu.Lock()
	return true
}

// handleDirectiveLocked dispatches the head of the handling queue,
// unless a blocking handle is already in progress, in which case the
// worker just keeps waiting for the completion callback.
func (p *Processor) handleDirectiveLocked() bool {
	if len(p.handlingQueue) == 0 {
		return false
	}
	if p.isHandlingDirective {
		return true
	}
	d := p.handlingQueue[0]
	p.isHandlingDirective = true
	p.mu.Unlock()
	p.trf("handling %s", d)
	handled, policy := p.router.Handle(d)
	p.mu.Lock()
	if !handled || policy != directive.Blocking {
		p.isHandlingDirective = false
		if len(p.handlingQueue) > 0 && p.handlingQueue[0] == d {
			p.handlingQueue = p.handlingQueue[1:]
		} else if !handled {
			// A completion callback already removed the head.
			log.Printf("Processor.handleDirectiveLocked expected %s at head, found %s",
				d, mid(head(p.handlingQueue)))
		}
	}
	if !handled {
		p.queueAllForCancellationLocked()
	}
	return true
}

func head(queue []*directive.Directive) *directive.Directive {
	if len(queue) == 0 {
		return nil
	}
	return queue[0]
}

func mid(d *directive.Directive) string {
	if d == nil {
		return "(none)"
	}
	return d.Header.MessageID
}
