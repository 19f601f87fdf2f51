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

// HandlerResult lets a handler report the outcome for one directive.
//
// A HandlerResult is a value given to the Router at pre-handle.  It
// holds a registry handle rather than the Processor itself, so it
// stays safe to call from any goroutine at any time, including after
// the processor has been shut down.  In that case Completed and
// Failed are no-ops.
//
// The contract is at most one call to either method per directive.
// Spurious repeats are harmless: the directive is simply no longer
// tracked.
//
// The zero HandlerResult discards reports.  It's what to hand a
// handler when a directive is dispatched outside any processor (say,
// handled immediately because it belongs to no dialog).
type HandlerResult struct {
	registry  *Registry
	handle    Handle
	messageID string
}

// MessageID identifies the directive this result belongs to.
func (r HandlerResult) MessageID() string {
	return r.messageID
}

// Completed reports that the directive's handler finished its work.
func (r HandlerResult) Completed() {
	r.registry.withProcessor(r.handle, func(p *Processor) {
		p.onHandlingCompleted(r.messageID)
	})
}

// Failed reports that the directive's handler cannot finish.
//
// The owning processor will cancel all other directives in the same
// dialog.
func (r HandlerResult) Failed(description string) {
	r.registry.withProcessor(r.handle, func(p *Processor) {
		p.onHandlingFailed(r.messageID, description)
	})
}
