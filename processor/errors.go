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

// These errors are caller errors, not internal errors.

import (
	"errors"
)

// NilDirective occurs when Ingest is given a nil directive.
var NilDirective = errors.New("nil directive")

// ShuttingDown occurs when Ingest is called on a processor that has
// begun shutdown.
var ShuttingDown = errors.New("processor shutting down")

// Rejected occurs when the router's PreHandle declines a directive.
// The directive is not enqueued.
type Rejected struct {
	MessageID string
}

func (e *Rejected) Error() string {
	return `directive "` + e.MessageID + `" rejected at pre-handle`
}

// DuplicateMessageID occurs when an ingested directive's message id
// is already tracked.  Message ids are supposed to be unique per
// directive, and removal is by message id, so duplicates are refused
// outright.
type DuplicateMessageID struct {
	MessageID string
}

func (e *DuplicateMessageID) Error() string {
	return `directive message id "` + e.MessageID + `" already tracked`
}
