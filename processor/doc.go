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

// Package processor sequences directives within a dialog and
// dispatches them to a Router.
//
// A Processor sits between a receiver, which produces directives, and
// a Router, which performs the actual work.  Directives that share a
// dialog request id are dispatched in ingest order.  A directive
// handled under a Blocking policy gates its successors until the
// handler reports completion through its HandlerResult.  Changing the
// dialog, a handler failure, or shutdown cancels everything still in
// flight, in ingest order.
//
// Handlers report completion from their own goroutines, possibly long
// after the owning Processor has been shut down.  A HandlerResult
// therefore never points at a Processor directly; it goes through a
// Registry, which maps live processors by opaque handle.
package processor
