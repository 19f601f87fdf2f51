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

// Package goja provides a directive handler whose stages are
// ECMAScript, executed via Goja.
//
// See https://github.com/dop251/goja.
package goja

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/processor"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by a stage if its execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Handler runs one compiled script per directive stage.
//
// The same program runs for pre-handle, handle, and cancel; the
// script switches on _.stage.  The following properties are available
// from the runtime at _:
//
//	stage: "prehandle", "handle", or "cancel".
//	directive: header fields plus the parsed payload (if any).
//	completed(): report handler completion for this directive.
//	failed(msg): report handler failure for this directive.
//	log(x): log x.
//	cronNext(expr): next firing time for a cron expression,
//	  as an RFC 3339 string.
//	now(): the current time as an RFC 3339 string.
//
// For testing only (requires the Testing flag):
//
//	sleep(ms): sleep for the given number of milliseconds.
type Handler struct {
	// Testing exposes sleep() to scripts.
	Testing bool

	// Timeout, if positive, interrupts a stage that runs too
	// long.
	Timeout time.Duration

	name    string
	program *goja.Program

	mu      sync.Mutex
	results map[string]processor.HandlerResult
}

// NewHandler compiles the given source into a Handler.
//
// The name is only for diagnostics.
func NewHandler(name, src string) (*Handler, error) {
	program, err := goja.Compile(name, src, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + src)
	}
	return &Handler{
		name:    name,
		program: program,
		results: make(map[string]processor.HandlerResult, 8),
	}, nil
}

// PreHandle remembers the directive's HandlerResult and runs the
// script's prehandle stage.
func (h *Handler) PreHandle(d *directive.Directive, result processor.HandlerResult) error {
	h.mu.Lock()
	h.results[d.Header.MessageID] = result
	h.mu.Unlock()
	if err := h.run("prehandle", d); err != nil {
		h.drop(d.Header.MessageID)
		return err
	}
	return nil
}

// Handle runs the script's handle stage.
func (h *Handler) Handle(d *directive.Directive) error {
	return h.run("handle", d)
}

// Cancel runs the script's cancel stage and forgets the directive.
func (h *Handler) Cancel(d *directive.Directive) {
	if err := h.run("cancel", d); err != nil {
		log.Printf("goja.Handler %s cancel error %s", h.name, err)
	}
	h.drop(d.Header.MessageID)
}

func (h *Handler) result(messageID string) (processor.HandlerResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	result, have := h.results[messageID]
	return result, have
}

func (h *Handler) drop(messageID string) {
	h.mu.Lock()
	delete(h.results, messageID)
	h.mu.Unlock()
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func exported(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

func (h *Handler) run(stage string, d *directive.Directive) error {
	o := goja.New()

	var payload interface{}
	if 0 < len(d.Payload) {
		if err := json.Unmarshal(d.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload for %s: %s", d, err)
		}
	}

	env := map[string]interface{}{
		"stage": stage,
		"directive": map[string]interface{}{
			"namespace":       d.Header.Namespace,
			"name":            d.Header.Name,
			"messageId":       d.Header.MessageID,
			"dialogRequestId": d.Header.DialogRequestID,
			"payload":         payload,
		},
	}

	env["completed"] = func() interface{} {
		result, have := h.result(d.Header.MessageID)
		if !have {
			protest(o, "no result for "+d.Header.MessageID)
		}
		h.drop(d.Header.MessageID)
		result.Completed()
		return nil
	}

	env["failed"] = func(x interface{}) interface{} {
		msg, is := exported(x).(string)
		if !is {
			protest(o, "not a string")
		}
		result, have := h.result(d.Header.MessageID)
		if !have {
			protest(o, "no result for "+d.Header.MessageID)
		}
		h.drop(d.Header.MessageID)
		result.Failed(msg)
		return nil
	}

	env["log"] = func(x interface{}) interface{} {
		x = exported(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Printf("goja.Handler %s %s log %#v", h.name, stage, x)
		} else {
			log.Printf("goja.Handler %s %s log %s", h.name, stage, js)
		}
		return x
	}

	env["cronNext"] = func(x interface{}) interface{} {
		cronExpr, is := exported(x).(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["now"] = func() interface{} {
		return time.Now().UTC().Format(time.RFC3339Nano)
	}

	if h.Testing {
		env["sleep"] = func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
	}

	o.Set("_", env)

	if 0 < h.Timeout {
		timer := time.AfterFunc(h.Timeout, func() {
			o.Interrupt(InterruptedMessage)
		})
		defer timer.Stop()
	}

	if _, err := o.RunProgram(h.program); err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return Interrupted
		}
		return err
	}

	return nil
}
