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

// Package sio couples a directive processor to the outside world.
package sio

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Comcast/baton/directive"
)

// Input is one inbound wire message: a directive envelope or a dialog
// switch.
//
//	{"directive":{"header":{...},"payload":{...}}}
//	{"dialog":"D1"}
type Input struct {
	Directive *directive.Directive `json:"directive,omitempty"`
	Dialog    string               `json:"dialog,omitempty"`
}

// BadInput occurs when an input has neither a directive nor a dialog.
var BadInput = errors.New("input has neither directive nor dialog")

// ParseInput parses one wire message.
func ParseInput(bs []byte) (*Input, error) {
	var in Input
	if err := json.Unmarshal(bs, &in); err != nil {
		return nil, err
	}
	if in.Directive == nil && in.Dialog == "" {
		return nil, BadInput
	}
	if in.Directive != nil && in.Directive.Header.MessageID == "" {
		return nil, &directive.MissingField{Field: "messageId"}
	}
	return &in, nil
}

// Result is one outbound wire message: what became of a directive.
type Result struct {
	MessageID       string `json:"messageId,omitempty"`
	DialogRequestID string `json:"dialogRequestId,omitempty"`
	Disposition     string `json:"disposition"`
	Err             string `json:"err,omitempty"`
}

// Couplings provide channels for directive input and result output.
//
// For example, an implementation could couple a processor to an MQTT
// broker, or to stdin and stdout.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and result channels.
	IO(context.Context) (chan *Input, chan *Result, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
