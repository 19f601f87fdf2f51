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
	"encoding/json"
)

// Header identifies a directive and the handler that should get it.
type Header struct {
	// Namespace plus Name select a handler.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`

	// MessageID is unique per directive.
	MessageID string `json:"messageId" yaml:"messageId"`

	// DialogRequestID tags all directives that belong to one
	// logical request/response round.  Empty means the directive
	// is not part of any dialog.
	DialogRequestID string `json:"dialogRequestId,omitempty" yaml:"dialogRequestId,omitempty"`
}

// Directive is an immutable server-issued command.
//
// The sequencing machinery reads only MessageID and DialogRequestID.
// Everything else is opaque and belongs to handlers.
type Directive struct {
	Header  Header          `json:"header"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Key is a handler address: what a routing table is keyed by.
type Key struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Key returns the directive's handler address.
func (d *Directive) Key() Key {
	return Key{
		Namespace: d.Header.Namespace,
		Name:      d.Header.Name,
	}
}

func (k Key) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "." + k.Name
}

func (d *Directive) String() string {
	return d.Key().String() + "/" + d.Header.MessageID
}

// envelope is the wire form: {"directive":{"header":{...},"payload":{...}}}.
type envelope struct {
	Directive *Directive `json:"directive"`
}

// Parse reads a directive from its JSON envelope.
//
// The envelope must contain a directive with a header that has a
// messageId.  The payload (if any) is not examined.
func Parse(bs []byte) (*Directive, error) {
	var e envelope
	if err := json.Unmarshal(bs, &e); err != nil {
		return nil, err
	}
	if e.Directive == nil {
		return nil, NoDirective
	}
	if e.Directive.Header.MessageID == "" {
		return nil, &MissingField{Field: "messageId"}
	}
	return e.Directive, nil
}

// Marshal writes the directive back into its JSON envelope.
func (d *Directive) Marshal() ([]byte, error) {
	return json.Marshal(&envelope{Directive: d})
}
