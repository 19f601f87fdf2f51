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

package router

import (
	"github.com/Comcast/baton/directive"
)

// RouteSpec is the declarative form of one route, as found in a
// service config file.
//
// Just how the route's handler is constructed is up to the
// application.  batond builds scripted handlers from Script or
// ScriptFile.
type RouteSpec struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Name      string `json:"name" yaml:"name"`

	// Policy names the blocking policy for this route: "none",
	// "non-blocking", or "blocking".  Empty means none.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`

	// Doc is optional markdown describing the route.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Script is optional inline ECMAScript source for the route's
	// handler.
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// ScriptFile is an optional filename for the handler source.
	ScriptFile string `json:"scriptFile,omitempty" yaml:"scriptFile,omitempty"`
}

// Key returns the routing key the spec declares.
func (s *RouteSpec) Key() directive.Key {
	return directive.Key{
		Namespace: s.Namespace,
		Name:      s.Name,
	}
}

// BlockingPolicy parses the spec's policy name.
func (s *RouteSpec) BlockingPolicy() (directive.BlockingPolicy, error) {
	return directive.ParseBlockingPolicy(s.Policy)
}
