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

// These errors are user errors, not internal errors.

import (
	"errors"
)

// NoDirective occurs when an envelope has no "directive" property.
var NoDirective = errors.New("no directive in envelope")

// MissingField occurs when a directive header lacks a required field.
type MissingField struct {
	Field string
}

func (e *MissingField) Error() string {
	return `directive header missing "` + e.Field + `"`
}

// BadPolicy occurs when a string doesn't name a BlockingPolicy.
type BadPolicy struct {
	Name string
}

func (e *BadPolicy) Error() string {
	return `unknown blocking policy "` + e.Name + `"`
}
