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

// Package tools renders routing tables as documentation.
package tools

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/Comcast/baton/router"

	"github.com/jsccast/yaml"
	md "github.com/russross/blackfriday/v2"
)

// RenderRoutesHTML writes an HTML fragment documenting the given
// routes.
//
// Route docs are markdown.
func RenderRoutesHTML(routes []*router.RouteSpec, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="routes"><table>`)
	for _, r := range routes {
		f(`<tr class="route"><td><span id="%s" class="routeKey">%s</span></td><td>`,
			r.Key(), r.Key())

		policy := r.Policy
		if policy == "" {
			policy = "none"
		}
		f(`<div>policy: <span class="routePolicy">%s</span></div>`, policy)

		if r.Doc != "" {
			f(`<div class="routeDoc doc">%s</div>`, md.Run([]byte(r.Doc)))
		}
		if r.Script != "" {
			f(`<div class="code"><pre>%s</pre></div>`, r.Script)
		}
		if r.ScriptFile != "" {
			f(`<div>script: <code>%s</code></div>`, r.ScriptFile)
		}
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderRoutesPage writes a complete HTML page documenting the given
// routes.
func RenderRoutesPage(title string, routes []*router.RouteSpec, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/routes-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderRoutesHTML(routes, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// routesFile is the part of a service config file that this package
// cares about.
type routesFile struct {
	Routes []*router.RouteSpec `json:"routes" yaml:"routes"`
}

// ReadRoutes reads the routes from a YAML service config file.
func ReadRoutes(filename string) ([]*router.RouteSpec, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var f routesFile
	if err = yaml.Unmarshal(bs, &f); err != nil {
		return nil, err
	}
	return f.Routes, nil
}

// ReadAndRenderRoutesPage reads a YAML service config file and
// renders its routes as an HTML page.
func ReadAndRenderRoutesPage(filename string, cssFiles []string, out io.Writer) error {
	routes, err := ReadRoutes(filename)
	if err != nil {
		return err
	}
	return RenderRoutesPage(filename, routes, out, cssFiles)
}
