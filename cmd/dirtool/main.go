// Package main is a little command-line directive utility.
//
// Commands:
//
//	gen              Emit a directive envelope with a fresh message id.
//	parse            Read an envelope from stdin; pretty-print the directive.
//	routes-html FILE Render a config file's routes as an HTML page.
//	routes-fmt FILE  Reformat a config file's routes as YAML.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/tools"

	"github.com/google/uuid"
	yamlv2 "gopkg.in/yaml.v2"
)

func main() {

	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "gen":
		fs := flag.NewFlagSet("gen", flag.ExitOnError)
		var (
			namespace = fs.String("namespace", "", "directive namespace")
			name      = fs.String("name", "Ping", "directive name")
			dialog    = fs.String("dialog", "", "dialog request id")
			payload   = fs.String("payload", "", "JSON payload")
		)
		if err := fs.Parse(os.Args[2:]); err != nil {
			panic(err)
		}

		d := &directive.Directive{
			Header: directive.Header{
				Namespace:       *namespace,
				Name:            *name,
				MessageID:       uuid.NewString(),
				DialogRequestID: *dialog,
			},
		}
		if *payload != "" {
			var x interface{}
			if err := json.Unmarshal([]byte(*payload), &x); err != nil {
				panic(fmt.Sprintf("bad payload: %s", err))
			}
			d.Payload = json.RawMessage(*payload)
		}

		bs, err := d.Marshal()
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s\n", bs)

	case "parse":
		bs, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			panic(err)
		}
		d, err := directive.Parse(bs)
		if err != nil {
			panic(err)
		}
		pretty, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s\n", pretty)

	case "routes-html":
		if len(os.Args) != 3 {
			Usage()
			os.Exit(1)
		}
		if err := tools.ReadAndRenderRoutesPage(os.Args[2], nil, os.Stdout); err != nil {
			panic(err)
		}

	case "routes-fmt":
		if len(os.Args) != 3 {
			Usage()
			os.Exit(1)
		}
		routes, err := tools.ReadRoutes(os.Args[2])
		if err != nil {
			panic(err)
		}
		bs, err := yamlv2.Marshal(map[string]interface{}{
			"routes": routes,
		})
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s", bs)

	default:
		Usage()
		os.Exit(1)
	}
}

func Usage() {
	fmt.Fprintf(os.Stderr, "usage: dirtool (gen|parse|routes-html FILE|routes-fmt FILE)\n")
}
