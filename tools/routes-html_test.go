package tools

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Comcast/baton/router"
)

func TestRenderRoutesPage(t *testing.T) {
	routes := []*router.RouteSpec{
		{
			Namespace: "Speaker",
			Name:      "Speak",
			Policy:    "blocking",
			Doc:       "Say *something*.",
		},
		{
			Name:   "Ping",
			Script: `_.log("pong");`,
		},
	}

	var out bytes.Buffer
	if err := RenderRoutesPage("routes", routes, &out, nil); err != nil {
		t.Fatal(err)
	}

	html := out.String()
	for _, want := range []string{
		"Speaker.Speak",
		"blocking",
		"<em>something</em>",
		"pong",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("missing %q in %s", want, html)
		}
	}
}
