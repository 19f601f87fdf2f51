package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/Comcast/baton/directive"
)

var testConfig = `
routes:
  - namespace: Speaker
    name: Speak
    policy: blocking
    doc: Say something.
    script: |
      if (_.stage == "handle") {
          _.completed();
      }
  - name: Ping
timers:
  - id: morning
    cron: "0 7 * * *"
    directive:
      header:
        name: Ping
`

func TestReadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "batond.yaml")
	if err := ioutil.WriteFile(filename, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Routes) != 2 {
		t.Fatalf("got %d routes", len(cfg.Routes))
	}
	r := cfg.Routes[0]
	if r.Key() != (directive.Key{Namespace: "Speaker", Name: "Speak"}) {
		t.Fatalf("got %s", r.Key())
	}
	policy, err := r.BlockingPolicy()
	if err != nil {
		t.Fatal(err)
	}
	if policy != directive.Blocking {
		t.Fatalf("got %s", policy)
	}
	if r.Script == "" {
		t.Fatal("lost the script")
	}

	if len(cfg.Timers) != 1 {
		t.Fatalf("got %d timers", len(cfg.Timers))
	}
	ts := cfg.Timers[0]
	if ts.Cron == "" || ts.Directive == nil || ts.Directive.Header.Name != "Ping" {
		t.Fatalf("got %#v", ts)
	}
}

func TestTimerSpecDuration(t *testing.T) {
	ts := &TimerSpec{In: "250ms"}
	d, err := ts.Duration()
	if err != nil {
		t.Fatal(err)
	}
	if d != 250*time.Millisecond {
		t.Fatalf("got %s", d)
	}
}
