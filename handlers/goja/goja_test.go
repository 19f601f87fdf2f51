package goja

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Comcast/baton/directive"
	"github.com/Comcast/baton/processor"
	"github.com/Comcast/baton/router"
	. "github.com/Comcast/baton/util/testutil"
)

func scriptedDirective(namespace, name, mid, dialog string, payload string) *directive.Directive {
	d := &directive.Directive{
		Header: directive.Header{
			Namespace:       namespace,
			Name:            name,
			MessageID:       mid,
			DialogRequestID: dialog,
		},
	}
	if payload != "" {
		d.Payload = json.RawMessage(payload)
	}
	return d
}

func TestHandlerCompile(t *testing.T) {
	if _, err := NewHandler("bad", "var ="); err == nil {
		t.Fatal("bad source compiled")
	}
	if _, err := NewHandler("good", "1"); err != nil {
		t.Fatal(err)
	}
}

func TestHandlerEnv(t *testing.T) {
	h, err := NewHandler("env", `
if (_.stage == "prehandle") {
    if (_.directive.messageId != "M1") {
        throw "bad messageId: " + _.directive.messageId;
    }
    if (_.directive.payload.volume != 11) {
        throw "bad payload";
    }
    _.log(_.cronNext("0 0 * * *"));
    _.log(_.now());
}
`)
	if err != nil {
		t.Fatal(err)
	}
	d := scriptedDirective("Speaker", "SetVolume", "M1", "D", `{"volume":11}`)
	if err := h.PreHandle(d, processor.HandlerResult{}); err != nil {
		t.Fatal(err)
	}
}

func TestHandlerStageError(t *testing.T) {
	h, err := NewHandler("cron", `
if (_.stage == "prehandle") {
    _.cronNext("bogus");
}
`)
	if err != nil {
		t.Fatal(err)
	}
	d := scriptedDirective("Speaker", "SetVolume", "M1", "D", "")
	if err := h.PreHandle(d, processor.HandlerResult{}); err == nil {
		t.Fatal("bad cron expression ignored")
	}
}

func TestHandlerTimeout(t *testing.T) {
	h, err := NewHandler("slow", `
if (_.stage == "handle") {
    _.sleep(1000);
}
`)
	if err != nil {
		t.Fatal(err)
	}
	h.Testing = true
	h.Timeout = 20 * time.Millisecond

	d := scriptedDirective("Speaker", "Speak", "M1", "D", "")
	if err := h.Handle(d); err != Interrupted {
		t.Fatalf("got %v", err)
	}
}

// TestHandlerCompletes runs a scripted blocking handler under a real
// processor.  The script reports completion during its handle stage,
// which is what lets the recording route behind it proceed.
func TestHandlerCompletes(t *testing.T) {
	scripted, err := NewHandler("speak", `
if (_.stage == "handle") {
    _.completed();
}
`)
	if err != nil {
		t.Fatal(err)
	}

	table := router.NewTable()
	if err := table.Register(directive.Key{Namespace: "Speaker", Name: "Speak"},
		directive.Blocking, scripted); err != nil {
		t.Fatal(err)
	}

	handled := make(chan string, 8)
	recorder := &router.FuncHandler{
		HandleF: func(d *directive.Directive) error {
			handled <- d.Header.MessageID
			return nil
		},
	}
	if err := table.Register(directive.Key{Namespace: "Test", Name: "Record"},
		directive.None, recorder); err != nil {
		t.Fatal(err)
	}

	p := processor.New(table, processor.NewRegistry())
	defer p.Shutdown()

	p.SetDialogRequestID("D")
	if err := p.Ingest(scriptedDirective("Speaker", "Speak", "M1", "D", "")); err != nil {
		t.Fatal(err)
	}
	if err := p.Ingest(scriptedDirective("Test", "Record", "M2", "D", "")); err != nil {
		t.Fatal(err)
	}

	if got := <-handled; got != "M2" {
		t.Fatalf("got %s", got)
	}
}

// TestHandlerFails verifies that a scripted failure cancels the rest
// of the dialog.
func TestHandlerFails(t *testing.T) {
	scripted, err := NewHandler("speak", `
if (_.stage == "handle") {
    _.sleep(100);
    _.failed("no voice today");
}
`)
	if err != nil {
		t.Fatal(err)
	}
	scripted.Testing = true

	table := router.NewTable()
	if err := table.Register(directive.Key{Namespace: "Speaker", Name: "Speak"},
		directive.Blocking, scripted); err != nil {
		t.Fatal(err)
	}

	handled := make(chan string, 8)
	canceled := make(chan string, 8)
	recorder := &router.FuncHandler{
		HandleF: func(d *directive.Directive) error {
			handled <- d.Header.MessageID
			return nil
		},
		CancelF: func(d *directive.Directive) {
			canceled <- d.Header.MessageID
		},
	}
	if err := table.Register(directive.Key{Namespace: "Test", Name: "Record"},
		directive.None, recorder); err != nil {
		t.Fatal(err)
	}

	p := processor.New(table, processor.NewRegistry())
	defer p.Shutdown()

	p.SetDialogRequestID("D")
	if err := p.Ingest(scriptedDirective("Speaker", "Speak", "M1", "D", "")); err != nil {
		t.Fatal(err)
	}
	if err := p.Ingest(scriptedDirective("Test", "Record", "M2", "D", "")); err != nil {
		t.Fatal(err)
	}

	if got := <-canceled; got != "M2" {
		t.Fatalf("got %s", got)
	}
	Never(t, "canceled directive handled", 50*time.Millisecond, func() bool {
		select {
		case <-handled:
			return true
		default:
			return false
		}
	})
}
