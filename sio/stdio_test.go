package sio

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	. "github.com/Comcast/baton/util/testutil"
)

type syncBuffer struct {
	sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(bs []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.buf.Write(bs)
}

func (b *syncBuffer) String() string {
	b.Lock()
	defer b.Unlock()
	return b.buf.String()
}

func TestParseInput(t *testing.T) {
	in, err := ParseInput([]byte(`{"dialog":"D1"}`))
	if err != nil {
		t.Fatal(err)
	}
	if in.Dialog != "D1" || in.Directive != nil {
		t.Fatalf("got %s", JS(in))
	}

	in, err = ParseInput([]byte(`{"directive":{"header":{"namespace":"Speaker","name":"Speak","messageId":"M1","dialogRequestId":"D1"},"payload":{"text":"hi"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if in.Directive == nil || in.Directive.Header.MessageID != "M1" {
		t.Fatalf("got %s", JS(in))
	}

	if _, err = ParseInput([]byte(`{}`)); err != BadInput {
		t.Fatalf("got %v", err)
	}
	if _, err = ParseInput([]byte(`{"directive":{"header":{"name":"Speak"}}}`)); err == nil {
		t.Fatal("missing messageId accepted")
	}
	if _, err = ParseInput([]byte(`not json`)); err == nil {
		t.Fatal("junk accepted")
	}
}

func TestStdio(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := strings.Join([]string{
		`# a comment`,
		``,
		`{"dialog":"D1"}`,
		`{"directive":{"header":{"name":"Speak","messageId":"M1","dialogRequestId":"D1"}}}`,
		`{"bad":"input"}`,
	}, "\n")

	out := &syncBuffer{}
	s := &Stdio{
		In:       strings.NewReader(input),
		Out:      out,
		InputEOF: make(chan bool),
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	in, results, err := s.IO(ctx)
	if err != nil {
		t.Fatal(err)
	}

	x := <-in
	if x.Dialog != "D1" {
		t.Fatalf("got %s", JS(x))
	}
	x = <-in
	if x.Directive == nil || x.Directive.Header.MessageID != "M1" {
		t.Fatalf("got %s", JS(x))
	}

	// The bad input was dropped, so the reader hits EOF next.
	<-s.InputEOF

	results <- &Result{
		MessageID:   "M1",
		Disposition: "handled",
	}
	WaitFor(t, "result written", func() bool {
		return strings.Contains(out.String(), `"disposition":"handled"`)
	})

	results <- nil // Terminates the writer.
	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
