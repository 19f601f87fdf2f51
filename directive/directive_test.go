package directive

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	bs := []byte(`{"directive":{"header":{"namespace":"Speaker","name":"Speak","messageId":"M1","dialogRequestId":"D1"},"payload":{"text":"hello"}}}`)
	d, err := Parse(bs)
	if err != nil {
		t.Fatal(err)
	}
	if d.Header.Namespace != "Speaker" || d.Header.Name != "Speak" {
		t.Fatalf("got %s", d)
	}
	if d.Header.MessageID != "M1" || d.Header.DialogRequestID != "D1" {
		t.Fatalf("got %#v", d.Header)
	}
	if d.Key() != (Key{Namespace: "Speaker", Name: "Speak"}) {
		t.Fatalf("got %s", d.Key())
	}
	if d.String() != "Speaker.Speak/M1" {
		t.Fatalf("got %s", d)
	}

	// The payload is opaque but preserved.
	var payload map[string]interface{}
	if err = json.Unmarshal(d.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["text"] != "hello" {
		t.Fatalf("got %#v", payload)
	}

	// And survives a round trip.
	if bs, err = d.Marshal(); err != nil {
		t.Fatal(err)
	}
	if d, err = Parse(bs); err != nil {
		t.Fatal(err)
	}
	if d.Header.MessageID != "M1" {
		t.Fatalf("got %#v", d.Header)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte(`{"event":{}}`)); err != NoDirective {
		t.Fatalf("got %v", err)
	}
	if _, err := Parse([]byte(`{"directive":{"header":{"name":"Speak"}}}`)); err == nil {
		t.Fatal("missing messageId accepted")
	} else if _, is := err.(*MissingField); !is {
		t.Fatalf("got %v", err)
	}
	if _, err := Parse([]byte(`nope`)); err == nil {
		t.Fatal("junk accepted")
	}
}

func TestBlockingPolicy(t *testing.T) {
	for _, tc := range []struct {
		name   string
		policy BlockingPolicy
	}{
		{"none", None},
		{"non-blocking", NonBlocking},
		{"blocking", Blocking},
	} {
		policy, err := ParseBlockingPolicy(tc.name)
		if err != nil {
			t.Fatal(err)
		}
		if policy != tc.policy {
			t.Fatalf("got %s, want %s", policy, tc.policy)
		}
		if policy.String() != tc.name {
			t.Fatalf("got %s", policy.String())
		}

		bs, err := policy.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back BlockingPolicy
		if err = back.UnmarshalText(bs); err != nil {
			t.Fatal(err)
		}
		if back != tc.policy {
			t.Fatalf("got %s", back)
		}
	}

	if policy, err := ParseBlockingPolicy(""); err != nil || policy != None {
		t.Fatalf("got %s, %v", policy, err)
	}
	if _, err := ParseBlockingPolicy("sometimes"); err == nil {
		t.Fatal("bad policy accepted")
	} else if _, is := err.(*BadPolicy); !is {
		t.Fatalf("got %v", err)
	}
}
