package timers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Comcast/baton/directive"
	. "github.com/Comcast/baton/util/testutil"
)

func timerDirective(mid string) *directive.Directive {
	return &directive.Directive{
		Header: directive.Header{
			Namespace: "Alerts",
			Name:      "Sound",
			MessageID: mid,
		},
	}
}

type collector struct {
	sync.Mutex
	directives []*directive.Directive
}

func (c *collector) emit(ctx context.Context, d *directive.Directive) error {
	c.Lock()
	c.directives = append(c.directives, d)
	c.Unlock()
	return nil
}

func (c *collector) count() int {
	c.Lock()
	defer c.Unlock()
	return len(c.directives)
}

func TestTimersFire(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	ts := NewTimers(c.emit)
	defer ts.Shutdown()

	if err := ts.Add(ctx, "t1", timerDirective("M1"), 5*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := ts.Add(ctx, "t1", timerDirective("M1"), 5*time.Millisecond); err != Exists {
		t.Fatalf("got %v", err)
	}

	WaitFor(t, "timer fired", func() bool {
		return c.count() == 1
	})

	c.Lock()
	fired := c.directives[0]
	c.Unlock()
	if fired.Header.MessageID == "M1" || fired.Header.MessageID == "" {
		t.Fatalf("firing didn't stamp a fresh message id: %q", fired.Header.MessageID)
	}

	WaitFor(t, "timer forgotten", func() bool {
		return len(ts.Pending()) == 0
	})
}

func TestTimersRem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	ts := NewTimers(c.emit)
	defer ts.Shutdown()

	if err := ts.Add(ctx, "t1", timerDirective("M1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := ts.Rem(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := ts.Rem(ctx, "t1"); err != NotFound {
		t.Fatalf("got %v", err)
	}
	if c.count() != 0 {
		t.Fatal("removed timer fired")
	}
}

func TestTimersCron(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	ts := NewTimers(c.emit)
	defer ts.Shutdown()

	if err := ts.AddCron(ctx, "bad", timerDirective("M1"), "bogus"); err == nil {
		t.Fatal("bad cron expression accepted")
	}

	// Every second: the finest granularity cron offers, so this
	// test waits for one firing.
	if err := ts.AddCron(ctx, "tick", timerDirective("M1"), "* * * * * * *"); err != nil {
		t.Fatal(err)
	}

	old := WaitForTimeout
	WaitForTimeout = 3 * time.Second
	defer func() { WaitForTimeout = old }()

	WaitFor(t, "cron fired", func() bool {
		return c.count() >= 1
	})

	// Still pending: cron timers recur.
	if len(ts.Pending()) != 1 {
		t.Fatalf("got %v", ts.Pending())
	}

	if err := ts.Rem(ctx, "tick"); err != nil {
		t.Fatal(err)
	}
}
