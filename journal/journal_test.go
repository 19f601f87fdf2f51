package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func testJournal(t *testing.T) *Journal {
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err = j.Open(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Error(err)
		}
	})
	return j
}

func TestJournalRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := testJournal(t)

	records := []*Entry{
		{DialogRequestID: "D1", MessageID: "M1", Disposition: Ingested},
		{DialogRequestID: "D1", MessageID: "M1", Disposition: Handled},
		{DialogRequestID: "D1", MessageID: "M2", Disposition: Canceled},
		{DialogRequestID: "D2", MessageID: "M3", Disposition: Failed, Description: "x"},
		{MessageID: "M4", Disposition: Dropped},
	}
	for _, e := range records {
		if err := j.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.Dialog(ctx, "D1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	for i, e := range entries {
		if e.Seq != uint64(i+1) {
			t.Fatalf("entry %d has seq %d", i, e.Seq)
		}
		if e.At.IsZero() {
			t.Fatalf("entry %d has no timestamp", i)
		}
	}
	if entries[1].MessageID != "M1" || entries[1].Disposition != Handled {
		t.Fatalf("got %v", entries[1])
	}

	if entries, err = j.Dialog(ctx, "D3"); err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("got %d entries for unknown dialog", len(entries))
	}

	ids, err := j.Dialogs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %v", ids)
	}
}
