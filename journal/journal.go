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

// Package journal records directive dispositions per dialog.
//
// The journal is history for operators and tools.  The sequencing
// machinery never reads it.
package journal

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Disposition says what became of a directive.
type Disposition string

const (
	Ingested Disposition = "ingested"
	Dropped  Disposition = "dropped"
	Handled  Disposition = "handled"
	Canceled Disposition = "canceled"
	Failed   Disposition = "failed"
)

// Entry is one journal record.
type Entry struct {
	// Seq is assigned at Record time, unique within a dialog.
	Seq uint64 `json:"seq,omitempty"`

	DialogRequestID string      `json:"dialogRequestId,omitempty"`
	MessageID       string      `json:"messageId"`
	Disposition     Disposition `json:"disposition"`

	// Description carries failure detail (if any).
	Description string `json:"description,omitempty"`

	At time.Time `json:"at"`
}

// noDialog is the bucket for entries without a dialog request id.
const noDialog = "(none)"

// Journal is a bbolt-backed journal, one bucket per dialog.
type Journal struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// NewJournal creates a Journal that will store its data in the given
// file.
func NewJournal(filename string) (*Journal, error) {
	return &Journal{
		filename: filename,
	}, nil
}

func (j *Journal) logf(format string, args ...interface{}) {
	if j.Debug {
		log.Printf("Journal."+format, args...)
	}
}

// Open opens the backing database.
func (j *Journal) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}
	db, err := bolt.Open(j.filename, 0644, opts)
	if err != nil {
		return err
	}
	j.db = db
	return nil
}

// Close closes the backing database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func dialogBucket(dialogRequestID string) []byte {
	if dialogRequestID == "" {
		return []byte(noDialog)
	}
	return []byte(dialogRequestID)
}

// Record appends an entry to its dialog's bucket.
//
// The entry's Seq and At are assigned here if unset.
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	j.logf("Record %s %s", e.MessageID, e.Disposition)

	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(dialogBucket(e.DialogRequestID))
		if err != nil {
			return err
		}
		if e.Seq == 0 {
			if e.Seq, err = b.NextSequence(); err != nil {
				return err
			}
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, e.Seq)
		js, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(key, js)
	})
}

// Dialog returns the entries recorded for the given dialog request
// id, in sequence order.  An unknown dialog gives nil, nil.
func (j *Journal) Dialog(ctx context.Context, dialogRequestID string) ([]*Entry, error) {
	j.logf("Dialog %q", dialogRequestID)

	var entries []*Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(dialogBucket(dialogRequestID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, bs := c.First(); k != nil; k, bs = c.Next() {
			var e Entry
			if err := json.Unmarshal(bs, &e); err != nil {
				return err
			}
			entries = append(entries, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Dialogs lists the dialog request ids present in the journal.
func (j *Journal) Dialogs(ctx context.Context) ([]string, error) {
	var ids []string
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			ids = append(ids, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
