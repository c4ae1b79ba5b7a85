// Package platform runs the aggregate execution cycle of one device: drain
// the mailbox, build the round context, run the program, publish the export.
/*
 * Copyright (c) 2024, NVIDIA CORPORATION. All rights reserved.
 */
package platform

import (
	"fmt"

	"github.com/tidwall/buntdb"

	"github.com/NVIDIA/rufi/cmn/atomic"
	"github.com/NVIDIA/rufi/cmn/nlog"
)

// timeOrdered keeps every message received from each neighbor in an in-memory
// ordered store; each drain pops one message per neighbor - the most recent
// (LIFO) or the least recent (FIFO) depending on the policy.
type timeOrdered struct {
	db       *buntdb.DB
	seq      atomic.Int64 // ties equal timestamps in arrival order
	popFirst bool
}

// NewMostRecent returns the LIFO policy: every message is retained, each
// drain yields the newest per neighbor.
func NewMostRecent() (Mailbox, error) { return newTimeOrdered(false) }

// NewLeastRecent returns the FIFO policy: every message is retained, each
// drain yields the oldest per neighbor.
func NewLeastRecent() (Mailbox, error) { return newTimeOrdered(true) }

func newTimeOrdered(popFirst bool) (Mailbox, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	return &timeOrdered{db: db, popFirst: popFirst}, nil
}

// mbx:<source>:<unix-nano, zero padded>:<seq, zero padded>
// Lexicographic order of keys sharing a source prefix equals timestamp order.
func (mb *timeOrdered) key(msg *Message) string {
	return fmt.Sprintf("mbx:%d:%020d:%012d", msg.Source, msg.Timestamp.UnixNano(), mb.seq.Inc())
}

func (mb *timeOrdered) Enqueue(msg Message) {
	val, err := msg.Marshal()
	if err != nil {
		nlog.Errorf("mailbox: dropping message from %d: %v", msg.Source, err)
		return
	}
	err = mb.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(mb.key(&msg), string(val), nil)
		return err
	})
	if err != nil {
		nlog.Errorf("mailbox: enqueue from %d: %v", msg.Source, err)
	}
}

func (mb *timeOrdered) Messages() Messages {
	chosen := make(map[int32]string) // source -> key to pop
	snap := make(Messages)
	err := mb.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("mbx:*", func(key, value string) bool {
			var msg Message
			if err := msg.Unmarshal([]byte(value)); err != nil {
				nlog.Warningf("mailbox: skipping unreadable entry %q: %v", key, err)
				return true
			}
			if _, ok := chosen[msg.Source]; ok && mb.popFirst {
				return true // keep the first key seen per source
			}
			chosen[msg.Source] = key
			snap[msg.Source] = msg
			return true
		})
	})
	if err != nil {
		nlog.Errorf("mailbox: drain: %v", err)
		return snap
	}
	err = mb.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range chosen {
			if _, err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		nlog.Errorf("mailbox: pop: %v", err)
	}
	return snap
}
