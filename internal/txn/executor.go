// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package txn

import (
	"github.com/corekv/corekv/internal/external"
	"github.com/corekv/corekv/internal/watch"
)

// Databases is the slice of server globals the transaction executor needs:
// one watch index per database (spec §6's "per-db watched_keys"). The
// server-wide dirty-change counter is passed to NewExecutor separately.
type Databases interface {
	WatchIndex(db int) *watch.Index
}

// Executor runs the MULTI/EXEC/DISCARD/WATCH/UNWATCH state machine for
// however many clients call into it. It holds no per-client state itself —
// that lives in each client's *State — only the collaborators spec §6 names.
type Executor struct {
	dbs  Databases
	exec external.CommandExecutor
	aof  external.Sink
	repl external.Sink

	// Dirty is the server's dirty-change counter (spec §4.4 step 6, §6's
	// "dirty counter" server global). A pointer so every Executor sharing a
	// server sees the same counter.
	Dirty *int64
}

// NewExecutor builds an Executor over the given collaborators.
func NewExecutor(dbs Databases, exec external.CommandExecutor, aof, repl external.Sink, dirty *int64) *Executor {
	return &Executor{dbs: dbs, exec: exec, aof: aof, repl: repl, Dirty: dirty}
}

// Multi starts a transaction block. Nesting is a ProtocolMisuse error.
func (e *Executor) Multi(c *State) error {
	if c.inMulti {
		return ErrMultiNested
	}
	c.inMulti = true
	c.queue = c.queue[:0]
	return nil
}

// Queue appends cmd to c's pending block. Callers are expected to have
// already excluded MULTI/EXEC/DISCARD/WATCH/UNWATCH per spec §4.4's
// transition table — those five are handled by their own Executor methods,
// never queued.
func (e *Executor) Queue(c *State, cmd external.Command) {
	argv := make([]string, len(cmd.Argv))
	copy(argv, cmd.Argv)
	c.queue = append(c.queue, external.Command{Name: cmd.Name, Argv: argv})
}

// Discard releases c's queue and watches without executing anything.
func (e *Executor) Discard(c *State) error {
	if !c.inMulti {
		return ErrDiscardWithoutMulti
	}
	c.inMulti = false
	c.dirtyCAS = false
	c.queue = nil
	e.unwatchAll(c)
	return nil
}

// Watch registers c as a watcher of each key in db. Per spec §4.4's
// transition table, WATCH is only legal outside a MULTI block.
func (e *Executor) Watch(c *State, db int, keys ...string) error {
	if c.inMulti {
		return ErrWatchInsideMulti
	}
	ix := e.dbs.WatchIndex(db)
	for _, key := range keys {
		ix.Register(c, key)
		if !c.watching(db, key) {
			c.watches = append(c.watches, watchRecord{db: db, key: key})
		}
	}
	return nil
}

// watching reports whether (db, key) is already in c's watch list —
// WATCH's per-client dedup rule from spec §4.5.
func (c *State) watching(db int, key string) bool {
	for _, r := range c.watches {
		if r.db == db && r.key == key {
			return true
		}
	}
	return false
}

// Unwatch implements the UNWATCH command: clear DIRTY_CAS and unwatch
// everything. Always succeeds, per spec §4.4's transition table.
func (e *Executor) Unwatch(c *State) {
	c.dirtyCAS = false
	e.unwatchAll(c)
}

// unwatchAll walks c's watch list, removing c from each corresponding per-db
// index (and that entry entirely, if it empties), per spec §4.5.
func (e *Executor) unwatchAll(c *State) {
	for _, r := range c.watches {
		e.dbs.WatchIndex(r.db).Unregister(c, r.key)
	}
	c.watches = nil
}

// Exec implements spec §4.4's EXEC semantics, steps 1-6, for client
// identity `client` (opaque, passed through unchanged to CommandExecutor),
// replying through r and replicating/logging against database dbid.
func (e *Executor) Exec(c *State, client any, r external.Replyer, dbid int) error {
	if !c.inMulti {
		return ErrExecWithoutMulti
	}

	// Step 1: DIRTY_CAS short-circuit.
	if c.dirtyCAS {
		c.inMulti = false
		c.dirtyCAS = false
		c.queue = nil
		e.unwatchAll(c)
		r.ReplyNullMultiBulk()
		return nil
	}

	queue := c.queue
	c.queue = nil
	c.inMulti = false
	c.dirtyCAS = false

	// Step 2: synthetic MULTI marker, fed only now that the block is
	// actually about to run.
	e.aof.Feed(dbid, external.MultiMarker)
	e.repl.Feed(dbid, external.MultiMarker)

	// Step 3: UNWATCH-all before execution — watched state is irrelevant
	// once EXEC commits to running.
	e.unwatchAll(c)

	// Step 4: multi-bulk header, then sequential replay with argv
	// rewrite-back.
	r.ReplyMultiBulkLen(len(queue))
	for i := range queue {
		cmd := &queue[i]
		reply, err := e.exec.Call(client, cmd, external.FlagReplicated|external.FlagAOF)
		if err != nil {
			// One queued command's failure is reported in the reply stream
			// but does not abort the rest of the block (spec §7).
			r.Reply(err)
		} else {
			r.Reply(reply)
		}
		full := append([]string{cmd.Name}, cmd.Argv...)
		e.aof.Feed(dbid, full)
		e.repl.Feed(dbid, full)
	}

	// Step 5 (restoring the client's pre-EXEC command context) is the
	// caller's responsibility: this Executor never mutated client-level
	// "current command" state to begin with, since it only ever sees the
	// command vector it was handed.

	// Step 6: close the block with a literal EXEC in both streams, and bump
	// the server dirty counter unconditionally.
	e.aof.Feed(dbid, []string{"EXEC"})
	e.repl.Feed(dbid, []string{"EXEC"})
	if e.Dirty != nil {
		*e.Dirty++
	}
	return nil
}
