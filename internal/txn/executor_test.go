// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package txn

import (
	"testing"

	"github.com/corekv/corekv/internal/external"
	"github.com/corekv/corekv/internal/watch"
)

// fakeDBs is a single-database Databases implementation for tests.
type fakeDBs struct {
	ix *watch.Index
}

func newFakeDBs() *fakeDBs { return &fakeDBs{ix: watch.NewIndex()} }

func (f *fakeDBs) WatchIndex(db int) *watch.Index { return f.ix }

// fakeExec echoes each command's name back as its reply, recording the
// calls it received in order.
type fakeExec struct {
	calls []external.Command
}

func (f *fakeExec) Call(client any, cmd *external.Command, flags int) (any, error) {
	f.calls = append(f.calls, *cmd)
	return cmd.Name, nil
}

// fakeReplyer records every reply call made to it, in order, as plain
// strings, so a test can assert on the exact reply stream shape spec §8
// describes ("+OK, +QUEUED, +QUEUED, *2 +OK +OK").
type fakeReplyer struct {
	out []string
}

func (r *fakeReplyer) ReplyOK()               { r.out = append(r.out, "+OK") }
func (r *fakeReplyer) ReplyError(msg string)  { r.out = append(r.out, "-"+msg) }
func (r *fakeReplyer) ReplyNullMultiBulk()    { r.out = append(r.out, "*-1") }
func (r *fakeReplyer) ReplyMultiBulkLen(n int) { r.out = append(r.out, "*"+itoa(n)) }
func (r *fakeReplyer) Reply(v any)            { r.out = append(r.out, "+"+v.(string)) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestMultiExecHappyPath(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	c := NewState()
	r := &fakeReplyer{}

	if err := e.Multi(c); err != nil {
		t.Fatalf("Multi: %v", err)
	}
	r.ReplyOK()

	e.Queue(c, external.Command{Name: "SET", Argv: []string{"a", "1"}})
	r.Reply("QUEUED")
	e.Queue(c, external.Command{Name: "SET", Argv: []string{"b", "2"}})
	r.Reply("QUEUED")

	if err := e.Exec(c, "client", r, 0); err != nil {
		t.Fatalf("Exec: %v", err)
	}

	want := []string{"+OK", "+QUEUED", "+QUEUED", "*2", "+SET", "+SET"}
	if len(r.out) != len(want) {
		t.Fatalf("reply stream = %v, want %v", r.out, want)
	}
	for i := range want {
		if r.out[i] != want[i] {
			t.Fatalf("reply[%d] = %q, want %q (full: %v)", i, r.out[i], want[i], r.out)
		}
	}

	if len(exec.calls) != 2 {
		t.Fatalf("expected 2 replayed commands, got %d", len(exec.calls))
	}
	if len(aof.fed) != 4 || aof.fed[0].name != "MULTI" {
		t.Fatalf("expected AOF feed [MULTI, SET, SET, EXEC], got %v", aof.fed)
	}
	if c.InMulti() || c.QueueLen() != 0 {
		t.Fatalf("expected clean post-EXEC state")
	}
}

func TestWatchTouchedAbortsExec(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	a := NewState()
	if err := e.Watch(a, 0, "a"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := e.Multi(a); err != nil {
		t.Fatalf("Multi: %v", err)
	}
	e.Queue(a, external.Command{Name: "GET", Argv: []string{"a"}})

	// Client B's write touches "a".
	dbs.ix.Touch("a")

	r := &fakeReplyer{}
	if err := e.Exec(a, "A", r, 0); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(r.out) != 1 || r.out[0] != "*-1" {
		t.Fatalf("expected a lone null-multi-bulk reply, got %v", r.out)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("expected no queued command to run, got %d calls", len(exec.calls))
	}
	if len(aof.fed) != 0 {
		t.Fatalf("expected no AOF feed on an aborted EXEC, got %v", aof.fed)
	}
}

func TestWatchUntouchedExecSucceedsAndClearsWatches(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	a := NewState()
	if err := e.Watch(a, 0, "a"); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if !dbs.ix.Watching("a") {
		t.Fatalf("expected a to be watched")
	}
	if err := e.Multi(a); err != nil {
		t.Fatalf("Multi: %v", err)
	}
	e.Queue(a, external.Command{Name: "INCR", Argv: []string{"a"}})

	r := &fakeReplyer{}
	if err := e.Exec(a, "A", r, 0); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(r.out) != 2 || r.out[0] != "*1" {
		t.Fatalf("expected a multi-bulk header then one reply, got %v", r.out)
	}
	if len(a.watches) != 0 {
		t.Fatalf("expected client's watch list empty after EXEC, got %v", a.watches)
	}
	if dbs.ix.Watching("a") {
		t.Fatalf("expected a to have no watchers left in the index after EXEC")
	}
}

func TestExecWithoutMultiIsProtocolMisuse(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	c := NewState()
	if err := e.Exec(c, "client", &fakeReplyer{}, 0); err != ErrExecWithoutMulti {
		t.Fatalf("expected ErrExecWithoutMulti, got %v", err)
	}
}

func TestMultiNestingIsProtocolMisuse(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	c := NewState()
	_ = e.Multi(c)
	if err := e.Multi(c); err != ErrMultiNested {
		t.Fatalf("expected ErrMultiNested, got %v", err)
	}
}

func TestWatchInsideMultiIsProtocolMisuse(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	c := NewState()
	_ = e.Multi(c)
	if err := e.Watch(c, 0, "a"); err != ErrWatchInsideMulti {
		t.Fatalf("expected ErrWatchInsideMulti, got %v", err)
	}
}

func TestDiscardReleasesQueueAndWatches(t *testing.T) {
	dbs := newFakeDBs()
	exec := &fakeExec{}
	aof, repl := &fakeSink{}, &fakeSink{}
	e := NewExecutor(dbs, exec, aof, repl, new(int64))

	c := NewState()
	_ = e.Watch(c, 0, "a")
	_ = e.Multi(c)
	e.Queue(c, external.Command{Name: "GET", Argv: []string{"a"}})

	if err := e.Discard(c); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if c.InMulti() || c.QueueLen() != 0 {
		t.Fatalf("expected Discard to clear MULTI state")
	}
	if dbs.ix.Watching("a") {
		t.Fatalf("expected Discard to unwatch everything")
	}
}

type fakeSink struct {
	fed []fedCall
}

type fedCall struct {
	db   int
	name string
}

func (s *fakeSink) Feed(dbid int, argv []string) {
	s.fed = append(s.fed, fedCall{db: dbid, name: argv[0]})
}
