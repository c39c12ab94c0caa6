// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "testing"

func TestMultiExecHappyPathEndToEnd(t *testing.T) {
	srv := NewServer(1)
	aof, repl := &MemorySink{}, &MemorySink{}
	d := NewDispatcher(srv, aof, repl)
	c := NewClient(0)

	d.Dispatch(c, "MULTI", nil)
	d.Dispatch(c, "SET", []string{"a", "1"})
	d.Dispatch(c, "SET", []string{"b", "2"})
	d.Dispatch(c, "EXEC", nil)

	// MULTI -> OK, SET -> QUEUED, SET -> QUEUED, EXEC -> header + 2 replies.
	if len(c.Out) != 6 {
		t.Fatalf("expected 6 replies, got %d: %v", len(c.Out), c.Out)
	}
	if c.Out[0] != Status("OK") {
		t.Fatalf("MULTI reply = %v, want OK", c.Out[0])
	}
	if c.Out[1] != Status("QUEUED") || c.Out[2] != Status("QUEUED") {
		t.Fatalf("queued replies = %v, %v, want QUEUED twice", c.Out[1], c.Out[2])
	}
	if c.Out[3] != MultiBulkHeader(2) {
		t.Fatalf("EXEC header = %v, want *2", c.Out[3])
	}
	if c.Out[4] != Status("OK") || c.Out[5] != Status("OK") {
		t.Fatalf("expected both queued SETs to reply OK, got %v, %v", c.Out[4], c.Out[5])
	}

	v, ok := srv.DB(0).Dict().FetchValue("a")
	if !ok || v.(string) != "1" {
		t.Fatalf("a = %v, %v, want 1, true", v, ok)
	}
	v, ok = srv.DB(0).Dict().FetchValue("b")
	if !ok || v.(string) != "2" {
		t.Fatalf("b = %v, %v, want 2, true", v, ok)
	}

	if len(aof.Feeds) != 4 || aof.Feeds[0].Argv[0] != "MULTI" {
		t.Fatalf("expected AOF feed [MULTI, SET a 1, SET b 2, EXEC], got %v", aof.Feeds)
	}
	if srv.Dirty != 1 {
		t.Fatalf("expected dirty counter bumped exactly once by EXEC, got %d", srv.Dirty)
	}
}

func TestWatchTouchedAbortsExecEndToEnd(t *testing.T) {
	srv := NewServer(1)
	aof, repl := &MemorySink{}, &MemorySink{}
	d := NewDispatcher(srv, aof, repl)

	clientA := NewClient(0)
	clientB := NewClient(0)

	d.Dispatch(clientA, "WATCH", []string{"a"})
	d.Dispatch(clientA, "MULTI", nil)
	d.Dispatch(clientA, "GET", []string{"a"})

	d.Dispatch(clientB, "SET", []string{"a", "99"})

	d.Dispatch(clientA, "EXEC", nil)

	last := clientA.Out[len(clientA.Out)-1]
	if last != nil {
		t.Fatalf("expected A's EXEC reply to be a null-multi-bulk (nil), got %v", last)
	}

	v, _ := srv.DB(0).Dict().FetchValue("a")
	if v.(string) != "99" {
		t.Fatalf("expected B's write to have gone through, got %v", v)
	}
}

func TestWatchUntouchedExecSucceedsEndToEnd(t *testing.T) {
	srv := NewServer(1)
	aof, repl := &MemorySink{}, &MemorySink{}
	d := NewDispatcher(srv, aof, repl)

	c := NewClient(0)
	d.Dispatch(c, "WATCH", []string{"a"})
	d.Dispatch(c, "MULTI", nil)
	d.Dispatch(c, "INCR", []string{"a"})
	d.Dispatch(c, "EXEC", nil)

	// WATCH -> OK, MULTI -> OK, INCR -> QUEUED, EXEC -> *1 header + 1 reply.
	if len(c.Out) != 5 {
		t.Fatalf("expected 5 replies, got %v", c.Out)
	}
	if c.Out[3] != MultiBulkHeader(1) {
		t.Fatalf("expected *1 header, got %v", c.Out[3])
	}
	if c.Out[4] != int64(1) {
		t.Fatalf("expected INCR's reply to be 1, got %v", c.Out[4])
	}

	v, ok := srv.DB(0).Dict().FetchValue("a")
	if !ok || v.(string) != "1" {
		t.Fatalf("a = %v, %v, want 1, true", v, ok)
	}
}

func TestGetSetDelExists(t *testing.T) {
	srv := NewServer(1)
	aof, repl := &MemorySink{}, &MemorySink{}
	d := NewDispatcher(srv, aof, repl)
	c := NewClient(0)

	d.Dispatch(c, "GET", []string{"missing"})
	if c.Out[len(c.Out)-1] != (Nil{}) {
		t.Fatalf("expected Nil for a missing key")
	}

	d.Dispatch(c, "SET", []string{"k", "v"})
	d.Dispatch(c, "EXISTS", []string{"k", "missing"})
	if c.Out[len(c.Out)-1].(int64) != 1 {
		t.Fatalf("expected EXISTS to count 1 of 2 keys")
	}

	d.Dispatch(c, "DEL", []string{"k"})
	if c.Out[len(c.Out)-1].(int64) != 1 {
		t.Fatalf("expected DEL to report 1 removed key")
	}
	if srv.DB(0).Dict().Exists("k") {
		t.Fatalf("expected k gone after DEL")
	}

	if aof.Feeds[len(aof.Feeds)-1].Argv[0] != "DEL" {
		t.Fatalf("expected DEL to have been fed to AOF as a write")
	}
}

func TestFlushRaisesDirtyCasForWatchedExistingKeys(t *testing.T) {
	srv := NewServer(1)
	aof, repl := &MemorySink{}, &MemorySink{}
	d := NewDispatcher(srv, aof, repl)

	c := NewClient(0)
	d.Dispatch(c, "SET", []string{"a", "1"})
	d.Dispatch(c, "WATCH", []string{"a"})
	d.Dispatch(c, "MULTI", nil)
	d.Dispatch(c, "GET", []string{"a"})

	srv.Flush()

	d.Dispatch(c, "EXEC", nil)
	if c.Out[len(c.Out)-1] != nil {
		t.Fatalf("expected flush to have raised DIRTY_CAS, aborting EXEC")
	}
}
