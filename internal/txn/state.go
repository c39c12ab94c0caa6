// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package txn implements the MULTI/EXEC/DISCARD/WATCH/UNWATCH state machine
// and the EXEC executor that replays a queued block against an external
// command executor, bracketing it with AOF/replication markers.
package txn

import (
	"errors"

	"github.com/corekv/corekv/internal/external"
)

// Protocol-misuse errors, reported as error replies with state unchanged —
// spec §7's ProtocolMisuse taxonomy entry. Named the way the teacher's
// internal/transaction/manager.go names its own transaction errors.
var (
	ErrMultiNested         = errors.New("ERR MULTI calls can not be nested")
	ErrExecWithoutMulti    = errors.New("ERR EXEC without MULTI")
	ErrDiscardWithoutMulti = errors.New("ERR DISCARD without MULTI")
	ErrWatchInsideMulti    = errors.New("ERR WATCH inside MULTI is not allowed")
)

// watchRecord is one entry in a client's per-client watch list: spec §4.5's
// "(key, db)" pair.
type watchRecord struct {
	db  int
	key string
}

// State is one client's transaction state: spec §4.4's "flags: MULTI,
// DIRTY_CAS" plus the queue and the client's own ordered watch list.
type State struct {
	inMulti  bool
	dirtyCAS bool
	queue    []external.Command
	watches  []watchRecord
}

// NewState returns a fresh, idle transaction state.
func NewState() *State {
	return &State{}
}

// MarkDirty implements watch.Client: a watched key this client is following
// was touched. Satisfies spec §4.5's invalidation contract.
func (s *State) MarkDirty() {
	s.dirtyCAS = true
}

// InMulti reports whether the client is inside a MULTI block.
func (s *State) InMulti() bool { return s.inMulti }

// DirtyCAS reports whether a watched key has been touched since WATCH.
func (s *State) DirtyCAS() bool { return s.dirtyCAS }

// QueueLen reports the number of commands currently queued.
func (s *State) QueueLen() int { return len(s.queue) }
