// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package external declares the contracts spec §6 calls "external
// collaborators": the command executor a transaction block replays queued
// commands through, the AOF and replication sinks EXEC brackets with a
// synthetic MULTI marker, and the client reply API EXEC's control-flow
// outcomes (OK / error / null-multi-bulk / multi-bulk-length) are written
// through. None of these interfaces say anything about wire formats; that is
// deliberately left to whatever concrete collaborator a caller plugs in.
package external

// Command is one command awaiting (or having completed) execution: a name
// plus its argument vector. It is the unit queued by MULTI and replayed by
// EXEC.
type Command struct {
	Name string
	Argv []string
}

// CommandExecutor runs a client's current command under a given execution
// flag set (full replication + AOF + stat updates, mirroring the reference
// implementation's call() flags). It returns the command's reply and may
// rewrite cmd in place — some commands (e.g. SPOP turning into SREM) rewrite
// their own argv before replication, and EXEC must carry that rewrite back
// into the queue entry for any later replay of the same entry.
type CommandExecutor interface {
	Call(client any, cmd *Command, flags int) (reply any, err error)
}

// Execution flags passed to CommandExecutor.Call.
const (
	FlagReplicated = 1 << iota
	FlagAOF
)

// FlagNone denotes no execution flags set.
const FlagNone = 0

// Sink is the shape shared by the AOF sink and the replication fanout: feed
// one command's argv into the target's stream for database dbid.
type Sink interface {
	Feed(dbid int, argv []string)
}

// MultiMarker is the literal single-element argv EXEC synthesizes to
// bracket a transaction block in the AOF and replication streams, per spec
// §6 and §9 (`multi.c`'s execCommandReplicateMulti).
var MultiMarker = []string{"MULTI"}

// Replyer is the client reply API consumed by the transaction executor.
type Replyer interface {
	ReplyOK()
	ReplyError(msg string)
	ReplyNullMultiBulk()
	ReplyMultiBulkLen(n int)
	// Reply carries through an individual queued command's own reply value
	// during EXEC's sequential replay.
	Reply(v any)
}
