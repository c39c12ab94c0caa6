// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store is the reference "external collaborator" spec.md leaves out
// of scope (§1): a minimal command table and in-memory sinks, just enough
// to run spec §8's end-to-end scenarios against internal/keyspace and
// internal/txn and observe the results.
package store

import "fmt"

// Status is a RESP-style simple status string ("+OK", "+QUEUED", ...). The
// transaction transition table (spec §4.4) calls for a QUEUED reply that
// spec §6's four named reply methods don't cover on their own, so queued
// acknowledgements are carried through Replyer.Reply as a Status value
// rather than growing the external.Replyer contract.
type Status string

// Nil represents RESP's null bulk string (a cache miss on GET, for example).
type Nil struct{}

// Recorder is the reference external.Replyer: it appends every reply
// emitted for one client into an ordered slice, the way a real connection
// would append bytes to its output buffer.
type Recorder struct {
	Out []any
}

// ReplyOK appends a status OK reply.
func (r *Recorder) ReplyOK() { r.Out = append(r.Out, Status("OK")) }

// ReplyError appends an error reply.
func (r *Recorder) ReplyError(msg string) { r.Out = append(r.Out, fmt.Errorf("%s", msg)) }

// ReplyNullMultiBulk appends EXEC's abort-signal reply (spec §7: DirtyCas
// surfaces as a null-multi-bulk, not an error).
func (r *Recorder) ReplyNullMultiBulk() { r.Out = append(r.Out, nil) }

// ReplyMultiBulkLen appends a multi-bulk length header of n.
func (r *Recorder) ReplyMultiBulkLen(n int) { r.Out = append(r.Out, MultiBulkHeader(n)) }

// Reply appends an arbitrary reply value (a queued command's own result, or
// the Status("QUEUED") acknowledgement).
func (r *Recorder) Reply(v any) { r.Out = append(r.Out, v) }

// MultiBulkHeader is the reply value ReplyMultiBulkLen records.
type MultiBulkHeader int

// Reset clears the recorded output, ready for the next client input line.
func (r *Recorder) Reset() { r.Out = r.Out[:0] }
