// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watch implements the per-database watch index that backs
// MULTI/EXEC's optimistic-concurrency check: a key a client has WATCHed gets
// that client flagged dirty the moment any write path touches it, so EXEC
// can refuse to run a block built on stale reads.
package watch

import "github.com/corekv/corekv/pkg/dict"

// Client is the minimum a watcher must support: being told a watched key
// changed underneath it. internal/txn's per-client transaction state
// implements this.
type Client interface {
	MarkDirty()
}

// Index is one database's watched_keys table: key -> the clients currently
// watching it. It is itself a pkg/dict.Dict, per spec §4.5/§3 — the watch
// index is not a parallel data structure bolted on top of Dict, it is one.
type Index struct {
	d *dict.Dict
}

func keyType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		HashFunction: func(key any) uint32 {
			return dict.GenHashFunction([]byte(key.(string)))
		},
	}
}

// NewIndex creates an empty watch index for one database.
func NewIndex() *Index {
	return &Index{d: dict.New(keyType(), nil)}
}

// Register adds client to the watcher list for key, creating the list (and
// the Dict entry) if this is the first watcher. Re-registering the same
// client for the same key is a no-op (idempotent), per spec §4.5.
func (ix *Index) Register(client Client, key string) {
	watchers, ok := ix.d.FetchValue(key)
	if !ok {
		_ = ix.d.Add(key, []Client{client})
		return
	}
	list := watchers.([]Client)
	for _, c := range list {
		if c == client {
			return
		}
	}
	ent, _ := ix.d.Find(key)
	ent.SetValue(append(list, client))
}

// Unregister removes client from key's watcher list. If that empties the
// list, the Dict entry itself is removed — per spec §4.5's invariant that
// db.watched_keys[k] is never an empty list, it is removed instead.
func (ix *Index) Unregister(client Client, key string) {
	watchers, ok := ix.d.FetchValue(key)
	if !ok {
		return
	}
	list := watchers.([]Client)
	for i, c := range list {
		if c == client {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		_ = ix.d.Delete(key)
		return
	}
	ent, _ := ix.d.Find(key)
	ent.SetValue(list)
}

// Touch marks DIRTY_CAS on every client currently watching key. Watch-list
// membership is unaffected: clients stay registered until they unwatch.
func (ix *Index) Touch(key string) {
	watchers, ok := ix.d.FetchValue(key)
	if !ok {
		return
	}
	for _, c := range watchers.([]Client) {
		c.MarkDirty()
	}
}

// Watching reports whether key currently has at least one watcher.
func (ix *Index) Watching(key string) bool {
	return ix.d.Exists(key)
}
