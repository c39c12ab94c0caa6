// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keyspace is the trimmed analogue of godis's internal/database.DB:
// one database's main key dict paired with its watch index. Expiration and
// eviction, which the teacher's DB also carries, are out of spec scope here.
package keyspace

import (
	"github.com/corekv/corekv/internal/watch"
	"github.com/corekv/corekv/pkg/dict"
)

func valueKeyType() *dict.TypeDescriptor {
	return &dict.TypeDescriptor{
		HashFunction: func(key any) uint32 {
			return dict.GenHashFunction([]byte(key.(string)))
		},
	}
}

// DB is one numbered database: its own main dict and its own watch index.
type DB struct {
	id int
	d  *dict.Dict
	w  *watch.Index
}

// New creates an empty database numbered id.
func New(id int) *DB {
	return &DB{id: id, d: dict.New(valueKeyType(), nil), w: watch.NewIndex()}
}

// ID returns the database's number.
func (db *DB) ID() int { return db.id }

// Dict returns the database's main key/value store.
func (db *DB) Dict() *dict.Dict { return db.d }

// WatchIndex returns the database's watch index.
func (db *DB) WatchIndex() *watch.Index { return db.w }

// Touch notifies any watchers of key that it changed. Every write path in
// internal/store calls this after a successful mutation, per spec §4.5.
func (db *DB) Touch(key string) {
	db.w.Touch(key)
}

// Flush clears the database, raising DIRTY_CAS on every watcher of a key
// that existed at the moment of the flush — spec §4.5's flush-db rule:
// existence is checked before the keys are actually removed.
func (db *DB) Flush() {
	it := db.d.Iterator()
	keys := make([]string, 0, db.d.Len())
	for it.Next() {
		keys = append(keys, it.Key().(string))
	}
	for _, k := range keys {
		db.w.Touch(k)
	}
	db.d.Empty()
}
