// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"github.com/corekv/corekv/internal/keyspace"
	"github.com/corekv/corekv/internal/watch"
)

// Server holds every numbered database plus the server-wide dirty counter
// spec §6 lists among the server globals the transaction executor consumes.
type Server struct {
	dbs   []*keyspace.DB
	Dirty int64
}

// NewServer creates a server with n numbered databases, 0..n-1.
func NewServer(n int) *Server {
	dbs := make([]*keyspace.DB, n)
	for i := range dbs {
		dbs[i] = keyspace.New(i)
	}
	return &Server{dbs: dbs}
}

// DB returns database i.
func (s *Server) DB(i int) *keyspace.DB { return s.dbs[i] }

// WatchIndex implements txn.Databases.
func (s *Server) WatchIndex(db int) *watch.Index { return s.dbs[db].WatchIndex() }

// Flush clears every database, raising DIRTY_CAS on watchers of keys that
// existed at flush time, per spec §4.5's flush-all rule.
func (s *Server) Flush() {
	for _, db := range s.dbs {
		db.Flush()
	}
}
