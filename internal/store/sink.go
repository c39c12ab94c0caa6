// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

// Fed is one call recorded by a MemorySink.
type Fed struct {
	DB   int
	Argv []string
}

// MemorySink is an in-memory external.Sink: it just remembers every feed
// call, in order. Used as both the AOF sink and the replication fanout in
// the reference server, and by tests asserting the exact sequence spec §8's
// scenarios describe (literal MULTI, then each command, then a literal
// EXEC).
type MemorySink struct {
	Feeds []Fed
}

// Feed implements external.Sink.
func (s *MemorySink) Feed(dbid int, argv []string) {
	cp := make([]string, len(argv))
	copy(cp, argv)
	s.Feeds = append(s.Feeds, Fed{DB: dbid, Argv: cp})
}
