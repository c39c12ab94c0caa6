// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"strings"

	"github.com/corekv/corekv/internal/external"
	"github.com/corekv/corekv/internal/txn"
)

// Client is one connected client's state: its transaction state, its
// currently-selected database, and the reply stream it accumulates —
// the reference Replyer (spec §6's client reply API).
type Client struct {
	*txn.State
	*Recorder
	DB int
}

// NewClient returns a fresh client selected onto database db.
func NewClient(db int) *Client {
	return &Client{State: txn.NewState(), Recorder: &Recorder{}, DB: db}
}

// Dispatcher wires a Server, a transaction Executor, and a pair of sinks
// into one place clients submit command lines to. It is godis's
// internal/command.Dispatcher, trimmed to this module's five-command table
// plus the transaction commands.
type Dispatcher struct {
	server   *Server
	executor *txn.Executor
	aof      external.Sink
	repl     external.Sink
}

// NewDispatcher builds a Dispatcher over server, feeding aof and repl for
// every write (direct or replayed out of a transaction block).
func NewDispatcher(server *Server, aof, repl external.Sink) *Dispatcher {
	d := &Dispatcher{server: server, aof: aof, repl: repl}
	d.executor = txn.NewExecutor(server, d, aof, repl, &server.Dirty)
	return d
}

// Call implements external.CommandExecutor: it is the path EXEC's replay
// loop invokes for each queued command.
func (d *Dispatcher) Call(client any, cmd *external.Command, flags int) (any, error) {
	c := client.(*Client)
	reply, _, err := runCommand(d.server.DB(c.DB), cmd.Name, cmd.Argv)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

var controlCommands = map[string]bool{
	"MULTI": true, "EXEC": true, "DISCARD": true, "WATCH": true, "UNWATCH": true,
}

// Dispatch runs one command line for c, per spec §4.4's transition table.
func (d *Dispatcher) Dispatch(c *Client, name string, argv []string) {
	name = strings.ToUpper(name)

	switch name {
	case "MULTI":
		if err := d.executor.Multi(c.State); err != nil {
			c.ReplyError(err.Error())
			return
		}
		c.ReplyOK()
		return
	case "DISCARD":
		if err := d.executor.Discard(c.State); err != nil {
			c.ReplyError(err.Error())
			return
		}
		c.ReplyOK()
		return
	case "EXEC":
		if err := d.executor.Exec(c.State, c, c.Recorder, c.DB); err != nil {
			c.ReplyError(err.Error())
		}
		return
	case "WATCH":
		if err := d.executor.Watch(c.State, c.DB, argv...); err != nil {
			c.ReplyError(err.Error())
			return
		}
		c.ReplyOK()
		return
	case "UNWATCH":
		d.executor.Unwatch(c.State)
		c.ReplyOK()
		return
	}

	if c.InMulti() && !controlCommands[name] {
		d.executor.Queue(c.State, external.Command{Name: name, Argv: argv})
		c.Reply(Status("QUEUED"))
		return
	}

	reply, wrote, err := runCommand(d.server.DB(c.DB), name, argv)
	if err != nil {
		c.ReplyError(err.Error())
		return
	}
	c.Reply(reply)

	if wrote {
		full := append([]string{name}, argv...)
		d.aof.Feed(c.DB, full)
		d.repl.Feed(c.DB, full)
		d.server.Dirty++
	}
}
