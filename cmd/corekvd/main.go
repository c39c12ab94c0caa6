// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command corekvd is an interactive line-oriented demo around the Dict and
// transaction-executor core. It reads one command per line from stdin and
// prints its reply, the way the teacher's TCP server reads one RESP command
// per round trip — except here there is no wire protocol to speak (spec
// §1's explicit non-goal), so the transport is stdin/stdout itself.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/corekv/corekv/internal/config"
	"github.com/corekv/corekv/internal/store"
	"github.com/corekv/corekv/pkg/log"
)

var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

func main() {
	cfg := config.Instance()
	if err := cfg.ParseFlags(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.SetLevelString(cfg.LogLevel)

	log.Info("corekvd %s starting, %d databases", Version, cfg.Databases)

	srv := store.NewServer(cfg.Databases)
	aof := &store.MemorySink{}
	repl := &store.MemorySink{}
	disp := store.NewDispatcher(srv, aof, repl)
	client := store.NewClient(0)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("corekvd shutdown complete")
		os.Exit(0)
	}()

	runREPL(os.Stdin, os.Stdout, disp, client)
}

// runREPL reads one command per line from in, dispatches it against disp,
// and writes a rendering of its reply to out. No yield points occur inside
// a single Dispatch call — the single-threaded, run-to-completion model of
// spec §5 — so each line is fully settled before the next is read.
func runREPL(in *os.File, out *os.File, disp *store.Dispatcher, client *store.Client) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "corekv[%d]> ", client.DB)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		name, argv := fields[0], fields[1:]

		client.Recorder.Reset()
		disp.Dispatch(client, name, argv)
		for _, reply := range client.Out {
			fmt.Fprintln(out, renderReply(reply))
		}
	}
}

func renderReply(v any) string {
	switch r := v.(type) {
	case nil:
		return "(nil)"
	case store.Nil:
		return "(nil)"
	case store.Status:
		return string(r)
	case store.MultiBulkHeader:
		return fmt.Sprintf("(%d results)", int(r))
	case error:
		return "(error) " + r.Error()
	default:
		return fmt.Sprintf("%v", r)
	}
}
