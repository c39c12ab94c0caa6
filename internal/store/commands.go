// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"strconv"

	"github.com/corekv/corekv/internal/keyspace"
)

// runCommand is the one command table this module needs to make the Dict
// and the transaction executor observable end to end: enough of a keyspace
// to GET/SET/INCR/DEL/EXISTS against, nothing more. wrote reports whether
// the command mutated the keyspace, for the caller to decide whether to
// feed the AOF/replication sinks and bump the dirty counter.
func runCommand(db *keyspace.DB, name string, argv []string) (reply any, wrote bool, err error) {
	switch name {
	case "SET":
		return cmdSet(db, argv)
	case "GET":
		return cmdGet(db, argv)
	case "INCR":
		return cmdIncr(db, argv)
	case "DEL":
		return cmdDel(db, argv)
	case "EXISTS":
		return cmdExists(db, argv)
	default:
		return nil, false, fmt.Errorf("ERR unknown command '%s'", name)
	}
}

func cmdSet(db *keyspace.DB, argv []string) (any, bool, error) {
	if len(argv) != 2 {
		return nil, false, fmt.Errorf("ERR wrong number of arguments for 'set' command")
	}
	key, val := argv[0], argv[1]
	if _, err := db.Dict().Replace(key, val); err != nil {
		return nil, false, err
	}
	db.Touch(key)
	return Status("OK"), true, nil
}

func cmdGet(db *keyspace.DB, argv []string) (any, bool, error) {
	if len(argv) != 1 {
		return nil, false, fmt.Errorf("ERR wrong number of arguments for 'get' command")
	}
	v, ok := db.Dict().FetchValue(argv[0])
	if !ok {
		return Nil{}, false, nil
	}
	return v, false, nil
}

func cmdIncr(db *keyspace.DB, argv []string) (any, bool, error) {
	if len(argv) != 1 {
		return nil, false, fmt.Errorf("ERR wrong number of arguments for 'incr' command")
	}
	key := argv[0]
	cur := int64(0)
	if v, ok := db.Dict().FetchValue(key); ok {
		n, err := strconv.ParseInt(v.(string), 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("ERR value is not an integer or out of range")
		}
		cur = n
	}
	cur++
	if _, err := db.Dict().Replace(key, strconv.FormatInt(cur, 10)); err != nil {
		return nil, false, err
	}
	db.Touch(key)
	return cur, true, nil
}

func cmdDel(db *keyspace.DB, argv []string) (any, bool, error) {
	if len(argv) == 0 {
		return nil, false, fmt.Errorf("ERR wrong number of arguments for 'del' command")
	}
	var removed int64
	for _, key := range argv {
		if err := db.Dict().Delete(key); err == nil {
			removed++
			db.Touch(key)
		}
	}
	return removed, removed > 0, nil
}

func cmdExists(db *keyspace.DB, argv []string) (any, bool, error) {
	if len(argv) == 0 {
		return nil, false, fmt.Errorf("ERR wrong number of arguments for 'exists' command")
	}
	var count int64
	for _, key := range argv {
		if db.Dict().Exists(key) {
			count++
		}
	}
	return count, false, nil
}
