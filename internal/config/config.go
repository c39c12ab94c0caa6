// Copyright 2024 The Godis Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the ambient configuration for cmd/corekvd: the bits
// of godis's config surface that still apply once persistence, eviction,
// and wire-protocol framing are out of scope.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	flag "github.com/spf13/pflag"
)

// Config holds the demo server's configuration. Trimmed from godis's
// internal/config.Config: no RDB/AOF/eviction/ziplist-encoding fields, since
// those subsystems are explicit spec non-goals (SPEC_FULL §1).
type Config struct {
	LogLevel  string
	Databases int

	mu sync.RWMutex
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "notice",
		Databases: 16,
	}
}

// Global configuration instance.
var (
	globalConfig *Config
	once         sync.Once
)

// Instance returns the global configuration instance.
func Instance() *Config {
	once.Do(func() {
		globalConfig = Default()
	})
	return globalConfig
}

// ParseFlags parses command-line flags into c, using pflag the way the rest
// of the retrieval pack's CLI tools do (calvinalkan-agent-task's
// internal/cli) rather than stdlib flag.
func (c *Config) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("corekvd", flag.ContinueOnError)
	logLevel := fs.StringP("loglevel", "l", c.LogLevel, "log level: debug, verbose, notice, warning")
	databases := fs.IntP("databases", "n", c.Databases, "number of numbered databases")

	if err := fs.Parse(args); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.LogLevel = strings.ToLower(*logLevel)
	c.Databases = *databases
	return nil
}

// Get returns a configuration value by key.
func (c *Config) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch strings.ToLower(key) {
	case "loglevel":
		return c.LogLevel, true
	case "databases":
		return strconv.Itoa(c.Databases), true
	default:
		return "", false
	}
}

// Set sets a configuration value by key.
func (c *Config) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToLower(key) {
	case "loglevel":
		c.LogLevel = strings.ToLower(value)
	case "databases":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Databases = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// IsDebugEnabled returns true if the log level is debug.
func (c *Config) IsDebugEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel == "debug"
}

// IsVerboseEnabled returns true if the log level is verbose or debug.
func (c *Config) IsVerboseEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.LogLevel == "verbose" || c.LogLevel == "debug"
}
