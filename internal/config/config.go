// Copyright © 2019 Binance
//
// This file is part of Binance. The full Binance copyright notice, including
// terms governing use, modification, and redistribution, is contained in the
// file LICENSE at the root of the source code distribution tree.

// Package config is an optional YAML overlay on top of the CLI flags: any
// field present in the file overrides its matching flag's default, letting a
// fleet of peers share one committed config instead of repeating flags on
// every invocation.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Session holds the subset of sign-client's settings an operator may want to
// pin in a file rather than pass on the command line every time.
type Session struct {
	Capacity int    `yaml:"capacity"`
	Proxy    string `yaml:"proxy"`
	Filename string `yaml:"filename"`
	Verbose  int    `yaml:"verbose"`
}

// Load reads and parses a YAML session config. A missing path is not an
// error: callers treat it as "no overlay" and keep flag defaults.
func Load(path string) (*Session, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	var s Session
	if err := yaml.Unmarshal(bz, &s); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &s, nil
}

// ApplyDefaults overlays any non-zero field of s onto the flag-derived
// values, returning the effective settings.
func (s *Session) ApplyDefaults(capacity int, proxy, filename string, verbose int) (int, string, string, int) {
	if s == nil {
		return capacity, proxy, filename, verbose
	}
	if s.Capacity != 0 {
		capacity = s.Capacity
	}
	if s.Proxy != "" {
		proxy = s.Proxy
	}
	if s.Filename != "" {
		filename = s.Filename
	}
	if s.Verbose != 0 {
		verbose = s.Verbose
	}
	return capacity, proxy, filename, verbose
}
