// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

// Package wipe implements sanitization schemes for block storage and the
// driver that executes them: ordered overwrite passes pulled from
// constant or deterministic random byte streams, with block-level retry,
// optional read-back verification and lifecycle events.
package wipe

import (
	"fmt"
	"sort"
	"strings"
)

// PassKind discriminates the closed set of pass variants.
type PassKind int

const (
	// FillPass writes a single constant byte repeatedly.
	FillPass PassKind = iota

	// RandomPass writes a deterministic cryptographic stream keyed by a
	// fresh seed drawn at pass start and recorded into the task state.
	RandomPass
)

// Pass is one full traversal of the device writing a single byte stream.
type Pass struct {
	Kind PassKind
	Byte byte // fill byte, FillPass only
}

// Fill returns a constant-byte pass.
func Fill(b byte) Pass {
	return Pass{Kind: FillPass, Byte: b}
}

// Random returns a fresh-seeded random pass.
func Random() Pass {
	return Pass{Kind: RandomPass}
}

func (p Pass) String() string {
	if p.Kind == RandomPass {
		return "random"
	}
	return fmt.Sprintf("fill 0x%02X", p.Byte)
}

// Scheme is a named ordered sequence of passes.
type Scheme struct {
	Name        string
	Description string
	Passes      []Pass
}

// DefaultScheme is the scheme used when none is requested.
const DefaultScheme = "random2x"

// SchemeRepo maps scheme keys to their pass sequences. The set is fixed
// at build time.
type SchemeRepo struct {
	schemes map[string]Scheme
}

// NewSchemeRepo returns the built-in scheme library.
func NewSchemeRepo() *SchemeRepo {
	schemes := []Scheme{
		{
			Name:        "zero",
			Description: "single zero-fill pass",
			Passes:      []Pass{Fill(0x00)},
		},
		{
			Name:        "one",
			Description: "single one-fill pass",
			Passes:      []Pass{Fill(0xFF)},
		},
		{
			Name:        "random",
			Description: "single random pass",
			Passes:      []Pass{Random()},
		},
		{
			Name:        "random2x",
			Description: "double random pass",
			Passes:      []Pass{Random(), Random()},
		},
		{
			Name:        "gost",
			Description: "GOST R 50739-95",
			Passes:      []Pass{Fill(0x00), Random()},
		},
		{
			Name:        "dod",
			Description: "DoD 5220.22-M",
			Passes:      []Pass{Fill(0x00), Fill(0xFF), Random()},
		},
		{
			Name:        "vsitr",
			Description: "German VSITR",
			Passes: []Pass{
				Fill(0x00), Fill(0xFF),
				Fill(0x00), Fill(0xFF),
				Fill(0x00), Fill(0xFF),
				Random(),
			},
		},
	}

	m := make(map[string]Scheme, len(schemes))
	for _, s := range schemes {
		m[s.Name] = s
	}
	return &SchemeRepo{schemes: m}
}

// All returns the full scheme map.
func (r *SchemeRepo) All() map[string]Scheme {
	return r.schemes
}

// Keys returns the scheme keys in sorted order.
func (r *SchemeRepo) Keys() []string {
	keys := make([]string, 0, len(r.schemes))
	for k := range r.schemes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Find returns the scheme for key, if any.
func (r *SchemeRepo) Find(key string) (Scheme, bool) {
	s, ok := r.schemes[key]
	return s, ok
}

// Explain renders a human-readable listing of every scheme and its
// passes, for CLI help output.
func (r *SchemeRepo) Explain() string {
	var b strings.Builder
	b.WriteString("Data sanitization schemes:\n")
	for _, k := range r.Keys() {
		s := r.schemes[k]
		def := ""
		if k == DefaultScheme {
			def = " (default)"
		}
		fmt.Fprintf(&b, "  %-10s %s%s\n", k, s.Description, def)
		for i, p := range s.Passes {
			fmt.Fprintf(&b, "             pass %d: %s\n", i+1, p)
		}
	}
	return b.String()
}
