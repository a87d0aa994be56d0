// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var bytesRe = regexp.MustCompile(`^(?i)(\d+) *(([kmgt])b?)?$`)

// ParseBytes parses a byte count with an optional binary scale suffix,
// e.g. "4096", "128k" or "2M". Unit factors are powers of 1024.
func ParseBytes(s string) (uint64, error) {
	groups := bytesRe.FindStringSubmatch(s)
	if groups == nil {
		return 0, fmt.Errorf("use a number of bytes with optional scale (e.g. 4096, 128k or 2M)")
	}

	units, err := strconv.ParseUint(groups[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %w", err)
	}

	var factor uint64 = 1
	switch strings.ToUpper(groups[3]) {
	case "K":
		factor = 1024
	case "M":
		factor = 1024 * 1024
	case "G":
		factor = 1024 * 1024 * 1024
	case "T":
		factor = 1024 * 1024 * 1024 * 1024
	}

	return units * factor, nil
}

// ParseBlockSize parses a byte count that must also be a power of two.
func ParseBlockSize(s string) (uint64, error) {
	size, err := ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if size == 0 || size&(size-1) != 0 {
		return 0, fmt.Errorf("should be a power of two")
	}
	return size, nil
}
