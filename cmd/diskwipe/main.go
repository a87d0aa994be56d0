// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremyhahn/go-diskwipe/pkg/wipe"
)

// Version is set at build time via -ldflags
var Version = "dev"

const banner = `
diskwipe
Secure block device sanitization
`

const usage = `
USAGE:
    diskwipe <command> [options]

COMMANDS:
    list                         List available storage devices
    wipe [options] <device>      Wipe a storage device
                                 Options: --scheme, --verify, --blocksize,
                                          --offset, --retries, --trim, --yes
    schemes                      Explain the available sanitization schemes
    help                         Show this help message
    version                      Show version information

EXAMPLES:
    # List devices and their short IDs
    sudo diskwipe list

    # Two random passes, verify the last one (defaults)
    sudo diskwipe wipe /dev/sdb

    # DoD 5220.22-M, verify every pass, 4 MiB blocks
    sudo diskwipe wipe --scheme dod --verify all --blocksize 4m /dev/sdb

    # Zero-fill without confirmation prompt (CAUTION)
    sudo diskwipe wipe --scheme zero --yes /dev/sdb

NOTE:
    - Requires root privileges to open devices exclusively
    - A device in use by another process is refused, not forced
    - Ctrl-C finishes the current block, flushes and aborts cleanly
`

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		wipe.RequestCancel()
	}()

	cli := NewCLI()
	code := cli.Run()
	if code != 0 {
		cli.ExitFunc(code)
	}
}
