// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/jeremyhahn/go-diskwipe/pkg/storage"
	"github.com/jeremyhahn/go-diskwipe/pkg/wipe"
)

// Enumerator lists the host's storage devices.
type Enumerator func() ([]*storage.StorageRef, error)

// CLI is the command-line application with injectable dependencies.
type CLI struct {
	Args      []string
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Enumerate Enumerator
	IsWSL     func() bool
	ExitFunc  func(code int)

	isTerminal func() bool
	schemes    *wipe.SchemeRepo
}

// NewCLI creates a CLI wired to the real host.
func NewCLI() *CLI {
	return &CLI{
		Args:       os.Args,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Enumerate:  storage.Enumerate,
		IsWSL:      storage.IsWSL,
		ExitFunc:   os.Exit,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		schemes:    wipe.NewSchemeRepo(),
	}
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() int {
	if c.schemes == nil {
		c.schemes = wipe.NewSchemeRepo()
	}

	if len(c.Args) < 2 {
		c.showUsage()
		return 1
	}

	switch c.Args[1] {
	case "list":
		return c.cmdList()
	case "wipe":
		return c.cmdWipe()
	case "schemes":
		_, _ = fmt.Fprint(c.Stdout, c.schemes.Explain())
		return 0
	case "help", "--help", "-h":
		c.showUsage()
		return 0
	case "version", "--version":
		_, _ = fmt.Fprintf(c.Stdout, "diskwipe version %s\n", Version)
		return 0
	default:
		_, _ = fmt.Fprintf(c.Stderr, "Unknown command: %s\n\n", c.Args[1])
		c.showUsage()
		return 1
	}
}

func (c *CLI) showUsage() {
	_, _ = fmt.Fprint(c.Stdout, banner)
	_, _ = fmt.Fprint(c.Stdout, usage)
}

func (c *CLI) catalog() (*storage.Repo, int) {
	if c.IsWSL != nil && c.IsWSL() {
		_, _ = fmt.Fprintln(c.Stderr, "WSL is not supported: raw block devices are not exposed.")
		return nil, 1
	}
	devices, err := c.Enumerate()
	if err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "Unable to enumerate storage devices: %v\n", err)
		return nil, 1
	}
	return storage.NewRepo(devices), 0
}

// cmdList prints the device catalog as a table.
func (c *CLI) cmdList() int {
	repo, code := c.catalog()
	if repo == nil {
		return code
	}

	devices := repo.Devices()
	if len(devices) == 0 {
		_, _ = fmt.Fprintln(c.Stderr, "No devices found! Are you running the application with root/administrator permissions?")
		return 1
	}

	type row struct{ id, short, size, typ, label, mount string }
	rows := []row{{"Device ID", "Short ID", "Size", "Type", "Label", "Mount Point"}}

	var addRow func(ref *storage.StorageRef, level int)
	addRow = func(ref *storage.StorageRef, level int) {
		rows = append(rows, row{
			id:    strings.Repeat("  ", level) + ref.ID,
			short: repo.ShortID(ref.ID),
			size:  binarySize(ref.Details.Size),
			typ:   ref.Details.StorageType.String(),
			label: ref.Details.Label,
			mount: ref.Details.MountPoint,
		})
		for _, child := range ref.Children {
			addRow(child, level+1)
		}
	}
	for _, d := range devices {
		addRow(d, 0)
	}

	widths := [6]int{}
	for _, r := range rows {
		for i, cell := range []string{r.id, r.short, r.size, r.typ, r.label, r.mount} {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(c.Stdout, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
			widths[0], r.id, widths[1], r.short, widths[2], r.size,
			widths[3], r.typ, widths[4], r.label, r.mount)
	}
	return 0
}

// wipeOptions holds parsed wipe command options.
type wipeOptions struct {
	device    string
	scheme    string
	verify    string
	blockSize string
	offset    string
	retries   int
	trim      bool
	yes       bool
}

func (c *CLI) parseWipeFlags() (*wipeOptions, error) {
	opts := &wipeOptions{}

	fs := flag.NewFlagSet("wipe", flag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	fs.StringVarP(&opts.scheme, "scheme", "s", wipe.DefaultScheme, "data sanitization scheme")
	fs.StringVarP(&opts.verify, "verify", "v", "last", "verify after completion: no, last or all")
	fs.StringVarP(&opts.blockSize, "blocksize", "b", "1m", "block size")
	fs.StringVarP(&opts.offset, "offset", "o", "0", "starting offset in bytes")
	fs.IntVarP(&opts.retries, "retries", "r", 8, "maximum number of retries")
	fs.BoolVar(&opts.trim, "trim", false, "issue TRIM/DISCARD after a successful wipe (SSDs)")
	fs.BoolVarP(&opts.yes, "yes", "y", false, "automatically confirm")

	if err := fs.Parse(c.Args[2:]); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, errors.New("exactly one device ID is required")
	}
	opts.device = fs.Arg(0)
	return opts, nil
}

// cmdWipe runs a wipe task against a catalog device.
func (c *CLI) cmdWipe() int {
	opts, err := c.parseWipeFlags()
	if err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "Error: %v\n", err)
		_, _ = fmt.Fprintln(c.Stderr, "Usage: diskwipe wipe [options] <device>")
		return 1
	}

	scheme, ok := c.schemes.Find(opts.scheme)
	if !ok {
		_, _ = fmt.Fprintf(c.Stderr, "Unknown scheme %q (available: %s)\n",
			opts.scheme, strings.Join(c.schemes.Keys(), ", "))
		return 1
	}

	var verify wipe.Verify
	switch opts.verify {
	case "no":
		verify = wipe.VerifyNo
	case "last":
		verify = wipe.VerifyLast
	case "all":
		verify = wipe.VerifyAll
	default:
		_, _ = fmt.Fprintf(c.Stderr, "Invalid verify value %q (use no, last or all)\n", opts.verify)
		return 1
	}

	blockSize, err := ParseBlockSize(opts.blockSize)
	if err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "Invalid blocksize value %q: %v\n", opts.blockSize, err)
		return 1
	}
	offset, err := ParseBytes(opts.offset)
	if err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "Invalid offset value %q: %v\n", opts.offset, err)
		return 1
	}
	if opts.retries < 0 {
		_, _ = fmt.Fprintln(c.Stderr, "Invalid retries value: must be >= 0")
		return 1
	}

	repo, code := c.catalog()
	if repo == nil {
		return code
	}
	device := repo.FindByID(opts.device)
	if device == nil {
		_, _ = fmt.Fprintf(c.Stderr, "Unknown device %q\n", opts.device)
		return 1
	}

	task, err := wipe.NewTask(scheme, verify, device.Details.Size, blockSize, offset)
	if err != nil {
		_, _ = fmt.Fprintf(c.Stderr, "Error: %v\n", err)
		return 1
	}
	state := wipe.NewState(opts.retries)

	frontend := &ConsoleFrontend{
		Stdin:      c.Stdin,
		Stdout:     c.Stdout,
		Stderr:     c.Stderr,
		IsTerminal: c.isTerminal,
	}
	session := frontend.Session(device.ID, opts.yes)
	session.Handle(task, state, wipe.Event{Kind: wipe.EventCreated})

	access, err := device.Access()
	if err != nil {
		session.Handle(task, state, wipe.Event{Kind: wipe.EventFatal, Cause: err})
		return 1
	}
	defer func() { _ = access.Close() }()

	if !task.Run(access, state, session) {
		return 1
	}

	if opts.trim {
		if d, ok := access.(storage.Discarder); ok {
			if err := d.Discard(); err != nil {
				_, _ = fmt.Fprintf(c.Stderr, "Warning: TRIM failed: %v\n", err)
			} else {
				_, _ = fmt.Fprintln(c.Stdout, "TRIM issued")
			}
		}
	}
	return 0
}
