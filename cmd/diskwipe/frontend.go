// Copyright (c) 2025 Jeremy Hahn
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/jeremyhahn/go-diskwipe/pkg/wipe"
)

// ConsoleFrontend renders wipe progress to the terminal and gates the
// destructive action behind an explicit confirmation.
type ConsoleFrontend struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	IsTerminal func() bool
}

// WipeSession is a ConsoleFrontend bound to one device for the duration
// of a run. It implements wipe.Frontend.
type WipeSession struct {
	fe          *ConsoleFrontend
	deviceID    string
	autoConfirm bool

	passStart   time.Time
	progressing bool
}

// Session binds the frontend to a device. autoConfirm skips the
// interactive confirmation (--yes).
func (fe *ConsoleFrontend) Session(deviceID string, autoConfirm bool) *WipeSession {
	return &WipeSession{fe: fe, deviceID: deviceID, autoConfirm: autoConfirm}
}

// ConfirmDestructive asks the operator to retype the device ID before
// anything is written. Refused automatically when stdin is not a
// terminal and --yes was not given.
func (s *WipeSession) ConfirmDestructive() bool {
	if s.autoConfirm {
		return true
	}
	if s.fe.IsTerminal != nil && !s.fe.IsTerminal() {
		fmt.Fprintln(s.fe.Stderr, "Refusing to wipe without confirmation: stdin is not a terminal (use --yes)")
		return false
	}

	fmt.Fprintf(s.fe.Stdout, "\nThis will PERMANENTLY DESTROY all data on %s.\n", s.deviceID)
	fmt.Fprintf(s.fe.Stdout, "Type the device ID to confirm: ")

	line, err := bufio.NewReader(s.fe.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == s.deviceID
}

// Handle renders one driver event. It never fails the driver.
func (s *WipeSession) Handle(task *wipe.Task, state *wipe.State, e wipe.Event) {
	out := s.fe.Stdout
	total := task.End() - task.Offset
	passes := len(task.Scheme.Passes)

	switch e.Kind {
	case wipe.EventCreated:
		fmt.Fprintf(out, "Task %s\n", task.ID)
		fmt.Fprintf(out, "  Device:     %s\n", s.deviceID)
		fmt.Fprintf(out, "  Scheme:     %s (%s)\n", task.Scheme.Name, task.Scheme.Description)
		fmt.Fprintf(out, "  Verify:     %s\n", task.Verify)
		fmt.Fprintf(out, "  Size:       %s\n", binarySize(total))
		fmt.Fprintf(out, "  Block size: %s\n", binarySize(task.BlockSize))
		if task.Offset != 0 {
			fmt.Fprintf(out, "  Offset:     %s\n", binarySize(task.Offset))
		}
	case wipe.EventStarted:
		fmt.Fprintf(out, "\nWiping %s\n", s.deviceID)
	case wipe.EventPassStarted:
		s.passStart = time.Now()
		fmt.Fprintf(out, "Pass %d/%d: %s\n", e.Pass+1, passes, task.Scheme.Passes[e.Pass])
	case wipe.EventPassProgress:
		s.renderProgress("write", e.Bytes, total)
	case wipe.EventPassCompleted:
		s.endProgress()
	case wipe.EventVerifyStarted:
		s.passStart = time.Now()
		fmt.Fprintf(out, "Pass %d/%d: verifying\n", e.Pass+1, passes)
	case wipe.EventVerifyProgress:
		s.renderProgress("verify", e.Bytes, total)
	case wipe.EventVerifyCompleted:
		s.endProgress()
	case wipe.EventRetrying:
		s.endProgress()
		fmt.Fprintf(s.fe.Stderr, "Retrying block at offset %d (%d retries left): %v\n",
			e.Offset, state.RetriesLeft, e.Cause)
	case wipe.EventCompleted:
		s.endProgress()
		fmt.Fprintf(out, "\nWipe completed: %s written\n", binarySize(state.BytesWritten))
	case wipe.EventAborted:
		s.endProgress()
		fmt.Fprintf(s.fe.Stderr, "\nAborted: %v\n", e.Cause)
	case wipe.EventFatal:
		s.endProgress()
		fmt.Fprintf(s.fe.Stderr, "\nFatal: %v\n", e.Cause)
	}
}

func (s *WipeSession) renderProgress(verb string, done, total uint64) {
	var pct, rate float64
	if total > 0 {
		pct = float64(done) / float64(total) * 100
	}
	if elapsed := time.Since(s.passStart).Seconds(); elapsed > 0 {
		rate = float64(done) / elapsed
	}
	fmt.Fprintf(s.fe.Stdout, "\r  %s %s / %s (%.1f%%) %s/s    ",
		verb, binarySize(done), binarySize(total), pct, units.BytesSize(rate))
	s.progressing = true
}

func (s *WipeSession) endProgress() {
	if s.progressing {
		fmt.Fprintln(s.fe.Stdout)
		s.progressing = false
	}
}

// binarySize renders a byte count in binary units (KiB, MiB, ...).
func binarySize(n uint64) string {
	return units.BytesSize(float64(n))
}
