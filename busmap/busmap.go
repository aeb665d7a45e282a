// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package busmap draws the result of an I²C scan on a terminal, in the
// layout of i2cdetect: one row per 16 addresses.
//
// Acknowledged addresses are printed in hex, silent ones as "--" and faulted
// ones as "XX". When the output is a terminal each cell is preceded by an
// ANSI 256 colors block.
package busmap

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"

	"github.com/GermanBionicSystems/envprobe/i2cscan"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Opts represents the options available for the map.
type Opts struct {
	// Palette used in color mode. Default is ansi256.Default.
	Palette *ansi256.Palette
	// Color forces color mode. It is also enabled when New picks stdout and
	// stdout is a terminal.
	Color bool

	_ struct{}
}

var (
	colorFound = color.NRGBA{0x00, 0xc0, 0x00, 0xff}
	colorNoAck = color.NRGBA{0x40, 0x40, 0x40, 0xff}
	colorFault = color.NRGBA{0xe0, 0x00, 0x00, 0xff}
)

type cell struct {
	probed bool
	status i2cscan.Status
}

// Map accumulates probes and renders them.
type Map struct {
	w       io.Writer
	palette ansi256.Palette
	color   bool

	cells [128]cell
	buf   bytes.Buffer
}

// New returns a Map writing to w. A nil w means stdout. The Opts can be nil.
func New(w io.Writer, opts *Opts) *Map {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	c := opts.Color
	if w == nil {
		w = colorable.NewColorableStdout()
		c = c || isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
	return &Map{w: w, palette: *p, color: c}
}

func (m *Map) String() string {
	return "busmap"
}

// Set records p. Addresses above 0x7f are ignored.
func (m *Map) Set(p i2cscan.Probe) {
	if p.Addr >= uint16(len(m.cells)) {
		return
	}
	m.cells[p.Addr] = cell{probed: true, status: p.Status}
}

// Count returns the number of recorded probes with status s.
func (m *Map) Count(s i2cscan.Status) int {
	n := 0
	for _, c := range m.cells {
		if c.probed && c.status == s {
			n++
		}
	}
	return n
}

// Render writes the whole map.
func (m *Map) Render() error {
	// This code is designed to minimize the amount of memory allocated per call.
	m.buf.Reset()
	_, _ = m.buf.WriteString("    ")
	for col := 0; col < 16; col++ {
		_, _ = fmt.Fprintf(&m.buf, "  %x", col)
	}
	_ = m.buf.WriteByte('\n')
	for row := 0; row < len(m.cells); row += 16 {
		_, _ = fmt.Fprintf(&m.buf, "%02x:", row)
		for col := 0; col < 16; col++ {
			m.writeCell(row + col)
		}
		_ = m.buf.WriteByte('\n')
	}
	_, err := m.buf.WriteTo(m.w)
	return err
}

func (m *Map) writeCell(addr int) {
	c := m.cells[addr]
	_ = m.buf.WriteByte(' ')
	if !c.probed {
		_, _ = m.buf.WriteString("  ")
		return
	}
	var text string
	var col color.NRGBA
	switch c.status {
	case i2cscan.Found:
		text, col = fmt.Sprintf("%02x", addr), colorFound
	case i2cscan.NoAck:
		text, col = "--", colorNoAck
	default:
		text, col = "XX", colorFault
	}
	if m.color {
		_, _ = io.WriteString(&m.buf, m.palette.Block(col))
		_, _ = m.buf.WriteString(text)
		_, _ = m.buf.WriteString("\033[0m")
		return
	}
	_, _ = m.buf.WriteString(text)
}

// Halt resets the terminal colors.
func (m *Map) Halt() error {
	if !m.color {
		return nil
	}
	_, err := m.w.Write([]byte("\033[0m"))
	return err
}

var _ fmt.Stringer = &Map{}
