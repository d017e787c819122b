// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prd talks to the OPAL PRD (Processor Runtime Diagnostics)
// channel: get-info and SCOM chip register access. Every request is a
// fixed-format synchronous pass-through; there is no state machine
// here.
package prd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// PRD interface constants, from the opal-prd uapi header.
const (
	Version      = 1
	RangeNameLen = 32
	MaxRanges    = 8
)

// Range is one named physical address range exported by the PRD
// interface.
type Range struct {
	Name     [RangeNameLen]byte
	PhysAddr uint64
	Size     uint64
}

// RangeName returns the NUL-trimmed name of the range.
func (r *Range) RangeName() string {
	return strings.TrimRight(string(r.Name[:]), "\x00")
}

// Info describes the PRD interface of the running firmware: its
// version, the size of the diagnostics code image and up to MaxRanges
// named address ranges.
type Info struct {
	Version  uint64
	CodeSize uint64
	Ranges   [MaxRanges]Range
}

// ActiveRanges returns the ranges actually populated by the firmware.
func (i *Info) ActiveRanges() []Range {
	var out []Range
	for _, r := range i.Ranges {
		if r.Size != 0 {
			out = append(out, r)
		}
	}
	return out
}

// Scom is the request/response block of a SCOM register access.
type Scom struct {
	Chip uint64
	Addr uint64
	Data uint64
}

// Wire sizes of the fixed-format request blocks.
const (
	infoSize = 16 + MaxRanges*(RangeNameLen+16)
	scomSize = 24
)

// ioctl direction bits.
const (
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint) uint {
	return dir<<30 | size<<16 | typ<<8 | nr
}

// Request numbers of the opal-prd character device.
var (
	ReqGetInfo   = ioc(iocRead, 'o', 0x01, infoSize)
	ReqScomRead  = ioc(iocRead, 'o', 0x10, scomSize)
	ReqScomWrite = ioc(iocWrite, 'o', 0x11, scomSize)
)

// Conduit performs one control request against the diagnostics channel.
// The argument buffer is both input and output, as with an ioctl.
type Conduit interface {
	Ioctl(req uint, arg []byte) error
}

// Client issues PRD requests through a Conduit.
type Client struct {
	c Conduit
}

// NewClient returns a client using the given conduit.
func NewClient(c Conduit) *Client {
	return &Client{c: c}
}

// GetInfo queries version, code size and the exported address ranges.
func (cl *Client) GetInfo() (*Info, error) {
	buf := make([]byte, infoSize)
	if err := cl.c.Ioctl(ReqGetInfo, buf); err != nil {
		return nil, fmt.Errorf("prd get-info: %w", err)
	}
	var info Info
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &info); err != nil {
		return nil, fmt.Errorf("prd get-info: unable to decode response: %w", err)
	}
	return &info, nil
}

// ScomRead reads a chip register.
func (cl *Client) ScomRead(chip, addr uint64) (uint64, error) {
	s, err := cl.scom(ReqScomRead, Scom{Chip: chip, Addr: addr})
	if err != nil {
		return 0, fmt.Errorf("scom read chip 0x%x addr 0x%x: %w", chip, addr, err)
	}
	return s.Data, nil
}

// ScomWrite writes a chip register.
func (cl *Client) ScomWrite(chip, addr, data uint64) error {
	if _, err := cl.scom(ReqScomWrite, Scom{Chip: chip, Addr: addr, Data: data}); err != nil {
		return fmt.Errorf("scom write chip 0x%x addr 0x%x: %w", chip, addr, err)
	}
	return nil
}

func (cl *Client) scom(req uint, s Scom) (*Scom, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &s); err != nil {
		return nil, err
	}
	arg := buf.Bytes()
	if err := cl.c.Ioctl(req, arg); err != nil {
		return nil, err
	}
	var out Scom
	if err := binary.Read(bytes.NewReader(arg), binary.LittleEndian, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close closes the underlying conduit if it is closable.
func (cl *Client) Close() error {
	if c, ok := cl.c.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
