// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pnor exposes an OPAL-backed PNOR flash device as a generic
// read/write/erase storage abstraction. The firmware owns the physical
// flash; this package is the protocol bridge that turns synchronous
// caller requests into asynchronous firmware calls and waits for their
// out-of-band completions.
package pnor

import (
	"context"
	"fmt"

	"github.com/linuxboot/pnor/pkg/opal"
)

// Device is a PNOR flash device. Its identity is resolved once at
// attach time and immutable afterwards; all flash traffic goes through
// the firmware transport it was attached with.
//
// Read, write and erase may be called concurrently from multiple
// goroutines. Concurrency is bounded by the token pool: each operation
// holds exactly one token from submission until its completion has been
// accounted for.
type Device struct {
	name      string
	id        opal.DeviceID
	size      uint64
	eraseSize uint64

	transport opal.Transport
	tokens    *opal.TokenPool

	onErase EraseObserver
}

// New attaches a flash device described by cfg to the given firmware
// transport, drawing async tokens from pool.
func New(cfg *Config, t opal.Transport, pool *opal.TokenPool) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("nil transport")
	}
	if pool == nil {
		return nil, fmt.Errorf("nil token pool")
	}
	return &Device{
		name:      cfg.Name,
		id:        opal.DeviceID(cfg.DeviceID),
		size:      cfg.Size,
		eraseSize: cfg.EraseSize,
		transport: t,
		tokens:    pool,
	}, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// ID returns the firmware identifier of the device.
func (d *Device) ID() opal.DeviceID { return d.id }

// Size returns the total flash size in bytes.
func (d *Device) Size() uint64 { return d.size }

// EraseSize returns the erase block size in bytes.
func (d *Device) EraseSize() uint64 { return d.eraseSize }

// SetEraseObserver registers fn to be called with the final progress
// record of every erase request. Must be set before issuing erases;
// passing nil removes the observer.
func (d *Device) SetEraseObserver(fn EraseObserver) {
	d.onErase = fn
}

// ReadAt reads len(p) bytes from the flash starting at offset off. It
// returns the number of bytes read. p must stay valid and untouched
// until ReadAt returns.
func (d *Device) ReadAt(ctx context.Context, p []byte, off uint64) (int, error) {
	if err := d.checkBounds(off, uint64(len(p))); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	return d.asyncOp(ctx, opRead, off, p, uint64(len(p)))
}

// WriteAt programs len(p) bytes to the flash starting at offset off. It
// returns the number of bytes written. The target region must have been
// erased beforehand; the firmware does not erase on write.
func (d *Device) WriteAt(ctx context.Context, p []byte, off uint64) (int, error) {
	if err := d.checkBounds(off, uint64(len(p))); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	return d.asyncOp(ctx, opWrite, off, p, uint64(len(p)))
}

func (d *Device) checkBounds(off, length uint64) error {
	end := off + length
	if end < off || end > d.size {
		return fmt.Errorf("%w: offset 0x%x length 0x%x, device size 0x%x",
			ErrOutOfBounds, off, length, d.size)
	}
	return nil
}
