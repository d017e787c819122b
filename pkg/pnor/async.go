// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pnor

import (
	"context"
	"fmt"

	"github.com/linuxboot/pnor/pkg/log"
	"github.com/linuxboot/pnor/pkg/opal"
)

// flashOp selects which firmware call a request maps to.
type flashOp int

const (
	opRead flashOp = iota
	opWrite
	opErase
)

func (op flashOp) String() string {
	switch op {
	case opRead:
		return "read"
	case opWrite:
		return "write"
	case opErase:
		return "erase"
	}
	return fmt.Sprintf("flashOp(%d)", int(op))
}

// asyncOp is the single dispatch path shared by read, write and erase.
// It acquires a token, submits the operation, blocks until the matching
// completion arrives and interprets it. The token is released on every
// exit path; an interrupted wait leaves it to the pool's quarantine
// bookkeeping.
func (d *Device) asyncOp(ctx context.Context, op flashOp, offset uint64, buf []byte, length uint64) (int, error) {
	log.Debugf("%s: %v offset=0x%x len=0x%x", d.name, op, offset, length)

	token, err := d.tokens.Acquire(ctx)
	if err != nil {
		log.Errorf("%s: failed to get an async token: %v", d.name, err)
		return 0, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	defer d.tokens.Release(token)

	var st opal.Status
	switch op {
	case opRead:
		st = d.transport.SubmitRead(d.id, offset, buf, token)
	case opWrite:
		st = d.transport.SubmitWrite(d.id, offset, buf, token)
	case opErase:
		st = d.transport.SubmitErase(d.id, offset, length, token)
	default:
		return 0, fmt.Errorf("unknown flash op %d", int(op))
	}
	if st != opal.StatusAsyncCompletion {
		log.Errorf("%s: submit %v failed (%v)", d.name, op, st)
		return 0, fmt.Errorf("%w: %v returned %v", ErrSubmitRejected, op, st)
	}

	msg, err := d.tokens.Wait(ctx, token)
	if err != nil {
		log.Errorf("%s: async wait for %v failed: %v", d.name, op, err)
		return 0, fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	return interpret(msg, length)
}

// interpret decodes a completion message into a byte count. The
// firmware contract is all-or-nothing: a successful completion means
// the full requested length was transferred, and no partial counts are
// reported.
func interpret(msg opal.Message, requested uint64) (int, error) {
	if st := msg.AsyncStatus(); st != opal.StatusSuccess {
		return 0, fmt.Errorf("%w: %v", ErrOperationFailed, st)
	}
	return int(requested), nil
}
