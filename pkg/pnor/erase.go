// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pnor

import (
	"context"
	"fmt"
)

// EraseState tracks the progress of an erase request.
type EraseState int

// Erase request states. Transitions are strictly linear:
// Pending -> Erasing -> Done or Failed. There are no retries and no
// re-entry into an earlier state.
const (
	ErasePending EraseState = iota
	EraseErasing
	EraseDone
	EraseFailed
)

func (s EraseState) String() string {
	switch s {
	case ErasePending:
		return "pending"
	case EraseErasing:
		return "erasing"
	case EraseDone:
		return "done"
	case EraseFailed:
		return "failed"
	}
	return fmt.Sprintf("EraseState(%d)", int(s))
}

// EraseRequest is the progress record of a single erase. It is created
// when the erase begins, reaches a terminal state before Erase returns,
// and carries the failing offset when the erase did not complete.
type EraseRequest struct {
	Offset uint64
	Length uint64

	State      EraseState
	FailOffset uint64
}

// EraseObserver is called with the final progress record of an erase
// request. It fires exactly once per request, whatever the outcome.
type EraseObserver func(*EraseRequest)

// Erase erases the flash region [off, off+length), which must be
// aligned to the erase block size and within device bounds. The
// returned request records the terminal state; it is also handed to the
// registered erase observer. A nil error means the firmware reported
// the erase complete.
func (d *Device) Erase(ctx context.Context, off, length uint64) (*EraseRequest, error) {
	if err := d.checkBounds(off, length); err != nil {
		return nil, err
	}
	if off%d.eraseSize != 0 || length%d.eraseSize != 0 {
		return nil, fmt.Errorf("%w: offset 0x%x length 0x%x, erase block 0x%x",
			ErrNotAligned, off, length, d.eraseSize)
	}

	req := &EraseRequest{
		Offset: off,
		Length: length,
		State:  ErasePending,
	}

	req.State = EraseErasing
	_, err := d.asyncOp(ctx, opErase, off, nil, length)
	if err != nil {
		req.FailOffset = req.Offset
		req.State = EraseFailed
	} else {
		req.State = EraseDone
	}

	if d.onErase != nil {
		d.onErase(req)
	}
	return req, err
}
