// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opal models the firmware call surface of the OPAL flash
// interface: return codes, asynchronous completion messages and the
// bounded pool of correlation tokens used to match a completion to the
// request that caused it.
package opal

import (
	"fmt"
)

// Status is an OPAL return code. Negative values indicate failure,
// except StatusAsyncCompletion which means the call was accepted and
// will complete out-of-band.
type Status int64

// OPAL return codes, as defined by the OPAL ABI.
const (
	StatusSuccess         Status = 0
	StatusParameter       Status = -1
	StatusBusy            Status = -2
	StatusPartial         Status = -3
	StatusConstrained     Status = -4
	StatusClosed          Status = -5
	StatusHardware        Status = -6
	StatusUnsupported     Status = -7
	StatusPermission      Status = -8
	StatusNoMem           Status = -9
	StatusResource        Status = -10
	StatusInternalError   Status = -11
	StatusBusyEvent       Status = -12
	StatusHardwareFrozen  Status = -13
	StatusWrongState      Status = -14
	StatusAsyncCompletion Status = -15
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "OPAL_SUCCESS"
	case StatusParameter:
		return "OPAL_PARAMETER"
	case StatusBusy:
		return "OPAL_BUSY"
	case StatusPartial:
		return "OPAL_PARTIAL"
	case StatusConstrained:
		return "OPAL_CONSTRAINED"
	case StatusClosed:
		return "OPAL_CLOSED"
	case StatusHardware:
		return "OPAL_HARDWARE"
	case StatusUnsupported:
		return "OPAL_UNSUPPORTED"
	case StatusPermission:
		return "OPAL_PERMISSION"
	case StatusNoMem:
		return "OPAL_NO_MEM"
	case StatusResource:
		return "OPAL_RESOURCE"
	case StatusInternalError:
		return "OPAL_INTERNAL_ERROR"
	case StatusBusyEvent:
		return "OPAL_BUSY_EVENT"
	case StatusHardwareFrozen:
		return "OPAL_HARDWARE_FROZEN"
	case StatusWrongState:
		return "OPAL_WRONG_STATE"
	case StatusAsyncCompletion:
		return "OPAL_ASYNC_COMPLETION"
	}
	return fmt.Sprintf("OPAL_STATUS(%d)", int64(s))
}

// Err returns nil if the status reports success, and a *StatusError
// otherwise. StatusAsyncCompletion is not a success from the point of
// view of Err: it only makes sense as the immediate return of a
// submission and callers are expected to test for it explicitly.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return &StatusError{Status: s}
}

// StatusError wraps a non-success OPAL return code into an error.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("opal: %s (%d)", e.Status, int64(e.Status))
}
