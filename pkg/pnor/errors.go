// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pnor

import "errors"

// Errors surfaced by flash operations. All of them are IO-class from the
// caller's point of view; none are retried internally and none poison
// the device for subsequent operations.
var (
	// ErrNoToken indicates that no async correlation token could be
	// acquired for the operation.
	ErrNoToken = errors.New("no async token available")

	// ErrSubmitRejected indicates the firmware did not accept the
	// operation for asynchronous processing.
	ErrSubmitRejected = errors.New("firmware rejected submission")

	// ErrInterrupted indicates the wait for an async completion was
	// interrupted before the completion arrived.
	ErrInterrupted = errors.New("wait for completion interrupted")

	// ErrOperationFailed indicates the firmware reported a non-success
	// status in the completion message.
	ErrOperationFailed = errors.New("firmware reported operation failure")

	// ErrOutOfBounds indicates the request exceeds the device size.
	ErrOutOfBounds = errors.New("request outside device bounds")

	// ErrNotAligned indicates an erase request not aligned to the
	// device's erase block size.
	ErrNotAligned = errors.New("erase not aligned to erase block size")
)
