// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opal

// DeviceID identifies a flash device to the firmware. On real hardware
// it comes from the "ibm,opal-id" devicetree property of the flash node.
type DeviceID uint64

// Transport submits flash operations to the firmware. Each Submit call
// returns the immediate status of the call itself: StatusAsyncCompletion
// means the operation was accepted and a completion message tagged with
// the given token will be delivered later; anything else means the
// operation was not started.
//
// The buffer passed to SubmitRead and SubmitWrite must stay valid and
// untouched by the caller until the completion for the token has been
// delivered.
type Transport interface {
	SubmitRead(id DeviceID, offset uint64, buf []byte, t Token) Status
	SubmitWrite(id DeviceID, offset uint64, buf []byte, t Token) Status
	SubmitErase(id DeviceID, offset, length uint64, t Token) Status
}

// CompletionSink receives completion messages from a transport.
// *TokenPool is the canonical implementation.
type CompletionSink interface {
	Deliver(m Message) error
}
