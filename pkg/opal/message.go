// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opal

import "fmt"

// Token is a correlation handle drawn from a TokenPool. A token ties an
// asynchronous submission to the completion message the firmware later
// delivers for it.
type Token int

// MessageType identifies the class of an OPAL message.
type MessageType uint32

// OPAL message types. Only async completions and PRD messages are of
// interest here; the rest exist so that a transport can pass through
// whatever the firmware sends without inventing numbers.
const (
	MsgAsyncComp MessageType = 0
	MsgMemErr    MessageType = 1
	MsgEPOW      MessageType = 2
	MsgShutdown  MessageType = 3
	MsgHMIEvent  MessageType = 4
	MsgDPO       MessageType = 5
	MsgPRD       MessageType = 6
)

// Message is an OPAL message as delivered by the firmware. For an async
// completion (MsgAsyncComp) Params[0] carries the correlation token and
// Params[1] the status of the completed operation.
//
// A Message is ephemeral: it exists only to be handed from the transport
// to the waiter of its token and is not retained afterwards.
type Message struct {
	Type   MessageType
	Params [8]uint64
}

// Token returns the correlation token of an async completion.
func (m Message) Token() Token {
	return Token(m.Params[0])
}

// AsyncStatus returns the operation status carried by an async
// completion message.
func (m Message) AsyncStatus() Status {
	return Status(int64(m.Params[1]))
}

func (m Message) String() string {
	if m.Type == MsgAsyncComp {
		return fmt.Sprintf("async completion{token=%d, status=%v}", m.Token(), m.AsyncStatus())
	}
	return fmt.Sprintf("message{type=%d}", m.Type)
}

// AsyncCompletion builds the completion message for the given token and
// operation status. Transports use it to report the out-of-band outcome
// of a previously accepted submission.
func AsyncCompletion(t Token, st Status) Message {
	var m Message
	m.Type = MsgAsyncComp
	m.Params[0] = uint64(t)
	m.Params[1] = uint64(st)
	return m
}
