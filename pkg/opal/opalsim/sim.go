// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opalsim provides an in-process implementation of the OPAL
// flash transport backed by an io.ReadWriteSeeker (a flash image file,
// or a memory buffer). Completions are produced out-of-band on a
// separate goroutine, the way real firmware delivers them, which makes
// the package suitable both for tools operating on image files and for
// exercising the async engine in tests.
package opalsim

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/xaionaro-go/bytesextra"

	"github.com/linuxboot/pnor/pkg/bytes"
	"github.com/linuxboot/pnor/pkg/log"
	"github.com/linuxboot/pnor/pkg/opal"
)

// eraseFill is the value erased flash reads back as.
const eraseFill = 0xff

// Transport simulates the firmware side of the OPAL flash calls for a
// single device. Every accepted submission is completed asynchronously
// through the configured completion sink.
type Transport struct {
	id    opal.DeviceID
	size  uint64
	sink  opal.CompletionSink
	delay time.Duration

	mu         sync.Mutex
	storage    io.ReadWriteSeeker
	reject     opal.Status
	failRanges bytes.Ranges
	closed     bool

	wg sync.WaitGroup
}

// Option configures a Transport.
type Option func(*Transport)

// WithCompletionDelay makes every completion arrive after d, to widen
// the window between submission and completion.
func WithCompletionDelay(d time.Duration) Option {
	return func(t *Transport) {
		t.delay = d
	}
}

// New returns a transport serving device id from storage, which must
// hold at least size bytes. Completion messages are pushed into sink.
func New(id opal.DeviceID, storage io.ReadWriteSeeker, size uint64, sink opal.CompletionSink, opts ...Option) *Transport {
	t := &Transport{
		id:      id,
		size:    size,
		sink:    sink,
		storage: storage,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewMemory returns a transport backed by a fresh in-memory flash image
// of size bytes, pre-filled with the erased pattern.
func NewMemory(id opal.DeviceID, size uint64, sink opal.CompletionSink, opts ...Option) *Transport {
	b := make([]byte, size)
	for i := range b {
		b[i] = eraseFill
	}
	return New(id, bytesextra.NewReadWriteSeeker(b), size, sink, opts...)
}

// RejectSubmissions makes every following Submit call return st
// immediately instead of accepting the operation. Passing
// opal.StatusSuccess restores normal acceptance.
func (t *Transport) RejectSubmissions(st opal.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reject = st
}

// FailRange makes operations touching [offset, offset+length) complete
// with OPAL_HARDWARE.
func (t *Transport) FailRange(offset, length uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failRanges = append(t.failRanges, bytes.Range{Offset: offset, Length: length})
}

// ClearFailures removes all injected failure ranges.
func (t *Transport) ClearFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failRanges = nil
}

// SubmitRead implements opal.Transport.
func (t *Transport) SubmitRead(id opal.DeviceID, offset uint64, buf []byte, token opal.Token) opal.Status {
	return t.submit(id, offset, uint64(len(buf)), token, func() opal.Status {
		if _, err := t.storage.Seek(int64(offset), io.SeekStart); err != nil {
			return opal.StatusHardware
		}
		if _, err := io.ReadFull(t.storage, buf); err != nil {
			return opal.StatusHardware
		}
		return opal.StatusSuccess
	})
}

// SubmitWrite implements opal.Transport.
func (t *Transport) SubmitWrite(id opal.DeviceID, offset uint64, buf []byte, token opal.Token) opal.Status {
	return t.submit(id, offset, uint64(len(buf)), token, func() opal.Status {
		if _, err := t.storage.Seek(int64(offset), io.SeekStart); err != nil {
			return opal.StatusHardware
		}
		if _, err := t.storage.Write(buf); err != nil {
			return opal.StatusHardware
		}
		return opal.StatusSuccess
	})
}

// SubmitErase implements opal.Transport.
func (t *Transport) SubmitErase(id opal.DeviceID, offset, length uint64, token opal.Token) opal.Status {
	return t.submit(id, offset, length, token, func() opal.Status {
		if _, err := t.storage.Seek(int64(offset), io.SeekStart); err != nil {
			return opal.StatusHardware
		}
		const chunkSize = 64 * 1024
		chunk := make([]byte, chunkSize)
		for i := range chunk {
			chunk[i] = eraseFill
		}
		for left := length; left > 0; {
			n := uint64(chunkSize)
			if left < n {
				n = left
			}
			if _, err := t.storage.Write(chunk[:n]); err != nil {
				return opal.StatusHardware
			}
			left -= n
		}
		return opal.StatusSuccess
	})
}

// submit validates the request, and either rejects it synchronously or
// accepts it and schedules op to run and complete out-of-band.
func (t *Transport) submit(id opal.DeviceID, offset, length uint64, token opal.Token, op func() opal.Status) opal.Status {
	if id != t.id {
		return opal.StatusParameter
	}
	if end := offset + length; end < offset || end > t.size {
		return opal.StatusParameter
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return opal.StatusWrongState
	}
	if t.reject != opal.StatusSuccess {
		return t.reject
	}

	t.wg.Add(1)
	go t.complete(token, offset, length, op)
	return opal.StatusAsyncCompletion
}

func (t *Transport) complete(token opal.Token, offset, length uint64, op func() opal.Status) {
	defer t.wg.Done()
	if t.delay > 0 {
		time.Sleep(t.delay)
	}

	t.mu.Lock()
	var st opal.Status
	if t.failRanges.Overlaps(bytes.Range{Offset: offset, Length: length}) {
		st = opal.StatusHardware
	} else {
		st = op()
	}
	t.mu.Unlock()

	if err := t.sink.Deliver(opal.AsyncCompletion(token, st)); err != nil {
		log.Errorf("opalsim: unable to deliver completion for token %d: %v", token, err)
	}
}

// Close waits for in-flight completions to drain and closes the backing
// storage if it is closable. The transport rejects submissions from the
// moment Close is called.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("opalsim: already closed")
	}
	t.closed = true
	t.mu.Unlock()

	t.wg.Wait()
	if c, ok := t.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
