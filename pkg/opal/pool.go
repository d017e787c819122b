// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/linuxboot/pnor/pkg/log"
)

// ErrNoFreeTokens is returned by TryAcquire when the pool is exhausted.
var ErrNoFreeTokens = errors.New("no free async tokens")

// DefaultTokenCount is the pool size used when the platform does not
// dictate one. The firmware only supports a small number of concurrent
// async calls, so pools are small.
const DefaultTokenCount = 16

// DefaultQuarantineDelay bounds how long an abandoned token waits for
// its late completion before it is forcibly returned to the pool.
const DefaultQuarantineDelay = 10 * time.Second

// TokenPool is a bounded allocator of correlation tokens. A token is
// held by at most one in-flight operation at a time: it is handed out by
// Acquire, consumed by exactly one Wait, and returned by Release once
// the operation is accounted for.
//
// If a Wait is interrupted before its completion arrives, the token is
// not immediately reusable: the firmware may still deliver a completion
// for it. Release then quarantines the token until the stale completion
// is drained or QuarantineDelay expires, whichever comes first, so that
// a recycled token can never observe a completion belonging to an
// earlier operation.
type TokenPool struct {
	// QuarantineDelay is the maximum time an abandoned token stays out
	// of circulation. Must not be changed once operations are in
	// flight. Defaults to DefaultQuarantineDelay.
	QuarantineDelay time.Duration

	free chan Token
	comp []chan Message

	mu        sync.Mutex
	abandoned map[Token]bool
}

// NewTokenPool returns a pool of size correlation tokens.
func NewTokenPool(size int) (*TokenPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("token pool size must be positive, got %d", size)
	}
	p := &TokenPool{
		QuarantineDelay: DefaultQuarantineDelay,
		free:            make(chan Token, size),
		comp:            make([]chan Message, size),
		abandoned:       map[Token]bool{},
	}
	for i := 0; i < size; i++ {
		p.free <- Token(i)
		p.comp[i] = make(chan Message, 1)
	}
	return p, nil
}

// Capacity returns the total number of tokens in the pool.
func (p *TokenPool) Capacity() int {
	return cap(p.free)
}

// Available returns the number of tokens currently free. Tokens held by
// in-flight operations or sitting in quarantine are not counted.
func (p *TokenPool) Available() int {
	return len(p.free)
}

// Acquire blocks until a token is free or ctx is cancelled.
func (p *TokenPool) Acquire(ctx context.Context) (Token, error) {
	select {
	case t := <-p.free:
		return t, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// TryAcquire returns a free token without blocking, or ErrNoFreeTokens
// if the pool is exhausted.
func (p *TokenPool) TryAcquire() (Token, error) {
	select {
	case t := <-p.free:
		return t, nil
	default:
		return -1, ErrNoFreeTokens
	}
}

// Wait blocks until the completion message for t is delivered, or until
// ctx is cancelled. A cancelled Wait does not consume the eventual
// completion; the token is marked abandoned and Release will quarantine
// it.
func (p *TokenPool) Wait(ctx context.Context, t Token) (Message, error) {
	if err := p.check(t); err != nil {
		return Message{}, err
	}
	select {
	case m := <-p.comp[t]:
		return m, nil
	case <-ctx.Done():
		p.mu.Lock()
		p.abandoned[t] = true
		p.mu.Unlock()
		return Message{}, ctx.Err()
	}
}

// Deliver routes a completion message to the waiter of its token.
// Transports call it when the firmware reports an operation done.
func (p *TokenPool) Deliver(m Message) error {
	if m.Type != MsgAsyncComp {
		return fmt.Errorf("not an async completion: %v", m)
	}
	t := m.Token()
	if err := p.check(t); err != nil {
		return err
	}
	select {
	case p.comp[t] <- m:
		return nil
	default:
		return fmt.Errorf("duplicate completion for token %d", t)
	}
}

// Release returns t to the pool. It must be called exactly once per
// successful Acquire, on every outcome path. If the token's Wait was
// interrupted, the token is quarantined instead of being freed right
// away.
func (p *TokenPool) Release(t Token) {
	if err := p.check(t); err != nil {
		log.Errorf("release: %v", err)
		return
	}
	p.mu.Lock()
	ab := p.abandoned[t]
	delete(p.abandoned, t)
	p.mu.Unlock()

	if ab {
		go p.quarantine(t)
		return
	}
	// Drop any completion that arrived for an operation whose result
	// was never waited on (e.g. a transport that delivered despite
	// rejecting the submission).
	select {
	case m := <-p.comp[t]:
		log.Warnf("token %d: discarding unconsumed completion %v", t, m)
	default:
	}
	p.free <- t
}

func (p *TokenPool) quarantine(t Token) {
	timer := time.NewTimer(p.QuarantineDelay)
	defer timer.Stop()
	select {
	case m := <-p.comp[t]:
		log.Debugf("token %d: drained late completion %v", t, m)
	case <-timer.C:
		log.Warnf("token %d: no late completion within %v, returning token to pool", t, p.QuarantineDelay)
	}
	p.free <- t
}

func (p *TokenPool) check(t Token) error {
	if t < 0 || int(t) >= len(p.comp) {
		return fmt.Errorf("token %d out of range [0, %d)", t, len(p.comp))
	}
	return nil
}
