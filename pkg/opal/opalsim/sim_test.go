// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opalsim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/pnor/pkg/opal"
)

const (
	testID   = opal.DeviceID(1)
	testSize = 1 << 20
)

func newSim(t *testing.T, opts ...Option) (*Transport, *opal.TokenPool) {
	t.Helper()
	pool, err := opal.NewTokenPool(4)
	require.NoError(t, err)
	sim := NewMemory(testID, testSize, pool, opts...)
	return sim, pool
}

// run submits through fn and waits for the async completion.
func run(t *testing.T, pool *opal.TokenPool, fn func(opal.Token) opal.Status) opal.Status {
	t.Helper()
	tok, err := pool.TryAcquire()
	require.NoError(t, err)
	defer pool.Release(tok)

	st := fn(tok)
	require.Equal(t, opal.StatusAsyncCompletion, st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m, err := pool.Wait(ctx, tok)
	require.NoError(t, err)
	return m.AsyncStatus()
}

func TestMemoryStartsErased(t *testing.T) {
	sim, pool := newSim(t)

	buf := make([]byte, 64)
	st := run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitRead(testID, 0, buf, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)
	for i, b := range buf {
		require.Equal(t, byte(0xff), b, "byte %d", i)
	}
}

func TestWriteThenRead(t *testing.T) {
	sim, pool := newSim(t, WithCompletionDelay(time.Millisecond))

	data := []byte("platform flash")
	st := run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitWrite(testID, 128, data, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)

	got := make([]byte, len(data))
	st = run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitRead(testID, 128, got, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)
	require.Equal(t, data, got)
}

func TestEraseSpansChunks(t *testing.T) {
	sim, pool := newSim(t)

	// Dirty a region larger than the simulator's internal fill chunk.
	const length = 200 * 1024
	data := make([]byte, length)
	st := run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitWrite(testID, 0, data, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)

	st = run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitErase(testID, 0, length, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)

	got := make([]byte, length)
	st = run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitRead(testID, 0, got, tok)
	})
	require.Equal(t, opal.StatusSuccess, st)
	for i := 0; i < length; i += 4096 {
		require.Equal(t, byte(0xff), got[i], "offset 0x%x", i)
	}
}

func TestImmediateRejections(t *testing.T) {
	sim, pool := newSim(t)
	tok, err := pool.TryAcquire()
	require.NoError(t, err)
	defer pool.Release(tok)

	// Wrong device.
	st := sim.SubmitRead(opal.DeviceID(42), 0, make([]byte, 8), tok)
	require.Equal(t, opal.StatusParameter, st)

	// Out of bounds.
	st = sim.SubmitRead(testID, testSize-4, make([]byte, 8), tok)
	require.Equal(t, opal.StatusParameter, st)

	// Scripted rejection.
	sim.RejectSubmissions(opal.StatusBusy)
	st = sim.SubmitErase(testID, 0, 4096, tok)
	require.Equal(t, opal.StatusBusy, st)

	sim.RejectSubmissions(opal.StatusSuccess)
	st = sim.SubmitErase(testID, 0, 4096, tok)
	require.Equal(t, opal.StatusAsyncCompletion, st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = pool.Wait(ctx, tok)
	require.NoError(t, err)
}

func TestFailRange(t *testing.T) {
	sim, pool := newSim(t)
	sim.FailRange(4096, 4096)

	st := run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitRead(testID, 4100, make([]byte, 8), tok)
	})
	require.Equal(t, opal.StatusHardware, st)

	// Outside the failing range everything still works.
	st = run(t, pool, func(tok opal.Token) opal.Status {
		return sim.SubmitRead(testID, 0, make([]byte, 8), tok)
	})
	require.Equal(t, opal.StatusSuccess, st)
}

func TestClose(t *testing.T) {
	sim, pool := newSim(t)

	require.NoError(t, sim.Close())
	require.Error(t, sim.Close())

	tok, err := pool.TryAcquire()
	require.NoError(t, err)
	defer pool.Release(tok)
	st := sim.SubmitRead(testID, 0, make([]byte, 8), tok)
	require.Equal(t, opal.StatusWrongState, st)
}
