// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pnor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/pnor/pkg/opal"
	"github.com/linuxboot/pnor/pkg/opal/opalsim"
)

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cfg = &Config{Size: 0, EraseSize: 0}
	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "size must be non-zero")
	require.Contains(t, err.Error(), "erase-size must be non-zero")

	cfg = &Config{Size: 1048576, EraseSize: 4000}
	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a multiple")
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
name: pnor0
device-id: 3
size: 1048576
erase-size: 4096
`))
	require.NoError(t, err)
	require.Equal(t, "pnor0", cfg.Name)
	require.Equal(t, uint64(3), cfg.DeviceID)
	require.Equal(t, uint64(1048576), cfg.Size)
	require.Equal(t, uint64(4096), cfg.EraseSize)

	_, err = ParseConfig([]byte(`{`))
	require.Error(t, err)

	_, err = ParseConfig([]byte(`size: 16`))
	require.Error(t, err)
}

func TestNewDeviceArguments(t *testing.T) {
	pool, err := opal.NewTokenPool(2)
	require.NoError(t, err)
	ft := newFakeTransport(pool)

	_, err = New(&Config{}, ft, pool)
	require.Error(t, err)

	_, err = New(testConfig(), nil, pool)
	require.Error(t, err)

	_, err = New(testConfig(), ft, nil)
	require.Error(t, err)

	dev, err := New(testConfig(), ft, pool)
	require.NoError(t, err)
	require.Equal(t, "pnor-test", dev.Name())
	require.Equal(t, opal.DeviceID(7), dev.ID())
	require.Equal(t, uint64(1048576), dev.Size())
	require.Equal(t, uint64(4096), dev.EraseSize())
}

// newSimDevice attaches a device to a memory-backed simulated firmware
// transport.
func newSimDevice(t *testing.T) (*Device, *opalsim.Transport) {
	t.Helper()
	cfg := testConfig()
	pool, err := opal.NewTokenPool(4)
	require.NoError(t, err)
	sim := opalsim.NewMemory(opal.DeviceID(cfg.DeviceID), cfg.Size, pool)
	t.Cleanup(func() { _ = sim.Close() })
	dev, err := New(cfg, sim, pool)
	require.NoError(t, err)
	return dev, sim
}

func TestRoundTrip(t *testing.T) {
	dev, _ := newSimDevice(t)
	ctx := context.Background()

	data := []byte("0123456789abcdef")
	n, err := dev.WriteAt(ctx, data, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	got := make([]byte, len(data))
	n, err = dev.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, got)
}

func TestEraseFillsRegion(t *testing.T) {
	dev, _ := newSimDevice(t)
	ctx := context.Background()

	data := bytes.Repeat([]byte{0xa5}, int(dev.EraseSize()))
	_, err := dev.WriteAt(ctx, data, 4096)
	require.NoError(t, err)

	req, err := dev.Erase(ctx, 4096, dev.EraseSize())
	require.NoError(t, err)
	require.Equal(t, EraseDone, req.State)

	got := make([]byte, dev.EraseSize())
	_, err = dev.ReadAt(ctx, got, 4096)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xff}, int(dev.EraseSize())), got)
}

func TestFirmwareFailureSurfaces(t *testing.T) {
	dev, sim := newSimDevice(t)
	ctx := context.Background()

	sim.FailRange(8192, 4096)

	_, err := dev.ReadAt(ctx, make([]byte, 16), 8192)
	require.ErrorIs(t, err, ErrOperationFailed)

	req, err := dev.Erase(ctx, 8192, 4096)
	require.ErrorIs(t, err, ErrOperationFailed)
	require.Equal(t, EraseFailed, req.State)
	require.Equal(t, uint64(8192), req.FailOffset)

	// A failed operation does not poison the device.
	sim.ClearFailures()
	_, err = dev.ReadAt(ctx, make([]byte, 16), 8192)
	require.NoError(t, err)
}
