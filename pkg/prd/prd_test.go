// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prd

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConduit scripts the response of one control request.
type fakeConduit struct {
	t *testing.T

	wantReq  uint
	respond  func(arg []byte)
	requests int
}

func (f *fakeConduit) Ioctl(req uint, arg []byte) error {
	f.requests++
	require.Equal(f.t, f.wantReq, req)
	if f.respond != nil {
		f.respond(arg)
	}
	return nil
}

func TestRequestNumbers(t *testing.T) {
	// Pinned to the opal-prd character device ABI.
	require.Equal(t, uint(0x81906f01), ReqGetInfo)
	require.Equal(t, uint(0x80186f10), ReqScomRead)
	require.Equal(t, uint(0x40186f11), ReqScomWrite)
}

func TestGetInfo(t *testing.T) {
	var info Info
	info.Version = Version
	info.CodeSize = 0x40000
	copy(info.Ranges[0].Name[:], "ibm,hbrt-code-image")
	info.Ranges[0].PhysAddr = 0x1000000
	info.Ranges[0].Size = 0x40000
	copy(info.Ranges[1].Name[:], "ibm,hbrt-data-image")
	info.Ranges[1].PhysAddr = 0x2000000
	info.Ranges[1].Size = 0x10000

	fc := &fakeConduit{
		t:       t,
		wantReq: ReqGetInfo,
		respond: func(arg []byte) {
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, &info))
			require.Len(t, arg, buf.Len())
			copy(arg, buf.Bytes())
		},
	}

	got, err := NewClient(fc).GetInfo()
	require.NoError(t, err)
	require.Equal(t, 1, fc.requests)
	require.Equal(t, uint64(Version), got.Version)
	require.Equal(t, uint64(0x40000), got.CodeSize)

	active := got.ActiveRanges()
	require.Len(t, active, 2)
	require.Equal(t, "ibm,hbrt-code-image", active[0].RangeName())
	require.Equal(t, uint64(0x1000000), active[0].PhysAddr)
	require.Equal(t, "ibm,hbrt-data-image", active[1].RangeName())
}

func TestScomRead(t *testing.T) {
	fc := &fakeConduit{
		t:       t,
		wantReq: ReqScomRead,
		respond: func(arg []byte) {
			var s Scom
			require.NoError(t, binary.Read(bytes.NewReader(arg), binary.LittleEndian, &s))
			require.Equal(t, uint64(0), s.Chip)
			require.Equal(t, uint64(0x2020007), s.Addr)
			s.Data = 0xdeadbeefcafe
			var buf bytes.Buffer
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, &s))
			copy(arg, buf.Bytes())
		},
	}

	data, err := NewClient(fc).ScomRead(0, 0x2020007)
	require.NoError(t, err)
	require.Equal(t, uint64(0xdeadbeefcafe), data)
}

func TestScomWrite(t *testing.T) {
	var got Scom
	fc := &fakeConduit{
		t:       t,
		wantReq: ReqScomWrite,
		respond: func(arg []byte) {
			require.NoError(t, binary.Read(bytes.NewReader(arg), binary.LittleEndian, &got))
		},
	}

	err := NewClient(fc).ScomWrite(3, 0x1010c03, 0x1234)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got.Chip)
	require.Equal(t, uint64(0x1010c03), got.Addr)
	require.Equal(t, uint64(0x1234), got.Data)
}

func TestWireSizes(t *testing.T) {
	require.Equal(t, infoSize, binary.Size(Info{}))
	require.Equal(t, scomSize, binary.Size(Scom{}))
}
