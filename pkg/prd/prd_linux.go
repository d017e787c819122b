// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package prd

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// DefaultDevicePath is the opal-prd character device on PowerNV
// systems.
const DefaultDevicePath = "/dev/opal-prd"

// Open returns a client talking to the opal-prd character device at
// path.
func Open(path string) (*Client, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("unable to open prd device '%s': %w", path, err)
	}
	return NewClient(&deviceConduit{f: f}), nil
}

type deviceConduit struct {
	f *os.File
}

func (d *deviceConduit) Ioctl(req uint, arg []byte) error {
	argp := uintptr(unsafe.Pointer(&arg[0]))
	_, _, e := syscall.Syscall(syscall.SYS_IOCTL, d.f.Fd(), uintptr(req), argp)
	if e != 0 {
		return os.NewSyscallError("ioctl", e)
	}
	return nil
}

func (d *deviceConduit) Close() error {
	return d.f.Close()
}
