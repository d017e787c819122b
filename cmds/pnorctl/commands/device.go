// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/linuxboot/pnor/pkg/opal"
	"github.com/linuxboot/pnor/pkg/opal/opalsim"
	"github.com/linuxboot/pnor/pkg/pnor"
)

// DeviceOptions are the flags shared by all verbs that touch the flash:
// the device geometry and the image file standing in for the physical
// flash.
type DeviceOptions struct {
	ConfigPath string `short:"c" long:"config" description:"path to the device config YAML" required:"true"`
	ImagePath  string `short:"f" long:"flash" description:"path to the flash image file" required:"true"`
}

// OpenDevice attaches a pnor.Device to the flash image file through the
// simulated firmware transport. The returned closer drains in-flight
// completions and closes the image.
func (opts *DeviceOptions) OpenDevice() (*pnor.Device, io.Closer, error) {
	cfg, err := pnor.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(opts.ImagePath, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open the flash image file '%s': %w", opts.ImagePath, err)
	}

	fileSize, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("unable to detect file size (through seek): %w", err)
	}
	if uint64(fileSize) < cfg.Size {
		file.Close()
		return nil, nil, fmt.Errorf("flash image '%s' is 0x%x bytes, device config says 0x%x",
			opts.ImagePath, fileSize, cfg.Size)
	}

	pool, err := opal.NewTokenPool(opal.DefaultTokenCount)
	if err != nil {
		file.Close()
		return nil, nil, err
	}

	transport := opalsim.New(opal.DeviceID(cfg.DeviceID), file, cfg.Size, pool)
	dev, err := pnor.New(cfg, transport, pool)
	if err != nil {
		transport.Close()
		return nil, nil, err
	}
	return dev, transport, nil
}
