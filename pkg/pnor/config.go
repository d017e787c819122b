// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pnor

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config carries the resolved identity of a flash device. On real
// hardware these values come from the devicetree flash node
// ("ibm,opal-id", "reg", "ibm,flash-block-size"); tools load them from a
// YAML file instead.
type Config struct {
	// Name of the device, informational only.
	Name string `yaml:"name"`

	// DeviceID is the firmware identifier of the flash device.
	DeviceID uint64 `yaml:"device-id"`

	// Size is the total size of the flash in bytes.
	Size uint64 `yaml:"size"`

	// EraseSize is the erase block size in bytes.
	EraseSize uint64 `yaml:"erase-size"`
}

// Validate reports every problem with the configuration, not just the
// first one.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.Size == 0 {
		result = multierror.Append(result, fmt.Errorf("size must be non-zero"))
	}
	if c.EraseSize == 0 {
		result = multierror.Append(result, fmt.Errorf("erase-size must be non-zero"))
	}
	if c.EraseSize != 0 && c.Size%c.EraseSize != 0 {
		result = multierror.Append(result, fmt.Errorf(
			"size 0x%x is not a multiple of erase-size 0x%x", c.Size, c.EraseSize))
	}
	return result.ErrorOrNil()
}

// ParseConfig parses and validates a YAML device configuration.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unable to parse device config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads a YAML device configuration from a file.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read device config '%s': %w", path, err)
	}
	return ParseConfig(b)
}
