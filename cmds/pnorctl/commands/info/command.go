// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package info

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/pnor/cmds/pnorctl/commands"
	"github.com/linuxboot/pnor/pkg/pnor"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	ConfigPath string `short:"c" long:"config" description:"path to the device config YAML" required:"true"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the device geometry"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	cfg, err := pnor.LoadConfig(cmd.ConfigPath)
	if err != nil {
		return err
	}

	fmt.Printf("name:        %s\n", cfg.Name)
	fmt.Printf("device id:   0x%x\n", cfg.DeviceID)
	fmt.Printf("size:        %s (0x%x)\n", humanize.IBytes(cfg.Size), cfg.Size)
	fmt.Printf("erase block: %s (0x%x)\n", humanize.IBytes(cfg.EraseSize), cfg.EraseSize)
	fmt.Printf("blocks:      %d\n", cfg.Size/cfg.EraseSize)
	return nil
}
