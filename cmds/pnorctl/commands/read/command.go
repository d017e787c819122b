// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package read

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/pnor/cmds/pnorctl/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.DeviceOptions

	Offset uint64  `short:"o" long:"offset" description:"flash offset to read from" default:"0"`
	Length *uint64 `short:"n" long:"length" description:"number of bytes to read (default: to end of flash)"`
	Output string  `long:"out" description:"output file ('-' for stdout)" default:"-"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "reads a region of the flash"
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

	dev, closer, err := cmd.OpenDevice()
	if err != nil {
		return err
	}
	defer closer.Close()

	length := dev.Size() - cmd.Offset
	if cmd.Length != nil {
		length = *cmd.Length
	}

	buf := make([]byte, length)
	n, err := dev.ReadAt(context.Background(), buf, cmd.Offset)
	if err != nil {
		return fmt.Errorf("unable to read flash: %w", err)
	}

	out := os.Stdout
	if cmd.Output != "-" {
		out, err = os.Create(cmd.Output)
		if err != nil {
			return fmt.Errorf("unable to create output file '%s': %w", cmd.Output, err)
		}
		defer out.Close()
	}
	if _, err := out.Write(buf[:n]); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	if cmd.Output != "-" {
		fmt.Printf("read %s from offset 0x%x\n", humanize.IBytes(uint64(n)), cmd.Offset)
	}
	return nil
}
