// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package erase

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/pnor/cmds/pnorctl/commands"
	"github.com/linuxboot/pnor/pkg/pnor"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.DeviceOptions

	Offset uint64  `short:"o" long:"offset" description:"flash offset to erase from (erase-block aligned)" default:"0"`
	Length *uint64 `short:"n" long:"length" description:"number of bytes to erase (default: one erase block)"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "erases a region of the flash"
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

	length := dev.EraseSize()
	if cmd.Length != nil {
		length = *cmd.Length
	}

	dev.SetEraseObserver(func(req *pnor.EraseRequest) {
		if req.State == pnor.EraseFailed {
			fmt.Printf("erase failed at offset 0x%x\n", req.FailOffset)
			return
		}
		fmt.Printf("erased %s at offset 0x%x\n", humanize.IBytes(req.Length), req.Offset)
	})

	if _, err := dev.Erase(context.Background(), cmd.Offset, length); err != nil {
		return fmt.Errorf("unable to erase flash: %w", err)
	}
	return nil
}
