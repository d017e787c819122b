// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package write

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ulikunitz/xz"

	"github.com/linuxboot/pnor/cmds/pnorctl/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.DeviceOptions

	Input  string `short:"i" long:"input" description:"file to program into the flash ('.xz' input is decompressed)" required:"true"`
	Offset uint64 `short:"o" long:"offset" description:"flash offset to write to" default:"0"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "programs a file into a region of the flash"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "The target region must have been erased first; the firmware does not erase on write."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}

	data, err := cmd.readInput()
	if err != nil {
		return err
	}

	dev, closer, err := cmd.OpenDevice()
	if err != nil {
		return err
	}
	defer closer.Close()

	n, err := dev.WriteAt(context.Background(), data, cmd.Offset)
	if err != nil {
		return fmt.Errorf("unable to write flash: %w", err)
	}

	fmt.Printf("wrote %s at offset 0x%x\n", humanize.IBytes(uint64(n)), cmd.Offset)
	return nil
}

func (cmd *Command) readInput() ([]byte, error) {
	file, err := os.Open(cmd.Input)
	if err != nil {
		return nil, fmt.Errorf("unable to open input file '%s': %w", cmd.Input, err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(cmd.Input, ".xz") {
		r, err = xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("unable to decompress input file '%s': %w", cmd.Input, err)
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read input file '%s': %w", cmd.Input, err)
	}
	return data, nil
}
