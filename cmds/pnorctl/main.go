// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// pnorctl operates on PNOR flash through the OPAL flash interface.
//
// Synopsis:
//     pnorctl info -c CONFIG
//     pnorctl read -c CONFIG -f IMAGE [-o OFFSET] [-n LENGTH] [--out FILE]
//     pnorctl write -c CONFIG -f IMAGE -i INPUT [-o OFFSET]
//     pnorctl erase -c CONFIG -f IMAGE [-o OFFSET] [-n LENGTH]
//
// An example:
//     pnorctl erase -c pnor0.yaml -f pnor.img -o 0x1000 -n 0x1000
//     pnorctl write -c pnor0.yaml -f pnor.img -i bootkernel.xz -o 0x1000
//     pnorctl read -c pnor0.yaml -f pnor.img -o 0x1000 -n 0x1000 --out region.bin
//
// The flash is served through the simulated firmware transport backed
// by the image file; the device geometry comes from a YAML config:
//     name: pnor0
//     device-id: 0
//     size: 67108864
//     erase-size: 4096
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/pnor/cmds/pnorctl/commands"
	"github.com/linuxboot/pnor/cmds/pnorctl/commands/erase"
	"github.com/linuxboot/pnor/cmds/pnorctl/commands/info"
	"github.com/linuxboot/pnor/cmds/pnorctl/commands/read"
	"github.com/linuxboot/pnor/cmds/pnorctl/commands/write"
)

var (
	knownCommands = map[string]commands.Command{
		"info":  &info.Command{},
		"read":  &read.Command{},
		"write": &write.Command{},
		"erase": &erase.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		log.Fatal(err)
	}
}
