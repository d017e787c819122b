// Copyright 2023 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

// prdtool pokes the OPAL PRD diagnostics channel.
//
// Synopsis:
//     prdtool [-D DEVICE] info
//     prdtool [-D DEVICE] getscom CHIP ADDR
//     prdtool [-D DEVICE] putscom CHIP ADDR DATA
//
// CHIP, ADDR and DATA accept 0x-prefixed hex.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	flag "github.com/spf13/pflag"

	"github.com/linuxboot/pnor/pkg/prd"
)

var devicePath = flag.StringP("device", "D", prd.DefaultDevicePath, "path to the opal-prd character device")

func main() {
	flag.Parse()

	a := flag.Args()
	if len(a) < 1 {
		log.Fatal("usage: prdtool [-D DEVICE] info | getscom CHIP ADDR | putscom CHIP ADDR DATA")
	}

	client, err := prd.Open(*devicePath)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	switch a[0] {
	case "info":
		info, err := client.GetInfo()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("version:   %d\n", info.Version)
		fmt.Printf("code size: %s\n", humanize.IBytes(info.CodeSize))

		w := table.NewWriter()
		w.SetOutputMirror(os.Stdout)
		w.AppendHeader(table.Row{"Range", "Physical address", "Size"})
		for _, r := range info.ActiveRanges() {
			w.AppendRow(table.Row{r.RangeName(), fmt.Sprintf("0x%x", r.PhysAddr), humanize.IBytes(r.Size)})
		}
		w.Render()

	case "getscom":
		if len(a) != 3 {
			log.Fatal("usage: prdtool getscom CHIP ADDR")
		}
		chip, addr := parseU64(a[1]), parseU64(a[2])
		data, err := client.ScomRead(chip, addr)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("0x%016x\n", data)

	case "putscom":
		if len(a) != 4 {
			log.Fatal("usage: prdtool putscom CHIP ADDR DATA")
		}
		chip, addr, data := parseU64(a[1]), parseU64(a[2]), parseU64(a[3])
		if err := client.ScomWrite(chip, addr, data); err != nil {
			log.Fatal(err)
		}

	default:
		log.Fatalf("unknown command '%s'", a[0])
	}
}

func parseU64(s string) uint64 {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		log.Fatalf("unable to parse '%s': %v", s, err)
	}
	return v
}
