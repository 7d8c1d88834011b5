// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/embeddedgo/gba/gbatool/internal/header"
	"github.com/embeddedgo/gba/gbatool/internal/rom"
	"github.com/embeddedgo/gba/gbatool/internal/util"
)

const Descr = "print and verify the header of GBA ROM images"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] ROM...\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	quiet := fs.Bool("q", false, "print only the problems")
	fs.Parse(args)
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	bad := 0
	for _, name := range fs.Args() {
		problems, err := checkFile(name, *quiet)
		util.FatalErr(name, err)
		for _, p := range problems {
			util.Warn("%s: %s", name, p)
		}
		if len(problems) != 0 {
			bad++
		}
	}
	if bad != 0 {
		os.Exit(1)
	}
}

func readImage(name string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(name), ".hex") {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return rom.ReadHex(f)
	}
	return os.ReadFile(name)
}

func checkFile(name string, quiet bool) (problems []string, err error) {
	img, err := readImage(name)
	if err != nil {
		return nil, err
	}
	info, perr := header.Parse(img)
	if info == nil {
		return nil, perr
	}
	if perr != nil {
		problems = append(problems, perr.Error())
	}
	if !header.LogoOK(img) {
		problems = append(problems, "logo mismatch")
	}
	if !header.FixedOK(img) {
		problems = append(problems, fmt.Sprintf("fixed value is not %#02x", header.FixedValue))
	}
	if err := header.Verify(img); err != nil {
		problems = append(problems, err.Error())
	}
	if !quiet {
		fmt.Printf(
			"%s:\n  title:   %q\n  code:    %q\n  maker:   %q\n"+
				"  unit:    %d\n  device:  %d\n  version: %d\n"+
				"  entry:   %#x\n  size:    %d\n",
			name, info.Title, info.GameCode, info.MakerCode,
			info.UnitCode, info.DeviceType, info.Version,
			info.Entry, len(img),
		)
	}
	return problems, nil
}
