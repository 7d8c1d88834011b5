// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/xyproto/env/v2"

	"github.com/embeddedgo/gba/gbatool/internal/boot"
	"github.com/embeddedgo/gba/gbatool/internal/header"
	"github.com/embeddedgo/gba/gbatool/internal/listing"
	"github.com/embeddedgo/gba/gbatool/internal/rom"
	"github.com/embeddedgo/gba/gbatool/internal/source"
	"github.com/embeddedgo/gba/gbatool/internal/util"
)

const (
	DescrGBA = "assemble a GBA ROM image from object files"
	DescrHex = "assemble a GBA ROM image in the Intel HEX format"
)

type job struct {
	cmd     string
	out     string
	srcs    []source.Source
	cfg     rom.Config
	x       source.Extractor
	verbose bool
}

func Main(cmd string, args []string) {
	j, err := parse(cmd, args, flag.ExitOnError)
	util.FatalErr(cmd, err)
	if j.verbose {
		log.SetLevel(log.DebugLevel)
	}
	_, err = j.run()
	util.FatalErr(cmd, err)
}

func parse(cmd string, args []string, eh flag.ErrorHandling) (*job, error) {
	fs := flag.NewFlagSet(cmd, eh)
	fs.Usage = func() {
		fmt.Fprintf(
			fs.Output(),
			"Usage:\n  %s [OPTIONS] [[KIND:]SOURCE ...]\n"+
				"KIND is one of obj, lst, elf, bin (default from the file extension).\n"+
				"Options:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	out := fs.String("o", "", "output `file`")
	title := fs.String("title", "", "game title (up to 12 characters)")
	code := fs.String("code", "", "game code (up to 4 characters)")
	maker := fs.String("maker", env.Str("GBATOOL_MAKER", "01"), "maker code (up to 2 characters)")
	version := fs.Uint("version", 0, "software version")
	unit := fs.Uint("unit", 0, "main unit code")
	device := fs.Uint("device", 0, "device type")
	entry := fs.Uint("entry", rom.CodeOffset, "code start `offset`")
	size := fs.Uint("size", rom.DefaultSize/1024, "image size (KiB)")
	bootName := fs.String(
		"boot", "none",
		"bootstrap `block`: a file or one of: "+strings.Join(boot.Names(), ", "),
	)
	fill := fs.String("fill", "zero", "unused space `fill`: zero or idle")
	truncate := fs.Bool("truncate", false, "truncate the content that does not fit instead of failing")
	inc := fs.String("inc", "", "additional sources SRC1[,SRC2[,...]] placed after the others")
	objdump := fs.String("objdump", env.Str("OBJDUMP", "objdump"), "disassembler `command`")
	jobs := fs.Int("j", env.Int("GBATOOL_JOBS", runtime.NumCPU()), "number of concurrent disassembler runs")
	le := fs.Bool("le", false, "emit the listed instruction words in little-endian order")
	verbose := fs.Bool("v", false, "print the image layout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	for _, v := range []*uint{version, unit, device} {
		if *v > 0xff {
			return nil, fmt.Errorf("header byte %d out of range", *v)
		}
	}

	j := &job{cmd: cmd, verbose: *verbose}
	for _, a := range fs.Args() {
		s, err := source.Parse(a)
		if err != nil {
			return nil, err
		}
		j.srcs = append(j.srcs, s)
	}
	if *inc != "" {
		ss, err := source.ParseList(*inc)
		if err != nil {
			return nil, fmt.Errorf("inc: %w", err)
		}
		j.srcs = append(j.srcs, ss...)
	}

	j.cfg = rom.Config{
		Size: int(*size) * 1024,
		Header: header.Info{
			Title:      *title,
			GameCode:   *code,
			MakerCode:  *maker,
			UnitCode:   byte(*unit),
			DeviceType: byte(*device),
			Version:    byte(*version),
			Entry:      int(*entry),
		},
	}
	var err error
	if j.cfg.Boot, err = boot.Load(*bootName); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	switch *fill {
	case "zero":
		j.cfg.Fill = rom.FillZero
	case "idle":
		j.cfg.Fill = rom.FillIdle
	default:
		return nil, fmt.Errorf("unknown fill: %s", *fill)
	}
	if *truncate {
		j.cfg.Overflow = rom.OverflowTruncate
	}

	j.x = source.Extractor{Objdump: *objdump, Jobs: *jobs}
	if *le {
		j.x.Order = listing.LittleEndian
	}
	j.out = util.OutFile(*out, "."+cmd)
	return j, nil
}

// run assembles the image and writes it to j.out.
func (j *job) run() (*rom.Image, error) {
	segs, diags := j.x.Extract(j.srcs)
	for _, d := range diags {
		util.Warn("%s: skipping %s", j.cmd, d)
	}
	img, err := rom.Assemble(&j.cfg, segs)
	if err != nil {
		return nil, err
	}
	if n := img.Dropped(); n != 0 {
		util.Warn("%s: image truncated to %d bytes, %d bytes dropped", j.cmd, img.Len(), n)
	}
	if j.verbose {
		for _, p := range img.Placements() {
			util.Warn("%#06x %6d %s", p.Offset, p.Len, p.Name)
		}
		util.Warn("%#06x %6d free", min(img.End(), img.Len()), max(img.Len()-img.End(), 0))
	}
	return img, j.write(img)
}

func (j *job) write(img *rom.Image) error {
	f, err := os.Create(j.out)
	if err != nil {
		return err
	}
	if j.cmd == "hex" {
		err = img.WriteHex(f)
	} else {
		_, err = img.WriteTo(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
