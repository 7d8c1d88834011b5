// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package extract

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/embeddedgo/gba/gbatool/internal/listing"
	"github.com/embeddedgo/gba/gbatool/internal/source"
	"github.com/embeddedgo/gba/gbatool/internal/util"
)

const Descr = "write the code extracted from a single source to a binary file"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [OPTIONS] [KIND:]SOURCE [BIN]\nOptions:\n", cmd)
		fs.PrintDefaults()
	}
	objdump := fs.String("objdump", env.Str("OBJDUMP", "objdump"), "disassembler `command`")
	le := fs.Bool("le", false, "emit the listed instruction words in little-endian order")
	fs.Parse(args)
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	src, err := source.Parse(fs.Arg(0))
	util.FatalErr(cmd, err)
	x := &source.Extractor{Objdump: *objdump}
	if *le {
		x.Order = listing.LittleEndian
	}
	util.FatalErr(cmd, extract(x, src, fs.Arg(1)))
}

// extract writes the code of src to the out file. If out is empty its name
// is derived from the source path.
func extract(x *source.Extractor, src source.Source, out string) error {
	if out == "" {
		out = strings.TrimSuffix(src.Path, filepath.Ext(src.Path)) + ".bin"
		if out == src.Path {
			return fmt.Errorf("output file name required for %s", src.Path)
		}
	}
	code, err := x.ExtractOne(src)
	if err != nil {
		return err
	}
	return os.WriteFile(out, code, 0o666)
}
