// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package build

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/embeddedgo/gba/gbatool/internal/boot"
	"github.com/embeddedgo/gba/gbatool/internal/header"
	"github.com/embeddedgo/gba/gbatool/internal/listing"
	"github.com/embeddedgo/gba/gbatool/internal/rom"
	"github.com/embeddedgo/gba/gbatool/internal/source"
	"github.com/embeddedgo/gba/gbatool/internal/test"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("GBATOOL_MAKER", "8P")
	t.Setenv("GBATOOL_JOBS", "3")
	t.Setenv("OBJDUMP", "arm-none-eabi-objdump")

	j, err := parse("gba", []string{
		"-o", "dbz.gba",
		"-title", "DBZ", "-code", "DBZG",
		"-version", "2", "-unit", "1", "-device", "4",
		"-entry", "0x100", "-size", "1",
		"-boot", "idle", "-fill", "idle", "-truncate", "-le",
		"-inc", "lst:init.txt,data.bin",
		"main.o",
	}, flag.ContinueOnError)
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, j.out, "dbz.gba")
	test.ExpectEquality(t, j.cfg.Size, 1024)
	test.ExpectEquality(t, j.cfg.Header, header.Info{
		Title:      "DBZ",
		GameCode:   "DBZG",
		MakerCode:  "8P",
		UnitCode:   1,
		DeviceType: 4,
		Version:    2,
		Entry:      0x100,
	})
	idle, _ := boot.Builtin("idle")
	test.ExpectBytes(t, j.cfg.Boot, idle, "boot")
	test.ExpectEquality(t, j.cfg.Fill, rom.FillIdle)
	test.ExpectEquality(t, j.cfg.Overflow, rom.OverflowTruncate)
	test.ExpectEquality(t, j.x.Objdump, "arm-none-eabi-objdump")
	test.ExpectEquality(t, j.x.Jobs, 3)
	test.ExpectEquality(t, j.x.Order, listing.LittleEndian)

	want := []source.Source{
		{Kind: source.Object, Path: "main.o"},
		{Kind: source.Listing, Path: "init.txt"},
		{Kind: source.Binary, Path: "data.bin"},
	}
	test.DemandEquality(t, len(j.srcs), len(want))
	for i, s := range want {
		test.ExpectEquality(t, j.srcs[i], s, i)
	}
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("GBATOOL_MAKER", "")
	os.Unsetenv("GBATOOL_MAKER")
	j, err := parse("hex", []string{"-o", "x.hex"}, flag.ContinueOnError)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, j.cfg.Size, rom.DefaultSize)
	test.ExpectEquality(t, j.cfg.Header.MakerCode, "01")
	test.ExpectEquality(t, j.cfg.Header.Entry, rom.CodeOffset)
	test.ExpectEquality(t, len(j.cfg.Boot), 0)
	test.ExpectEquality(t, j.cfg.Fill, rom.FillZero)
	test.ExpectEquality(t, j.cfg.Overflow, rom.OverflowFail)
	test.ExpectEquality(t, j.x.Order, listing.AsListed)
	test.ExpectEquality(t, len(j.srcs), 0)
}

func TestParseFlagErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.boot")
	cases := [][]string{
		{"-version", "256"},
		{"-device", "300"},
		{"-fill", "ones"},
		{"-boot", missing},
		{"-inc", "a.o,,b.o"},
		{"bin:"},
		{"-nosuchflag"},
	}
	for _, args := range cases {
		_, err := parse("gba", append([]string{"-o", "x.gba"}, args...), flag.ContinueOnError)
		test.ExpectFailure(t, err, args)
	}
}

func writeCode(t *testing.T, name string, n int) {
	t.Helper()
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	test.DemandSuccess(t, os.WriteFile(name, b, 0o666))
}

func TestRunTruncates(t *testing.T) {
	dir := t.TempDir()
	code := filepath.Join(dir, "code.bin")
	writeCode(t, code, 2000)
	out := filepath.Join(dir, "big.gba")

	j, err := parse("gba", []string{"-o", out, "-size", "1", "-truncate", code}, flag.ContinueOnError)
	test.DemandSuccess(t, err)

	hook := logtest.NewGlobal()
	defer hook.Reset()
	img, err := j.run()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, img.Dropped(), header.Size+2000-1024)

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && strings.Contains(e.Message, "truncated") {
			warned = true
		}
	}
	test.ExpectEquality(t, warned, true, "truncation warning")

	b, err := os.ReadFile(out)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(b), 1024)
	test.ExpectSuccess(t, header.Verify(b))
	test.ExpectEquality(t, b[header.Size], byte(0))
	test.ExpectEquality(t, b[1023], byte((1023-header.Size)&0xff))
}

func TestRunOverflow(t *testing.T) {
	dir := t.TempDir()
	code := filepath.Join(dir, "code.bin")
	writeCode(t, code, 2000)
	out := filepath.Join(dir, "big.gba")

	j, err := parse("gba", []string{"-o", out, "-size", "1", code}, flag.ContinueOnError)
	test.DemandSuccess(t, err)
	_, err = j.run()
	test.ExpectEquality(t, errors.Is(err, rom.ErrOverflow), true, err)
	_, err = os.Stat(out)
	test.ExpectFailure(t, err, "no output on overflow")
}

func TestRunHex(t *testing.T) {
	dir := t.TempDir()
	code := filepath.Join(dir, "code.bin")
	writeCode(t, code, 64)
	out := filepath.Join(dir, "small.hex")

	j, err := parse("hex", []string{"-o", out, "-size", "1", "-title", "HEX", code}, flag.ContinueOnError)
	test.DemandSuccess(t, err)
	img, err := j.run()
	test.DemandSuccess(t, err)

	f, err := os.Open(out)
	test.DemandSuccess(t, err)
	defer f.Close()
	b, err := rom.ReadHex(f)
	test.DemandSuccess(t, err)
	test.ExpectBytes(t, b, img.Bytes())
}

func TestRunWriteError(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nodir", "x.gba")
	j, err := parse("gba", []string{"-o", out, "-size", "1"}, flag.ContinueOnError)
	test.DemandSuccess(t, err)
	_, err = j.run()
	test.ExpectFailure(t, err)
}
