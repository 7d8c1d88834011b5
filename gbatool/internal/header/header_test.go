// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/embeddedgo/gba/gbatool/internal/test"
)

func TestBuildLayout(t *testing.T) {
	h, err := Build(&Info{Title: "ABC", GameCode: "TEST", MakerCode: "01"})
	test.DemandSuccess(t, err)
	test.DemandEquality(t, len(h), Size)

	test.ExpectEquality(t, binary.LittleEndian.Uint32(h), uint32(0xea00002e), "entry")
	test.ExpectEquality(t, LogoOK(h), true, "logo")
	test.ExpectBytes(t, h[0xa0:0xac], []byte("ABC\x00\x00\x00\x00\x00\x00\x00\x00\x00"), "title")
	test.ExpectBytes(t, h[0xac:0xb0], []byte("TEST"), "game code")
	test.ExpectBytes(t, h[0xb0:0xb2], []byte("01"), "maker code")
	test.ExpectEquality(t, h[0xb2], byte(FixedValue), "fixed value")
	for i := 0xb3; i <= 0xbc; i++ {
		test.ExpectEquality(t, h[i], byte(0), fmt.Sprintf("%#x", i))
	}
	test.ExpectEquality(t, h[0xbd], byte(0xea), "checksum")
	test.ExpectEquality(t, h[0xbe], byte(0), "reserved")
	test.ExpectEquality(t, h[0xbf], byte(0), "reserved")
}

func TestChecksumKnownValues(t *testing.T) {
	cases := []struct {
		info Info
		sum  byte
	}{
		{Info{}, 0x51},
		{Info{Title: "ABC", GameCode: "TEST", MakerCode: "01"}, 0xea},
		{Info{Title: "DBZ COMPLETE", GameCode: "DBZC", MakerCode: "01"}, 0x74},
	}
	for _, c := range cases {
		h, err := Build(&c.info)
		test.DemandSuccess(t, err)
		test.ExpectEquality(t, h[0xbd], c.sum, c.info.Title)
		test.ExpectEquality(t, Checksum(h), c.sum, c.info.Title)
	}
}

func randASCII(r *rand.Rand, max int) string {
	b := make([]byte, r.Intn(max+1))
	for i := range b {
		b[i] = byte(0x20 + r.Intn(0x5f))
	}
	return string(b)
}

func TestChecksumAlwaysVerifies(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		info := &Info{
			Title:      randASCII(r, TitleLen),
			GameCode:   randASCII(r, CodeLen),
			MakerCode:  randASCII(r, MakerLen),
			UnitCode:   byte(r.Intn(256)),
			DeviceType: byte(r.Intn(256)),
			Version:    byte(r.Intn(256)),
		}
		h, err := Build(info)
		test.DemandSuccess(t, err, info.Title)
		test.ExpectSuccess(t, Verify(h), info.Title)
		test.ExpectEquality(t, h[0xb2], byte(0x96), info.Title)
	}
}

func TestVerifyMismatch(t *testing.T) {
	h, err := Build(&Info{Title: "ABC", GameCode: "TEST", MakerCode: "01"})
	test.DemandSuccess(t, err)
	h[0xa1]++
	err = Verify(h)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, errors.Is(err, ErrChecksumMismatch), true)

	test.ExpectFailure(t, Verify(h[:0x40]))
}

func TestBuildIsDeterministic(t *testing.T) {
	info := &Info{Title: "SAIYANQUEST", GameCode: "SQST", MakerCode: "01", Version: 3}
	a, err := Build(info)
	test.DemandSuccess(t, err)
	b, err := Build(info)
	test.DemandSuccess(t, err)
	test.ExpectBytes(t, a, b)
}

func TestBuildRejects(t *testing.T) {
	cases := []*Info{
		{Title: "THIRTEEN CHAR"},
		{GameCode: "GAMES"},
		{MakerCode: "ABC"},
		{Title: "caf\xc3\xa9"},
		{Entry: 0xc2},
		{Entry: 4},
		{Entry: -8},
		{Entry: 0x4000000},
	}
	for _, info := range cases {
		_, err := Build(info)
		test.ExpectFailure(t, err, fmt.Sprintf("%+v", *info))
	}
}

func TestBuildLowestEntry(t *testing.T) {
	h, err := Build(&Info{Entry: 8})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(h), uint32(0xea000000))
}

func TestBranch(t *testing.T) {
	cases := []struct {
		from, to int
		insn     uint32
	}{
		{0, 0xc0, 0xea00002e},
		{0, 0x20, 0xea000006},
		{0, 0x100, 0xea00003e},
		{0x100, 0x100, 0xeafffffe}, // b .
		{0x200, 0x100, 0xeaffffbe},
	}
	for _, c := range cases {
		b, err := Branch(c.from, c.to)
		test.DemandSuccess(t, err)
		test.ExpectEquality(t, b, c.insn, fmt.Sprintf("%#x->%#x", c.from, c.to))
	}
}

func TestParseRoundTrip(t *testing.T) {
	in := &Info{
		Title:      "ULTRA TEST",
		GameCode:   "UTST",
		MakerCode:  "01",
		UnitCode:   1,
		DeviceType: 2,
		Version:    3,
		Entry:      0x100,
	}
	h, err := Build(in)
	test.DemandSuccess(t, err)
	out, err := Parse(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, *out, *in)
}

func TestParseNotBranch(t *testing.T) {
	h, err := Build(&Info{Title: "X"})
	test.DemandSuccess(t, err)
	h[3] = 0
	info, err := Parse(h)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, info.Title, "X")
}

func TestFixedOK(t *testing.T) {
	h, err := Build(&Info{})
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, FixedOK(h), true)
	h[0xb2] = 0
	test.ExpectEquality(t, FixedOK(h), false)
	test.ExpectEquality(t, FixedOK(h[:0x10]), false)
}
