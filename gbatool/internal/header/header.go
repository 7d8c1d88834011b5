// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package header builds and checks the 192-byte cartridge header that the
// GBA BIOS validates before it jumps to the ROM code.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Header layout.
const (
	Size = 0xc0

	entryOff   = 0x00
	logoOff    = 0x04
	titleOff   = 0xa0
	codeOff    = 0xac
	makerOff   = 0xb0
	fixedOff   = 0xb2
	unitOff    = 0xb3
	deviceOff  = 0xb4
	versionOff = 0xbc
	sumOff     = 0xbd

	TitleLen = 12
	CodeLen  = 4
	MakerLen = 2

	// FixedValue must be present at 0xb2 in every valid header.
	FixedValue = 0x96

	// DefaultEntry is the first byte after the header.
	DefaultEntry = Size
)

// Info describes the variable part of the header.
type Info struct {
	Title      string // up to 12 ASCII characters
	GameCode   string // up to 4 ASCII characters
	MakerCode  string // up to 2 ASCII characters
	UnitCode   byte
	DeviceType byte
	Version    byte
	Entry      int // offset of the first executed instruction, 0 means DefaultEntry
}

// Build returns the header described by info. The returned header always
// carries a valid checksum.
func Build(info *Info) ([]byte, error) {
	entry := info.Entry
	if entry == 0 {
		entry = DefaultEntry
	}
	if entry < entryOff+8 {
		return nil, fmt.Errorf("header: entry %#x before the branch target", entry)
	}
	b, err := Branch(entryOff, entry)
	if err != nil {
		return nil, err
	}
	h := make([]byte, Size)
	binary.LittleEndian.PutUint32(h[entryOff:], b)
	copy(h[logoOff:], logo[:])
	if err = putString(h[titleOff:titleOff+TitleLen], "title", info.Title); err != nil {
		return nil, err
	}
	if err = putString(h[codeOff:codeOff+CodeLen], "game code", info.GameCode); err != nil {
		return nil, err
	}
	if err = putString(h[makerOff:makerOff+MakerLen], "maker code", info.MakerCode); err != nil {
		return nil, err
	}
	h[fixedOff] = FixedValue
	h[unitOff] = info.UnitCode
	h[deviceOff] = info.DeviceType
	h[versionOff] = info.Version

	// The checksum covers all the fields above so it must be the last write.
	h[sumOff] = Checksum(h)
	return h, nil
}

func putString(field []byte, what, s string) error {
	if len(s) > len(field) {
		return fmt.Errorf("header: %s %q longer than %d bytes", what, s, len(field))
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return fmt.Errorf("header: %s %q is not ASCII", what, s)
		}
	}
	copy(field, s)
	return nil
}

// Branch returns the ARM B instruction placed at the from offset that jumps
// to the to offset.
func Branch(from, to int) (uint32, error) {
	if from&3 != 0 || to&3 != 0 {
		return 0, fmt.Errorf("header: branch %#x -> %#x not word aligned", from, to)
	}
	// PC is two instructions ahead when the branch executes.
	d := (to - (from + 8)) >> 2
	if d < -1<<23 || d >= 1<<23 {
		return 0, fmt.Errorf("header: branch %#x -> %#x out of range", from, to)
	}
	return 0xea000000 | uint32(d)&0x00ffffff, nil
}

// ErrChecksumMismatch is returned by Verify for a header whose complement
// byte does not match its content.
var ErrChecksumMismatch = errors.New("header checksum mismatch")

// Checksum computes the header complement byte from the bytes 0xa0 to 0xbc
// of h.
func Checksum(h []byte) byte {
	var s byte
	for _, b := range h[titleOff:sumOff] {
		s -= b
	}
	return s - 0x19
}

// Verify recomputes the checksum of the header at the beginning of img and
// compares it with the stored one.
func Verify(img []byte) error {
	if len(img) < Size {
		return fmt.Errorf("header: image too short (%d bytes)", len(img))
	}
	if want, have := Checksum(img), img[sumOff]; want != have {
		return fmt.Errorf("%w: stored %#02x, computed %#02x", ErrChecksumMismatch, have, want)
	}
	return nil
}

// LogoOK reports whether img contains the unmodified logo bitmap.
func LogoOK(img []byte) bool {
	if len(img) < logoOff+len(logo) {
		return false
	}
	return string(img[logoOff:logoOff+len(logo)]) == string(logo[:])
}

// FixedOK reports whether img contains the fixed value at its place.
func FixedOK(img []byte) bool {
	return len(img) > fixedOff && img[fixedOff] == FixedValue
}

// Parse decodes the header at the beginning of img. It does not verify the
// checksum.
func Parse(img []byte) (*Info, error) {
	if len(img) < Size {
		return nil, fmt.Errorf("header: image too short (%d bytes)", len(img))
	}
	info := &Info{
		Title:      cstring(img[titleOff : titleOff+TitleLen]),
		GameCode:   cstring(img[codeOff : codeOff+CodeLen]),
		MakerCode:  cstring(img[makerOff : makerOff+MakerLen]),
		UnitCode:   img[unitOff],
		DeviceType: img[deviceOff],
		Version:    img[versionOff],
	}
	b := binary.LittleEndian.Uint32(img[entryOff:])
	if b&0xff000000 != 0xea000000 {
		return info, fmt.Errorf("header: entry %#08x is not a branch", b)
	}
	d := int32(b<<8) >> 8 // sign extend the 24-bit offset
	info.Entry = entryOff + 8 + int(d)*4
	return info, nil
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
