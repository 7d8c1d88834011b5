// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boot provides the bootstrap blocks placed at the ROM entry point.
// The blocks are opaque data: a few built-in ones and the ones loaded from
// files.
package boot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Words returns the ARM instructions ws in the little-endian memory order.
func Words(ws ...uint32) []byte {
	b := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(b[4*i:], w)
	}
	return b
}

var builtin = map[string][]uint32{
	"none": nil,
	"idle": {
		0xeafffffe, // b .
	},
	"startup": {
		0xe3a000df, // mov r0, #0xdf         @ system mode, IRQ and FIQ off
		0xe121f000, // msr CPSR_c, r0
		0xe3a0d403, // mov sp, #0x03000000
		0xe28ddc7f, // add sp, sp, #0x7f00   @ sp = 0x03007f00
	},
	"mode3": {
		0xe3a00404, // mov r0, #0x04000000   @ DISPCNT
		0xe3a01b01, // mov r1, #0x400        @ BG2 on
		0xe3811003, // orr r1, r1, #3        @ mode 3
		0xe1c010b0, // strh r1, [r0]
	},
}

// Names returns the sorted names of the built-in blocks.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// Builtin returns the built-in block with the given name.
func Builtin(name string) ([]byte, bool) {
	ws, ok := builtin[name]
	if !ok {
		return nil, false
	}
	return Words(ws...), true
}

// Load returns the built-in block with the given name or, if there is no such
// block, reads it from the named file. Files with the .bin extension contain
// raw bytes. Other files contain hexadecimal instruction words, one or more
// per line, optionally prefixed with 0x. The text after ';', '@' or '#' is a
// comment.
func Load(name string) ([]byte, error) {
	if b, ok := Builtin(name); ok {
		return b, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(name) == ".bin" {
		return data, nil
	}
	b, err := ParseWords(data)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", name, err)
	}
	return b, nil
}

// ParseWords decodes the text form of a bootstrap block (see Load).
func ParseWords(text []byte) ([]byte, error) {
	var ws []uint32
	sc := bufio.NewScanner(bytes.NewReader(text))
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if i := strings.IndexAny(line, ";@#"); i >= 0 {
			line = line[:i]
		}
		for _, f := range strings.FieldsFunc(line, isSep) {
			f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
			w, err := strconv.ParseUint(f, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("%d: bad instruction word %q", n, f)
			}
			ws = append(ws, uint32(w))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return Words(ws...), nil
}

func isSep(r rune) bool {
	return r == ' ' || r == '\t' || r == ',' || r == '\r'
}
