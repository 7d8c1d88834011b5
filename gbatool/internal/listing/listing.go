// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package listing recovers the instruction bytes from a disassembly listing
// like the one printed by objdump -d.
//
// Only the lines of the form
//
//	ADDR: XX XX ... [MNEMONIC OPERANDS]
//
// are significant. All the other lines (file and section banners, symbol
// labels, empty lines) are skipped, as are the lines whose byte column has an
// odd number of hex digits.
package listing

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Order describes how the hex groups of the byte column are laid out in
// memory.
type Order int

const (
	// AsListed emits the bytes in the order they appear in the text.
	AsListed Order = iota

	// LittleEndian treats every 2 and 4 byte group as a number printed most
	// significant byte first (objdump prints ARM and Thumb instructions this
	// way) and emits it in the little-endian memory order.
	LittleEndian
)

// Line is a significant listing line.
type Line struct {
	Addr  uint64 // informational only
	Bytes []byte
}

// Parser extracts bytes from listings.
type Parser struct {
	Order Order
}

// Line parses a single line of text. It reports false if s is not a
// significant line or its byte column can not be decoded.
func (p *Parser) Line(s string) (l Line, ok bool) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexByte(s, ':')
	if i <= 0 || hexLen(s[:i]) != i {
		return
	}
	addr, err := strconv.ParseUint(s[:i], 16, 64)
	if err != nil {
		return
	}
	s = s[i+1:]
	if s == "" || (s[0] != ' ' && s[0] != '\t') {
		return
	}
	s = strings.TrimLeft(s, " \t")
	if i = strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	var groups []string
	digits := 0
	for _, f := range strings.Fields(s) {
		if hexLen(f) != len(f) {
			break
		}
		groups = append(groups, f)
		digits += len(f)
	}
	if digits == 0 || digits&1 != 0 {
		return
	}
	l.Addr = addr
	l.Bytes = make([]byte, 0, digits/2)
	if p.Order == LittleEndian && wordGroups(groups) {
		for _, g := range groups {
			for k := len(g) - 2; k >= 0; k -= 2 {
				l.Bytes = append(l.Bytes, unhex(g[k])<<4|unhex(g[k+1]))
			}
		}
		return l, true
	}
	hex := strings.Join(groups, "")
	for k := 0; k < len(hex); k += 2 {
		l.Bytes = append(l.Bytes, unhex(hex[k])<<4|unhex(hex[k+1]))
	}
	return l, true
}

// wordGroups reports whether every group is a whole 1, 2 or 4 byte number.
// Other groupings make sense only when concatenated with their neighbours.
func wordGroups(groups []string) bool {
	for _, g := range groups {
		if n := len(g); n != 2 && n != 4 && n != 8 {
			return false
		}
	}
	return true
}

// Parse reads the whole listing from r and returns the concatenated bytes of
// all its significant lines. The only error it returns is a read error.
func (p *Parser) Parse(r io.Reader) ([]byte, error) {
	var code []byte
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		if l, ok := p.Line(sc.Text()); ok {
			code = append(code, l.Bytes...)
		}
	}
	return code, sc.Err()
}

// Parse is Parser.Parse with the AsListed byte order.
func Parse(r io.Reader) ([]byte, error) {
	var p Parser
	return p.Parse(r)
}

// Decode parses the listing text in s using the AsListed byte order.
func Decode(s string) []byte {
	code, _ := Parse(strings.NewReader(s))
	return code
}

// hexLen returns the length of the hex digit prefix of s.
func hexLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return i
		}
	}
	return len(s)
}

func unhex(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
