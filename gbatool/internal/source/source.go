// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source turns the segment sources given on the command line (object
// files, listings, raw binaries) into code segments.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind tells how the code is obtained from a source file.
type Kind int

const (
	Object  Kind = iota // listing produced by objdump -d
	Listing             // listing read from the file
	ELF                 // executable sections read directly from the file
	Binary              // whole file
)

var kindNames = [...]string{
	Object:  "obj",
	Listing: "lst",
	ELF:     "elf",
	Binary:  "bin",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source is a single segment source.
type Source struct {
	Kind Kind
	Path string
}

func (s Source) String() string {
	return s.Kind.String() + ":" + s.Path
}

// Parse parses a source description of the form [KIND:]PATH where KIND is
// one of obj, lst, elf, bin. If KIND is omitted it is inferred from the file
// extension: .lst, .dis, .txt and .s are listings, .bin is a binary and
// everything else is an object passed to objdump.
func Parse(descr string) (Source, error) {
	if i := strings.IndexByte(descr, ':'); i > 0 {
		for k, name := range kindNames {
			if descr[:i] == name {
				path := descr[i+1:]
				if path == "" {
					return Source{}, fmt.Errorf("source: no path in '%s'", descr)
				}
				return Source{Kind(k), path}, nil
			}
		}
	}
	if descr == "" {
		return Source{}, errors.New("source: empty description")
	}
	s := Source{Object, descr}
	switch strings.ToLower(filepath.Ext(descr)) {
	case ".lst", ".dis", ".txt", ".s":
		s.Kind = Listing
	case ".bin":
		s.Kind = Binary
	}
	return s, nil
}

// ParseList parses a comma separated list of source descriptions.
func ParseList(descr string) ([]Source, error) {
	var ss []Source
	for _, d := range strings.Split(descr, ",") {
		s, err := Parse(d)
		if err != nil {
			return nil, err
		}
		ss = append(ss, s)
	}
	return ss, nil
}
