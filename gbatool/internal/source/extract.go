// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"bytes"
	"debug/elf"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/embeddedgo/gba/gbatool/internal/listing"
	"github.com/embeddedgo/gba/gbatool/internal/rom"
)

var (
	// ErrMissingInput means the source file does not exist.
	ErrMissingInput = errors.New("missing input")

	// ErrToolFailure means the code could not be obtained from an existing
	// file: objdump failed, the file is not a valid ELF, etc.
	ErrToolFailure = errors.New("tool failure")

	// ErrNoCode means the source was read but contains no code.
	ErrNoCode = errors.New("no code")
)

// Diagnostic reports a source that contributes no code to the image. None
// of the diagnostics stops the build.
type Diagnostic struct {
	Source Source
	Err    error // wraps ErrMissingInput, ErrToolFailure or ErrNoCode
}

func (d *Diagnostic) Error() string {
	return d.Source.Path + ": " + d.Err.Error()
}

func (d *Diagnostic) Unwrap() error { return d.Err }

// RunFunc runs the disassembler on the object file and returns its output.
type RunFunc func(objdump, obj string) ([]byte, error)

// Extractor extracts code from sources.
type Extractor struct {
	Objdump string        // disassembler command, "objdump" if empty
	Order   listing.Order // byte order of listings
	Jobs    int           // concurrent objdump runs, 0 means runtime.NumCPU
	Run     RunFunc       // nil means RunObjdump
}

// RunObjdump runs objdump -d on the object file.
func RunObjdump(objdump, obj string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(objdump, "-d", obj)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extract returns the code segments of srcs in the srcs order. Sources that
// contribute nothing are omitted from the returned segments and reported as
// diagnostics instead. The result does not depend on the Jobs value.
func (x *Extractor) Extract(srcs []Source) ([]rom.Segment, []*Diagnostic) {
	codes := make([][]byte, len(srcs))
	errs := make([]error, len(srcs))
	var g errgroup.Group
	jobs := x.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	g.SetLimit(jobs)
	for i, s := range srcs {
		g.Go(func() error {
			codes[i], errs[i] = x.extract(s)
			return nil
		})
	}
	g.Wait()

	var (
		segs  []rom.Segment
		diags []*Diagnostic
	)
	for i, s := range srcs {
		err := errs[i]
		if err == nil && len(codes[i]) == 0 {
			err = ErrNoCode
		}
		if err != nil {
			diags = append(diags, &Diagnostic{s, err})
			continue
		}
		log.Debugf("source: %s: %d bytes", s, len(codes[i]))
		segs = append(segs, rom.Segment{Name: s.Path, Data: codes[i]})
	}
	return segs, diags
}

// ExtractOne returns the code of a single source.
func (x *Extractor) ExtractOne(s Source) ([]byte, error) {
	code, err := x.extract(s)
	if err == nil && len(code) == 0 {
		err = ErrNoCode
	}
	if err != nil {
		return nil, &Diagnostic{s, err}
	}
	return code, nil
}

func (x *Extractor) extract(s Source) ([]byte, error) {
	fi, err := os.Stat(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMissingInput
		}
		return nil, fmt.Errorf("%w: %v", ErrToolFailure, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file", ErrToolFailure)
	}
	p := listing.Parser{Order: x.Order}
	switch s.Kind {
	case Object:
		objdump := x.Objdump
		if objdump == "" {
			objdump = "objdump"
		}
		run := x.Run
		if run == nil {
			run = RunObjdump
		}
		out, err := run(objdump, s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrToolFailure, objdump, err)
		}
		code, err := p.Parse(bytes.NewReader(out))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrToolFailure, objdump, err)
		}
		return code, nil
	case Listing:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolFailure, err)
		}
		defer f.Close()
		code, err := p.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolFailure, err)
		}
		return code, nil
	case ELF:
		code, err := ReadText(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolFailure, err)
		}
		return code, nil
	case Binary:
		code, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolFailure, err)
		}
		return code, nil
	}
	return nil, fmt.Errorf("%w: unknown source kind %v", ErrToolFailure, s.Kind)
}

// ReadText returns the concatenated content of the executable sections of
// the ELF file in the section header order, which is also the order used by
// objdump -d.
func ReadText(name string) ([]byte, error) {
	f, err := elf.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var code []byte
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		log.Debugf("readelf: %s: section '%s' (%d bytes)", name, s.Name, len(data))
		code = append(code, data...)
	}
	return code, nil
}
