// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rom lays out the cartridge image: the header at offset 0, the
// bootstrap block at the entry offset and the code segments right after it.
package rom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
	log "github.com/sirupsen/logrus"

	"github.com/embeddedgo/gba/gbatool/internal/header"
)

const (
	// BaseAddr is the address of the first cartridge byte in the GBA memory
	// map.
	BaseAddr = 0x08000000

	// DefaultSize is the usual size of the generated images.
	DefaultSize = 256 * 1024

	// CodeOffset is the default entry offset (the first byte after the
	// header).
	CodeOffset = header.DefaultEntry

	// IdleInsn is the ARM "b ." instruction.
	IdleInsn = 0xeafffffe
)

// Fill selects the content of the unused part of the image.
type Fill int

const (
	FillZero Fill = iota // zero bytes
	FillIdle             // IdleInsn in every word after the code
)

// Overflow selects what happens when the content does not fit in the image.
type Overflow int

const (
	OverflowFail     Overflow = iota // Assemble returns ErrOverflow
	OverflowTruncate                 // the excess is dropped
)

// ErrOverflow means the content does not fit in the image.
var ErrOverflow = errors.New("content exceeds image size")

// Segment is a named block of machine code.
type Segment struct {
	Name string
	Data []byte
}

// Config describes an image.
type Config struct {
	Size     int // image size, 0 means DefaultSize
	Header   header.Info
	Boot     []byte // bootstrap code placed at Header.Entry
	Fill     Fill
	Overflow Overflow
}

// Placement describes where an item landed in the image.
type Placement struct {
	Name    string
	Offset  int
	Len     int // bytes written
	Dropped int // bytes that did not fit
}

// Image is an assembled cartridge image.
type Image struct {
	data    []byte
	end     int
	dropped int
	places  []Placement
}

// Assemble builds the image described by cfg that contains segs. The
// segments are placed one after another, in order, without any gap. Empty
// segments are ignored.
func Assemble(cfg *Config, segs []Segment) (*Image, error) {
	size := cfg.Size
	if size == 0 {
		size = DefaultSize
	}
	if size < header.Size {
		return nil, fmt.Errorf("rom: image size %d smaller than header", size)
	}
	hinfo := cfg.Header
	if hinfo.Entry == 0 {
		hinfo.Entry = CodeOffset
	}
	if hinfo.Entry < header.Size {
		return nil, fmt.Errorf("rom: entry %#x inside the header", hinfo.Entry)
	}
	h, err := header.Build(&hinfo)
	if err != nil {
		return nil, err
	}
	if err = header.Verify(h); err != nil {
		return nil, err
	}

	img := &Image{data: make([]byte, size)}
	img.put("header", 0, h)
	img.end = hinfo.Entry
	if len(cfg.Boot) != 0 {
		img.put("boot", img.end, cfg.Boot)
	}
	for _, s := range segs {
		if len(s.Data) == 0 {
			continue
		}
		img.put(s.Name, img.end, s.Data)
	}

	if img.dropped != 0 {
		if cfg.Overflow != OverflowTruncate {
			return nil, fmt.Errorf(
				"rom: %w: %d bytes do not fit in %d",
				ErrOverflow, img.dropped, size,
			)
		}
		log.Warnf("rom: image truncated, %d bytes dropped", img.dropped)
	}
	if cfg.Fill == FillIdle {
		img.fillIdle()
	}
	if err = header.Verify(img.data); err != nil {
		return nil, err
	}
	return img, nil
}

func (img *Image) put(name string, off int, data []byte) {
	n := 0
	if off < len(img.data) {
		n = copy(img.data[off:], data)
	}
	p := Placement{name, off, n, len(data) - n}
	log.Debugf("rom: %s at %#x: %d bytes", name, off, n)
	img.places = append(img.places, p)
	img.dropped += p.Dropped
	img.end = off + len(data)
}

func (img *Image) fillIdle() {
	a := (min(img.end, len(img.data)) + 3) &^ 3
	for ; a+4 <= len(img.data); a += 4 {
		binary.LittleEndian.PutUint32(img.data[a:], IdleInsn)
	}
}

// Bytes returns the image content. It must not be modified.
func (img *Image) Bytes() []byte { return img.data }

// Len returns the image size.
func (img *Image) Len() int { return len(img.data) }

// End returns the offset just after the last placed byte. End can be greater
// than Len if the image was truncated.
func (img *Image) End() int { return img.end }

// Dropped returns the number of bytes that did not fit in the image.
func (img *Image) Dropped() int { return img.dropped }

// Placements returns the placement of the header, the bootstrap block and the
// non-empty segments in the order they were written.
func (img *Image) Placements() []Placement { return img.places }

// WriteTo writes the binary image to w.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), err
}

// WriteHex writes the image to w in the Intel HEX format. The image is
// located at BaseAddr.
func (img *Image) WriteHex(w io.Writer) error {
	mem := gohex.NewMemory()
	if err := mem.AddBinary(BaseAddr, img.data); err != nil {
		return err
	}
	return mem.DumpIntelHex(w, 16)
}

// ReadHex reads an image written in the Intel HEX format. The image must
// start at BaseAddr. Gaps between data records are filled with zeros.
func ReadHex(r io.Reader) ([]byte, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, errors.New("rom: no data in the HEX file")
	}
	if segs[0].Address != BaseAddr {
		return nil, fmt.Errorf("rom: HEX data starts at %#x, not %#x", segs[0].Address, BaseAddr)
	}
	last := segs[len(segs)-1]
	end := last.Address + uint32(len(last.Data))
	return mem.ToBinary(BaseAddr, end-BaseAddr, 0), nil
}
