// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"unicode"

	"golang.org/x/mod/modfile"
)

func Warn(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
}

func Fatal(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// FatalErr prints an error description and exits the program if the
// err != nil.
func FatalErr(what string, err error) {
	if err == nil {
		return
	}
	s := err.Error() + "\n"
	if what != "" {
		s = what + ": " + s
	}
	os.Stderr.WriteString(s)
	os.Exit(1)
}

// DirName returns the last element of the path to the current working
// directory.
func DirName() string {
	dir, err := os.Getwd()
	FatalErr("", err)
	dir = filepath.Base(dir)
	if dir == "/" || dir == "." {
		dir = ""
	}
	return dir
}

// Module returns the path of the main module.
func Module() string {
	out, err := exec.Command("go", "env", "GOMOD").Output()
	FatalErr("", err)
	gomod := filepath.Clean(string(bytes.TrimRightFunc(out, unicode.IsSpace)))
	if gomod == "" || gomod == "." || gomod == os.DevNull {
		Fatal("go.mod file not found in current directory or any parent directory")
	}
	data, err := os.ReadFile(gomod)
	FatalErr("", err)
	return ModulePath(gomod, data)
}

// ModulePath returns the module path declared in the go.mod file content.
func ModulePath(gomod string, data []byte) string {
	mp := modfile.ModulePath(data)
	if mp == "" {
		Fatal("there is no module directive in " + gomod)
	}
	return mp
}

// OutFile returns outName if it isn't empty. Otherwise it infers the name of
// the output file from the last element of the module path or, if there is no
// go.mod file in the current directory, from the name of the current working
// directory.
func OutFile(outName, outSuffix string) string {
	if outName != "" {
		return outName
	}
	fs, err := os.Stat("go.mod")
	if err != nil || !fs.Mode().IsRegular() {
		outName = DirName()
	} else {
		outName = path.Base(Module())
	}
	if outName == "" {
		outName = "rom"
	}
	return outName + outSuffix
}
