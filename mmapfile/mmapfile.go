// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mmapfile opens a file on disk and hands the core pe package a
// borrowed, memory-mapped view of it. Parsing stays zero-copy end to end:
// the core pe package never touches the filesystem, and this package never
// interprets PE structure.
package mmapfile

import (
	"os"

	"github.com/edsrzf/mmap-go"
	pe "github.com/saferwall/peview"
)

// File is a memory-mapped PE image plus the parsed view borrowing from it.
// Callers must call Close when done; the returned *pe.PeView and every
// slice it yields become invalid afterward.
type File struct {
	view *pe.PeView
	mm   mmap.MMap
	f    *os.File
}

// Open memory-maps path read-only and parses it with pe.Parse.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	view, err := pe.Parse(mm)
	if err != nil {
		mm.Unmap()
		f.Close()
		return nil, err
	}

	return &File{view: view, mm: mm, f: f}, nil
}

// View returns the parsed PE view backed by the memory-mapped file.
func (mf *File) View() *pe.PeView {
	return mf.view
}

// Close unmaps the file and closes its descriptor.
func (mf *File) Close() error {
	uerr := mf.mm.Unmap()
	cerr := mf.f.Close()
	if uerr != nil {
		return uerr
	}
	return cerr
}
