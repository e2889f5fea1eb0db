// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const runtimeFunctionEntrySize = 12

// ImageRuntimeFunctionEntry is one IMAGE_RUNTIME_FUNCTION_ENTRY: the
// function table based exception-handling support used on x64, recording
// the extent of a non-leaf function and its unwind-info RVA.
type ImageRuntimeFunctionEntry struct {
	BeginAddress      uint32
	EndAddress        uint32
	UnwindInfoAddress uint32
}

// ExceptionIter lazily walks the exception directory's flat array of
// fixed-size function-table entries (spec §4.7).
type ExceptionIter struct {
	c   *Cursor
	err error
}

// Exceptions returns an iterator over the exception directory's runtime
// function entries, or ErrAbsent if the directory entry is the (0,0)
// sentinel.
func (v *PeView) Exceptions() (*ExceptionIter, error) {
	slice, _, err := v.directorySlice(ImageDirectoryEntryException)
	if err != nil {
		return nil, err
	}
	return &ExceptionIter{c: newCursor(slice)}, nil
}

func (it *ExceptionIter) Err() error { return it.err }

// Next decodes the next runtime function entry.
func (it *ExceptionIter) Next() (ImageRuntimeFunctionEntry, bool) {
	if it.err != nil || it.c.remaining() < runtimeFunctionEntrySize {
		return ImageRuntimeFunctionEntry{}, false
	}
	var e ImageRuntimeFunctionEntry
	var err error
	if e.BeginAddress, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageRuntimeFunctionEntry{}, false
	}
	if e.EndAddress, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageRuntimeFunctionEntry{}, false
	}
	if e.UnwindInfoAddress, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageRuntimeFunctionEntry{}, false
	}
	return e, true
}
