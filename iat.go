// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// IATIter lazily walks the flat IAT directory (data directory index 12):
// once bound, the same slots regular import thunks occupy, overwritten with
// resolved 64-bit virtual addresses (spec §3 "Thunk (PE32+)").
type IATIter struct {
	c    *Cursor
	end  uint32
	err  error
}

// IAT returns an iterator over the raw thunk-address-table directory, or
// ErrAbsent if the directory entry is the (0,0) sentinel. Entries here are
// not re-decoded as ordinal/name thunks — once bound, IAT slots hold plain
// virtual addresses — so this yields raw uint64 values.
func (v *PeView) IAT() (*IATIter, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryIAT)
	if err != nil {
		return nil, err
	}
	off, err := v.resolver.fileOffsetForRVA(d.VirtualAddress)
	if err != nil {
		return nil, err
	}
	c := newCursor(v.buf)
	if err := c.seek(off); err != nil {
		return nil, err
	}
	return &IATIter{c: c, end: off + d.Size}, nil
}

func (it *IATIter) Err() error { return it.err }

// Next returns the next raw 8-byte IAT slot value.
func (it *IATIter) Next() (uint64, bool) {
	if it.err != nil || it.c.position()+8 > it.end {
		return 0, false
	}
	v, err := it.c.readU64()
	if err != nil {
		it.err = err
		return 0, false
	}
	return v, true
}
