// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const relocBlockHeaderSize = 8

// Base relocation entry types (IMAGE_REL_BASED_*). The Type field of a
// relocation entry indicates what kind of fixup the loader must perform;
// different types apply to different machine architectures.
const (
	ImageRelBasedAbsolute    = 0
	ImageRelBasedHigh        = 1
	ImageRelBasedLow         = 2
	ImageRelBasedHighLow     = 3
	ImageRelBasedHighAdj     = 4
	ImageRelBasedMIPSJmpAddr = 5
	ImageRelBasedARMMov32    = 5
	ImageRelBasedRiscvHigh20 = 5
	ImageRelBasedReserved    = 6
	ImageRelBasedThumbMov32  = 7
	ImageRelBasedRiscvLow12I = 7
	ImageRelBasedRiscvLow12S = 8
	ImageRelBasedMIPSJmpAddr16 = 9
	ImageRelBasedDir64       = 10
)

// RelocEntry is one 16-bit relocation entry: a fixup type and an offset
// within its containing 4K page.
type RelocEntry struct {
	Type   uint8
	Offset uint16 // low 12 bits of the raw entry, within the page
}

// RVA returns the entry's effective image RVA.
func (e RelocEntry) RVA(pageRVA uint32) uint32 {
	return pageRVA + uint32(e.Offset)
}

// RelocBlock is one relocation block: a page RVA plus its entry array.
type RelocBlock struct {
	PageRVA   uint32
	BlockSize uint32

	entries []byte // borrowed, raw 16-bit entries
}

// Entries returns an iterator over this block's entries.
func (b RelocBlock) Entries() *RelocEntryIter {
	return &RelocEntryIter{c: newCursor(b.entries)}
}

// RelocEntryIter lazily decodes one relocation block's entry array.
type RelocEntryIter struct {
	c   *Cursor
	err error
}

func (it *RelocEntryIter) Err() error { return it.err }

func (it *RelocEntryIter) Next() (RelocEntry, bool) {
	if it.err != nil || it.c.remaining() < 2 {
		return RelocEntry{}, false
	}
	raw, err := it.c.readU16()
	if err != nil {
		it.err = err
		return RelocEntry{}, false
	}
	return RelocEntry{Type: uint8(raw >> 12), Offset: raw & 0x0FFF}, true
}

// RelocIter lazily walks the relocation directory's block chain, bounded by
// the directory's total size (spec §4.6).
type RelocIter struct {
	v       *PeView
	c       *Cursor
	end     uint32
	err     error
}

// Relocations returns an iterator over the base-relocation directory's
// block chain, or ErrAbsent if the directory entry is the (0,0) sentinel.
func (v *PeView) Relocations() (*RelocIter, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryBaseReloc)
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
	return &RelocIter{v: v, c: c, end: off + d.Size}, nil
}

func (it *RelocIter) Err() error { return it.err }

// Next decodes the next relocation block header and its entry array.
func (it *RelocIter) Next() (RelocBlock, bool) {
	if it.err != nil || it.c.position()+relocBlockHeaderSize > it.end {
		return RelocBlock{}, false
	}

	pageRVA, err := it.c.readU32()
	if err != nil {
		it.err = err
		return RelocBlock{}, false
	}
	blockSize, err := it.c.readU32()
	if err != nil {
		it.err = err
		return RelocBlock{}, false
	}
	if blockSize < relocBlockHeaderSize {
		it.err = errKind(KindMalformed, "relocation block size", it.c.position())
		return RelocBlock{}, false
	}
	if it.c.position()-relocBlockHeaderSize+blockSize > it.end {
		it.err = errKind(KindMalformed, "relocation block extent", it.c.position())
		return RelocBlock{}, false
	}

	entries, err := it.c.readSlice(blockSize - relocBlockHeaderSize)
	if err != nil {
		it.err = err
		return RelocBlock{}, false
	}

	return RelocBlock{PageRVA: pageRVA, BlockSize: blockSize, entries: entries}, true
}
