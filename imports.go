// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	importDescriptorSize = 20

	// thunkOrdinalFlag64 is bit 63 of a PE32+ thunk: when set, the low 16
	// bits are an ordinal rather than an RVA to a hint/name record.
	thunkOrdinalFlag64 = uint64(1) << 63
	thunkOrdinalMask   = uint64(0xFFFF)
	thunkAddressMask64 = uint64(0x7FFFFFFFFFFFFFFF)
)

// ImageImportDescriptor is one 20-byte entry of the import directory table,
// one per module the image imports from. The chain terminates on an
// all-zero descriptor.
type ImageImportDescriptor struct {
	OriginalFirstThunk uint32 // RVA to the Import Lookup/Name Table (INT)
	TimeDateStamp      uint32
	ForwarderChain     uint32
	Name               uint32 // RVA to the module's ASCII name
	FirstThunk         uint32 // RVA to the Import Address Table (IAT)
}

func (d ImageImportDescriptor) isZero() bool {
	return d == ImageImportDescriptor{}
}

// Import is one decoded thunk slot: either an import by ordinal, or an
// import by name carrying a hint and the borrowed ASCII name.
type Import struct {
	ByOrdinal bool
	Ordinal   uint16
	Hint      uint16
	Name      []byte // borrowed; only meaningful when !ByOrdinal
}

// Module is one import descriptor together with the resolved module name
// and a handle to iterate its thunk chain.
type Module struct {
	Descriptor ImageImportDescriptor
	Name       []byte // borrowed ASCII module name

	v *PeView
}

// ModuleIter lazily walks the import descriptor chain.
type ModuleIter struct {
	v   *PeView
	c   *Cursor
	err error
	done bool
}

// Imports returns an iterator over the import directory's module chain, or
// ErrAbsent if the import data directory entry is the (0,0) sentinel.
func (v *PeView) Imports() (*ModuleIter, error) {
	return v.importsFromDirectory(ImageDirectoryEntryImport)
}

func (v *PeView) importsFromDirectory(idx int) (*ModuleIter, error) {
	d, err := v.dataDirectory(idx)
	if err != nil {
		return nil, err
	}
	// Anchor a cursor over the whole buffer, positioned at the directory's
	// file offset, so successive 20-byte descriptor reads are trivial
	// cursor advances rather than repeated RVA resolutions.
	off, err := v.resolver.fileOffsetForRVA(d.VirtualAddress)
	if err != nil {
		return nil, err
	}
	c := newCursor(v.buf)
	if err := c.seek(off); err != nil {
		return nil, err
	}
	return &ModuleIter{v: v, c: c}, nil
}

// Err returns the first error encountered during iteration, if any.
func (it *ModuleIter) Err() error { return it.err }

// Next advances to the next module. It returns false when the chain is
// exhausted (either by the zero terminator, normally, or by an error —
// check Err to distinguish the two).
func (it *ModuleIter) Next() (Module, bool) {
	if it.done || it.err != nil {
		return Module{}, false
	}

	var d ImageImportDescriptor
	var err error
	if d.OriginalFirstThunk, err = it.c.readU32(); err != nil {
		it.err = err
		return Module{}, false
	}
	if d.TimeDateStamp, err = it.c.readU32(); err != nil {
		it.err = err
		return Module{}, false
	}
	if d.ForwarderChain, err = it.c.readU32(); err != nil {
		it.err = err
		return Module{}, false
	}
	if d.Name, err = it.c.readU32(); err != nil {
		it.err = err
		return Module{}, false
	}
	if d.FirstThunk, err = it.c.readU32(); err != nil {
		it.err = err
		return Module{}, false
	}

	if d.isZero() {
		it.done = true
		return Module{}, false
	}

	name, err := it.v.resolver.rvaCstr(d.Name)
	if err != nil {
		it.err = err
		return Module{}, false
	}

	return Module{Descriptor: d, Name: name, v: it.v}, true
}

// Thunks returns an iterator over this module's imported symbols. It
// anchors at OriginalFirstThunk when nonzero, else FirstThunk — mirroring
// bound-import images where the INT has been zeroed (spec §4.4, §8).
func (m Module) Thunks() (*ThunkIter, error) {
	thunkRVA := m.Descriptor.OriginalFirstThunk
	if thunkRVA == 0 {
		thunkRVA = m.Descriptor.FirstThunk
	}
	if thunkRVA == 0 {
		return nil, errKind(KindMalformed, "import thunk array", 0)
	}
	off, err := m.v.resolver.fileOffsetForRVA(thunkRVA)
	if err != nil {
		return nil, err
	}
	c := newCursor(m.v.buf)
	if err := c.seek(off); err != nil {
		return nil, err
	}
	return &ThunkIter{v: m.v, c: c}, nil
}

// ThunkIter lazily walks one module's thunk array (INT or IAT) and decodes
// each 8-byte PE32+ thunk.
type ThunkIter struct {
	v    *PeView
	c    *Cursor
	err  error
	done bool
}

func (it *ThunkIter) Err() error { return it.err }

// Next decodes the next thunk. A zero thunk terminates the array (Next
// returns false, Err() == nil).
func (it *ThunkIter) Next() (Import, bool) {
	if it.done || it.err != nil {
		return Import{}, false
	}

	raw, err := it.c.readU64()
	if err != nil {
		it.err = err
		return Import{}, false
	}
	if raw == 0 {
		it.done = true
		return Import{}, false
	}

	if raw&thunkOrdinalFlag64 != 0 {
		return Import{ByOrdinal: true, Ordinal: uint16(raw & thunkOrdinalMask)}, true
	}

	hintNameRVA := uint32(raw & thunkAddressMask64)
	off, err := it.v.resolver.fileOffsetForRVA(hintNameRVA)
	if err != nil {
		it.err = err
		return Import{}, false
	}
	hc := newCursor(it.v.buf)
	if err := hc.seek(off); err != nil {
		it.err = err
		return Import{}, false
	}
	hint, err := hc.readU16()
	if err != nil {
		it.err = err
		return Import{}, false
	}
	name, err := hc.readCstr()
	if err != nil {
		it.err = err
		return Import{}, false
	}
	return Import{ByOrdinal: false, Hint: hint, Name: name}, true
}
