// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	boundImportDescriptorSize = 8
	boundForwarderRefSize     = 8
)

// ImageBoundImportDescriptor is one entry of the bound-import table: a
// record of a module this image was bound against at link time, used by
// the loader as a binding shortcut when still valid.
type ImageBoundImportDescriptor struct {
	TimeDateStamp               uint32
	OffsetModuleName            uint16 // offset from the start of the bound-import table
	NumberOfModuleForwarderRefs uint16
}

func (d ImageBoundImportDescriptor) isZero() bool {
	return d == ImageBoundImportDescriptor{}
}

// ImageBoundForwarderRef is one forwarder reference following a bound
// import descriptor.
type ImageBoundForwarderRef struct {
	TimeDateStamp    uint32
	OffsetModuleName uint16
	Reserved         uint16
}

// BoundModule is a decoded bound-import descriptor together with its
// resolved module name and forwarder references.
type BoundModule struct {
	Descriptor    ImageBoundImportDescriptor
	Name          []byte
	ForwarderRefs []ImageBoundForwarderRef
}

// BoundImportIter lazily walks the bound-import descriptor chain. Module
// names and forwarder-ref module names are offsets from the start of the
// table, not RVAs (spec §4.4's module-chain shape, with a table-relative
// name scheme instead of rva_cstr).
type BoundImportIter struct {
	v     *PeView
	table []byte // the full bound-import directory slice
	c     *Cursor
	err   error
	done  bool
}

// BoundImports returns an iterator over the bound-import directory, or
// ErrAbsent if the directory entry is the (0,0) sentinel.
func (v *PeView) BoundImports() (*BoundImportIter, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryBoundImport)
	if err != nil {
		return nil, err
	}
	table, err := v.resolver.rvaToSlice(d.VirtualAddress, d.Size)
	if err != nil {
		// Bound import directory addresses are occasionally not covered by
		// any section and d.Size may only loosely bound the real table; in
		// that case take everything from the RVA's file offset to the end of
		// the buffer (fileOffsetForRVA uses an uncovered RVA verbatim).
		off, ferr := v.resolver.fileOffsetForRVA(d.VirtualAddress)
		if ferr != nil {
			return nil, err
		}
		if uint64(off) > uint64(len(v.buf)) {
			return nil, err
		}
		table = v.buf[off:]
	}
	return &BoundImportIter{v: v, table: table, c: newCursor(table)}, nil
}

func (it *BoundImportIter) Err() error { return it.err }

func (it *BoundImportIter) tableCstr(offset uint16) ([]byte, error) {
	c := newCursor(it.table)
	if err := c.seek(uint32(offset)); err != nil {
		return nil, err
	}
	return c.readCstr()
}

// Next advances to the next bound-import module descriptor.
func (it *BoundImportIter) Next() (BoundModule, bool) {
	if it.done || it.err != nil {
		return BoundModule{}, false
	}

	var d ImageBoundImportDescriptor
	var err error
	if d.TimeDateStamp, err = it.c.readU32(); err != nil {
		it.err = err
		return BoundModule{}, false
	}
	if d.OffsetModuleName, err = it.c.readU16(); err != nil {
		it.err = err
		return BoundModule{}, false
	}
	if d.NumberOfModuleForwarderRefs, err = it.c.readU16(); err != nil {
		it.err = err
		return BoundModule{}, false
	}

	if d.isZero() {
		it.done = true
		return BoundModule{}, false
	}

	name, err := it.tableCstr(d.OffsetModuleName)
	if err != nil {
		it.err = err
		return BoundModule{}, false
	}

	refs := make([]ImageBoundForwarderRef, 0, d.NumberOfModuleForwarderRefs)
	for i := uint16(0); i < d.NumberOfModuleForwarderRefs; i++ {
		var ref ImageBoundForwarderRef
		if ref.TimeDateStamp, err = it.c.readU32(); err != nil {
			it.err = err
			return BoundModule{}, false
		}
		if ref.OffsetModuleName, err = it.c.readU16(); err != nil {
			it.err = err
			return BoundModule{}, false
		}
		if ref.Reserved, err = it.c.readU16(); err != nil {
			it.err = err
			return BoundModule{}, false
		}
		refs = append(refs, ref)
	}

	return BoundModule{Descriptor: d, Name: name, ForwarderRefs: refs}, true
}
