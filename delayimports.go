// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const delayImportDescriptorSize = 32

// ImageDelayImportDescriptor describes one delay-loaded module. Unlike a
// regular import descriptor, every field here is an RVA except Attributes
// and TimeDateStamp.
type ImageDelayImportDescriptor struct {
	Attributes                 uint32
	Name                       uint32 // RVA to the module's ASCII name
	ModuleHandleRVA            uint32
	DelayImportAddressTableRVA uint32 // IAT equivalent
	DelayImportNameTableRVA    uint32 // INT equivalent
	BoundDelayImportTableRVA   uint32
	UnloadDelayImportTableRVA  uint32
	TimeDateStamp              uint32
}

func (d ImageDelayImportDescriptor) isZero() bool {
	return d == ImageDelayImportDescriptor{}
}

// DelayModule is one delay-load import descriptor together with its
// resolved module name.
type DelayModule struct {
	Descriptor ImageDelayImportDescriptor
	Name       []byte

	v *PeView
}

// DelayModuleIter lazily walks the delay-import descriptor chain.
type DelayModuleIter struct {
	v    *PeView
	c    *Cursor
	err  error
	done bool
}

// DelayImports returns an iterator over the delay-load import directory's
// module chain, or ErrAbsent if the directory entry is the (0,0) sentinel.
func (v *PeView) DelayImports() (*DelayModuleIter, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryDelayImport)
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
	return &DelayModuleIter{v: v, c: c}, nil
}

func (it *DelayModuleIter) Err() error { return it.err }

// Next advances to the next delay-load module descriptor.
func (it *DelayModuleIter) Next() (DelayModule, bool) {
	if it.done || it.err != nil {
		return DelayModule{}, false
	}

	var d ImageDelayImportDescriptor
	var err error
	if d.Attributes, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.Name, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.ModuleHandleRVA, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.DelayImportAddressTableRVA, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.DelayImportNameTableRVA, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.BoundDelayImportTableRVA, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.UnloadDelayImportTableRVA, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}
	if d.TimeDateStamp, err = it.c.readU32(); err != nil {
		it.err = err
		return DelayModule{}, false
	}

	if d.isZero() {
		it.done = true
		return DelayModule{}, false
	}

	name, err := it.v.resolver.rvaCstr(d.Name)
	if err != nil {
		it.err = err
		return DelayModule{}, false
	}

	return DelayModule{Descriptor: d, Name: name, v: it.v}, true
}

// Thunks returns a thunk iterator over this delay-loaded module's name
// table, reusing the same PE32+ thunk decoder regular imports use.
func (m DelayModule) Thunks() (*ThunkIter, error) {
	thunkRVA := m.Descriptor.DelayImportNameTableRVA
	if thunkRVA == 0 {
		return nil, errKind(KindMalformed, "delay import thunk array", 0)
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
