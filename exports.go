// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const imageExportDirectorySize = 40

// ImageExportDirectory is the fixed-size header of the export directory.
type ImageExportDirectory struct {
	Characteristics       uint32
	TimeDateStamp         uint32
	MajorVersion          uint16
	MinorVersion          uint16
	Name                  uint32
	Base                  uint32
	NumberOfFunctions     uint32
	NumberOfNames         uint32
	AddressOfFunctions    uint32
	AddressOfNames        uint32
	AddressOfNameOrdinals uint32
}

// ExportFunction is one resolved export-table entry, yielded in name-table
// order (spec §4.5). ForwarderRVA is nonzero precisely when the function
// address fell inside the export directory's own RVA span, meaning
// FunctionRVA is actually an ASCII forwarder string carried in Forwarder.
type ExportFunction struct {
	Ordinal      uint32
	FunctionRVA  uint32 // meaningless when Forwarder != nil
	NameRVA      uint32
	Name         []byte // borrowed
	Forwarder    []byte // borrowed; non-nil iff FunctionRVA is a forwarder
	ForwarderRVA uint32
}

// ExportView exposes the export directory's three parallel arrays
// (functions, names, ordinals) plus its header, and iterates them lazily
// in name-table order.
type ExportView struct {
	Struct ImageExportDirectory

	v        *PeView
	dirStart uint32
	dirEnd   uint32
}

// Exports parses the export directory header and returns an ExportView, or
// ErrAbsent if the export data directory entry is the (0,0) sentinel.
func (v *PeView) Exports() (*ExportView, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryExport)
	if err != nil {
		return nil, err
	}
	hdr, err := v.resolver.rvaToSlice(d.VirtualAddress, imageExportDirectorySize)
	if err != nil {
		return nil, err
	}
	c := newCursor(hdr)

	var ed ImageExportDirectory
	if ed.Characteristics, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.TimeDateStamp, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.MajorVersion, err = c.readU16(); err != nil {
		return nil, err
	}
	if ed.MinorVersion, err = c.readU16(); err != nil {
		return nil, err
	}
	if ed.Name, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.Base, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.NumberOfFunctions, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.NumberOfNames, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.AddressOfFunctions, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.AddressOfNames, err = c.readU32(); err != nil {
		return nil, err
	}
	if ed.AddressOfNameOrdinals, err = c.readU32(); err != nil {
		return nil, err
	}

	return &ExportView{
		Struct:   ed,
		v:        v,
		dirStart: d.VirtualAddress,
		dirEnd:   d.VirtualAddress + d.Size,
	}, nil
}

// Name returns the module's own export name, e.g. "KERNEL32.dll".
func (ev *ExportView) Name() (string, error) {
	if ev.Struct.Name == 0 {
		return "", nil
	}
	b, err := ev.v.resolver.rvaCstr(ev.Struct.Name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExportIter lazily walks the names array, pairing each entry with its
// ordinal and resolved function address or forwarder string.
type ExportIter struct {
	ev  *ExportView
	i   uint32
	err error
}

func (ev *ExportView) Iter() *ExportIter {
	return &ExportIter{ev: ev}
}

func (it *ExportIter) Err() error { return it.err }

// Next yields the i-th named export, in AddressOfNames table order.
func (it *ExportIter) Next() (ExportFunction, bool) {
	ev := it.ev
	if it.err != nil || it.i >= ev.Struct.NumberOfNames {
		return ExportFunction{}, false
	}
	i := it.i
	it.i++

	nameRVA, err := ev.readArrayU32(ev.Struct.AddressOfNames, i)
	if err != nil {
		it.err = err
		return ExportFunction{}, false
	}
	nameBytes, err := ev.v.resolver.rvaCstr(nameRVA)
	if err != nil {
		it.err = err
		return ExportFunction{}, false
	}

	ordinalIndex, err := ev.readArrayU16(ev.Struct.AddressOfNameOrdinals, i)
	if err != nil {
		it.err = err
		return ExportFunction{}, false
	}
	if uint32(ordinalIndex) >= ev.Struct.NumberOfFunctions {
		it.err = errKind(KindMalformed, "export ordinal index", uint32(ordinalIndex))
		return ExportFunction{}, false
	}

	funcRVA, err := ev.readArrayU32(ev.Struct.AddressOfFunctions, uint32(ordinalIndex))
	if err != nil {
		it.err = err
		return ExportFunction{}, false
	}

	ef := ExportFunction{
		Ordinal: uint32(ordinalIndex) + ev.Struct.Base,
		NameRVA: nameRVA,
		Name:    nameBytes,
	}

	if funcRVA >= ev.dirStart && funcRVA < ev.dirEnd {
		fwd, err := ev.v.resolver.rvaCstr(funcRVA)
		if err != nil {
			it.err = err
			return ExportFunction{}, false
		}
		ef.Forwarder = fwd
		ef.ForwarderRVA = funcRVA
	} else {
		ef.FunctionRVA = funcRVA
	}

	return ef, true
}

// UnnamedExport returns the ordinal-indexed export at position i of the
// functions array (0 ≤ i < NumberOfFunctions), regardless of whether any
// name entry references it. Used to surface exports-by-ordinal-only.
func (ev *ExportView) UnnamedExport(i uint32) (ExportFunction, error) {
	if i >= ev.Struct.NumberOfFunctions {
		return ExportFunction{}, errKind(KindMalformed, "export function index", i)
	}
	funcRVA, err := ev.readArrayU32(ev.Struct.AddressOfFunctions, i)
	if err != nil {
		return ExportFunction{}, err
	}
	ef := ExportFunction{Ordinal: i + ev.Struct.Base}
	if funcRVA >= ev.dirStart && funcRVA < ev.dirEnd {
		fwd, err := ev.v.resolver.rvaCstr(funcRVA)
		if err != nil {
			return ExportFunction{}, err
		}
		ef.Forwarder = fwd
		ef.ForwarderRVA = funcRVA
	} else {
		ef.FunctionRVA = funcRVA
	}
	return ef, nil
}

func (ev *ExportView) readArrayU32(arrayRVA uint32, index uint32) (uint32, error) {
	s, err := ev.v.resolver.rvaToSlice(arrayRVA+index*4, 4)
	if err != nil {
		return 0, err
	}
	c := newCursor(s)
	return c.readU32()
}

func (ev *ExportView) readArrayU16(arrayRVA uint32, index uint32) (uint16, error) {
	s, err := ev.v.resolver.rvaToSlice(arrayRVA+index*2, 2)
	if err != nil {
		return 0, err
	}
	c := newCursor(s)
	return c.readU16()
}
