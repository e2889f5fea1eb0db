// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"testing"
)

// buildExportSection lays out one export directory with a single named,
// non-forwarded export, "Add", at ordinal base 1.
func buildExportSection() (testSection, uint32, uint32) {
	const rva = 0x4000
	const fileOff = 0x400

	const (
		hdrSize     = 40
		funcsOff    = hdrSize
		namesOff    = funcsOff + 4
		ordinalsOff = namesOff + 4
		nameStrOff  = ordinalsOff + 2
		modNameOff  = nameStrOff + 4
	)
	raw := make([]byte, modNameOff+16)

	binary.LittleEndian.PutUint32(raw[0:], 0)                    // Characteristics
	binary.LittleEndian.PutUint32(raw[4:], 0)                    // TimeDateStamp
	binary.LittleEndian.PutUint16(raw[8:], 0)                    // MajorVersion
	binary.LittleEndian.PutUint16(raw[10:], 0)                   // MinorVersion
	binary.LittleEndian.PutUint32(raw[12:], rva+uint32(modNameOff)) // Name
	binary.LittleEndian.PutUint32(raw[16:], 1)                   // Base
	binary.LittleEndian.PutUint32(raw[20:], 1)                   // NumberOfFunctions
	binary.LittleEndian.PutUint32(raw[24:], 1)                   // NumberOfNames
	binary.LittleEndian.PutUint32(raw[28:], rva+uint32(funcsOff))
	binary.LittleEndian.PutUint32(raw[32:], rva+uint32(namesOff))
	binary.LittleEndian.PutUint32(raw[36:], rva+uint32(ordinalsOff))

	binary.LittleEndian.PutUint32(raw[funcsOff:], 0x1234) // FunctionRVA (outside dir span)
	binary.LittleEndian.PutUint32(raw[namesOff:], rva+uint32(nameStrOff))
	binary.LittleEndian.PutUint16(raw[ordinalsOff:], 0) // ordinal index 0 -> functions[0]

	copy(raw[nameStrOff:], cstr("Add"))
	copy(raw[modNameOff:], cstr("mathlib.dll"))

	sec := testSection{name: ".edata", rva: rva, size: uint32(len(raw)), fileOff: fileOff, raw: raw, chars: ImageScnCntInitializedData | ImageScnMemRead}
	return sec, rva, uint32(len(raw))
}

func TestExportsNamedEntry(t *testing.T) {
	sec, rva, size := buildExportSection()
	var dirs [numberOfDirectoryEntries]DataDirectory
	dirs[ImageDirectoryEntryExport] = DataDirectory{VirtualAddress: rva, Size: size}

	buf := buildPE(dirs, []testSection{sec})
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	ev, err := v.Exports()
	if err != nil {
		t.Fatalf("Exports() failed: %v", err)
	}
	name, err := ev.Name()
	if err != nil || name != "mathlib.dll" {
		t.Fatalf("Name() = %q, %v, want mathlib.dll", name, err)
	}

	it := ev.Iter()
	fn, ok := it.Next()
	if !ok {
		t.Fatalf("Iter().Next() = false, err %v", it.Err())
	}
	if string(fn.Name) != "Add" {
		t.Errorf("export name = %q, want Add", fn.Name)
	}
	if fn.Ordinal != 1 {
		t.Errorf("ordinal = %d, want 1", fn.Ordinal)
	}
	if fn.Forwarder != nil {
		t.Errorf("unexpected forwarder %q", fn.Forwarder)
	}
	if fn.FunctionRVA != 0x1234 {
		t.Errorf("FunctionRVA = %#x, want 0x1234", fn.FunctionRVA)
	}

	if _, ok := it.Next(); ok {
		t.Error("expected export iterator to be exhausted")
	}
}

func TestExportsAbsentDirectory(t *testing.T) {
	buf := buildPE([numberOfDirectoryEntries]DataDirectory{}, []testSection{
		{name: ".text", rva: 0x1000, size: 0x200, fileOff: 0x400, chars: ImageScnCntCode},
	})
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if _, err := v.Exports(); err == nil {
		t.Fatal("Exports() on image with no export directory: want error")
	}
}
