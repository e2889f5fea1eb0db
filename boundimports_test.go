// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"testing"
)

func TestBoundImports(t *testing.T) {
	const rva = 0x5000
	const fileOff = 0x400

	// Table-relative layout: descriptor(8) + terminator(8) + name string.
	raw := make([]byte, 32)
	binary.LittleEndian.PutUint32(raw[0:], 0x1000)  // TimeDateStamp
	binary.LittleEndian.PutUint16(raw[4:], 16)       // OffsetModuleName (table-relative)
	binary.LittleEndian.PutUint16(raw[6:], 0)        // NumberOfModuleForwarderRefs
	// bytes [8:16) stay zero: terminator descriptor
	copy(raw[16:], cstr("USER32.dll"))

	sec := testSection{name: ".bound", rva: rva, size: uint32(len(raw)), fileOff: fileOff, raw: raw, chars: ImageScnMemRead}
	var dirs [numberOfDirectoryEntries]DataDirectory
	dirs[ImageDirectoryEntryBoundImport] = DataDirectory{VirtualAddress: rva, Size: uint32(len(raw))}

	buf := buildPE(dirs, []testSection{sec})
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	it, err := v.BoundImports()
	if err != nil {
		t.Fatalf("BoundImports() failed: %v", err)
	}
	m, ok := it.Next()
	if !ok {
		t.Fatalf("Next() = false, err %v", it.Err())
	}
	if string(m.Name) != "USER32.dll" {
		t.Errorf("name = %q, want USER32.dll", m.Name)
	}
	if _, ok := it.Next(); ok {
		t.Error("expected bound import chain to terminate")
	}
}
