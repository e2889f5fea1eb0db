// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"testing"
)

func TestResourceRootAndDataEntry(t *testing.T) {
	const rva = 0xc000
	const fileOff = 0x400

	const (
		rootOff  = 0
		entryOff = resourceDirectorySize
		dataOff  = entryOff + resourceDirectoryEntrySize
	)
	raw := make([]byte, dataOff+resourceDataEntrySize)

	binary.LittleEndian.PutUint16(raw[12:], 0) // NumberOfNamedEntries
	binary.LittleEndian.PutUint16(raw[14:], 1) // NumberOfIDEntries

	binary.LittleEndian.PutUint32(raw[entryOff:], 3)                          // numeric ID (RT_ICON)
	binary.LittleEndian.PutUint32(raw[entryOff+4:], uint32(dataOff))          // OffsetToData, leaf (bit31 clear)

	binary.LittleEndian.PutUint32(raw[dataOff:], rva+0x2000) // OffsetToData (RVA of raw bytes)
	binary.LittleEndian.PutUint32(raw[dataOff+4:], 256)      // Size
	binary.LittleEndian.PutUint32(raw[dataOff+8:], 1252)     // CodePage

	sec := testSection{name: ".rsrc", rva: rva, size: uint32(len(raw)), fileOff: fileOff, raw: raw, chars: ImageScnCntInitializedData | ImageScnMemRead}
	var dirs [numberOfDirectoryEntries]DataDirectory
	dirs[ImageDirectoryEntryResource] = DataDirectory{VirtualAddress: rva, Size: uint32(len(raw))}

	buf := buildPE(dirs, []testSection{sec})
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	root, err := v.Resources()
	if err != nil {
		t.Fatalf("Resources() failed: %v", err)
	}
	if root.Root.NumberOfIDEntries != 1 {
		t.Fatalf("NumberOfIDEntries = %d, want 1", root.Root.NumberOfIDEntries)
	}

	it := root.Entries()
	e, ok := it.Next()
	if !ok {
		t.Fatalf("Entries().Next() = false, err %v", it.Err())
	}
	if e.IsNamed() {
		t.Error("entry unexpectedly named")
	}
	if e.ID() != 3 {
		t.Errorf("ID() = %d, want 3", e.ID())
	}
	if e.IsSubdirectory() {
		t.Error("entry unexpectedly a subdirectory")
	}

	data, err := root.DataEntry(e)
	if err != nil {
		t.Fatalf("DataEntry() failed: %v", err)
	}
	if data.Size != 256 || data.CodePage != 1252 {
		t.Errorf("DataEntry() = %+v", data)
	}

	if _, ok := it.Next(); ok {
		t.Error("expected entries iterator to be exhausted")
	}
}
