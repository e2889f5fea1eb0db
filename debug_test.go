// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"testing"
)

func TestDebugCodeViewRSDS(t *testing.T) {
	const rva = 0x9000
	const fileOff = 0x400
	const cvFileOff = fileOff + debugDirectoryEntrySize

	raw := make([]byte, debugDirectoryEntrySize+64)
	binary.LittleEndian.PutUint32(raw[12:], ImageDebugTypeCodeView) // Type
	sizeOfData := uint32(4 + 16 + 4 + len("c:\\build\\out.pdb") + 1)
	binary.LittleEndian.PutUint32(raw[16:], sizeOfData) // SizeOfData
	binary.LittleEndian.PutUint32(raw[20:], 0)          // AddressOfRawData (unused here)
	binary.LittleEndian.PutUint32(raw[24:], cvFileOff)  // PointerToRawData

	cv := raw[debugDirectoryEntrySize:]
	binary.LittleEndian.PutUint32(cv[0:], cvSignatureRSDS)
	guid := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06,
		0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	copy(cv[4:20], guid)
	binary.LittleEndian.PutUint32(cv[20:], 3) // Age
	copy(cv[24:], cstr("c:\\build\\out.pdb"))

	sec := testSection{name: ".debug", rva: rva, size: uint32(len(raw)), fileOff: fileOff, raw: raw, chars: ImageScnCntInitializedData | ImageScnMemRead}
	var dirs [numberOfDirectoryEntries]DataDirectory
	dirs[ImageDirectoryEntryDebug] = DataDirectory{VirtualAddress: rva, Size: debugDirectoryEntrySize}

	buf := buildPE(dirs, []testSection{sec})
	v, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	it, err := v.Debug()
	if err != nil {
		t.Fatalf("Debug() failed: %v", err)
	}
	e, ok := it.Next()
	if !ok {
		t.Fatalf("Next() = false, err %v", it.Err())
	}
	if e.Type != ImageDebugTypeCodeView {
		t.Fatalf("Type = %d, want ImageDebugTypeCodeView", e.Type)
	}

	pdb, err := v.CodeView(e)
	if err != nil {
		t.Fatalf("CodeView() failed: %v", err)
	}
	if pdb.Age != 3 {
		t.Errorf("Age = %d, want 3", pdb.Age)
	}
	if string(pdb.PDBPath) != "c:\\build\\out.pdb" {
		t.Errorf("PDBPath = %q", pdb.PDBPath)
	}
}
