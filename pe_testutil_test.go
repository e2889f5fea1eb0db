// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// testSection describes one section to lay into a synthetic image: raw
// bytes are placed verbatim at PointerToRawData and the RVA span is padded
// with zero fill up to size.
type testSection struct {
	name    string
	rva     uint32
	size    uint32 // virtual size; raw data is padded/truncated to this
	fileOff uint32
	raw     []byte
	chars   uint32
}

// buildPE assembles a minimal, well-formed PE32+ byte buffer: a 64-byte DOS
// header, NT headers with the requested data directories, and a section
// table plus section bodies. It is the synthetic counterpart to an on-disk
// fixture — every test in this package builds its input this way, since no
// sample binaries ship with the package.
func buildPE(dirs [numberOfDirectoryEntries]DataDirectory, sections []testSection) []byte {
	const (
		dosSize           = 64
		elfanew           = dosSize
		fileHeaderSize    = 20
		optHeaderFixed    = 112
		dirArraySize      = numberOfDirectoryEntries * 8
		optHeaderSize     = optHeaderFixed + dirArraySize
		sectionHeaderSize = 40
	)

	sectionTableOff := elfanew + 4 + fileHeaderSize + optHeaderSize
	headersEnd := uint32(sectionTableOff) + uint32(len(sections))*sectionHeaderSize

	total := headersEnd
	for _, s := range sections {
		end := s.fileOff + s.size
		if end > total {
			total = end
		}
	}

	buf := make([]byte, total)

	// DOS header: only Magic and AddressOfNewEXEHeader matter to the reader.
	binary.LittleEndian.PutUint16(buf[0:2], 0x5A4D)
	binary.LittleEndian.PutUint32(buf[0x3c:0x40], elfanew)

	pos := elfanew
	binary.LittleEndian.PutUint32(buf[pos:pos+4], 0x00004550) // "PE\0\0"
	pos += 4

	binary.LittleEndian.PutUint16(buf[pos:pos+2], 0x8664) // IMAGE_FILE_MACHINE_AMD64
	pos += 2
	binary.LittleEndian.PutUint16(buf[pos:pos+2], uint16(len(sections)))
	pos += 2
	pos += 4 // TimeDateStamp
	pos += 4 // PointerToSymbolTable
	pos += 4 // NumberOfSymbols
	binary.LittleEndian.PutUint16(buf[pos:pos+2], uint16(optHeaderSize))
	pos += 2
	pos += 2 // Characteristics

	optStart := pos
	binary.LittleEndian.PutUint16(buf[pos:pos+2], 0x20B) // PE32+ magic
	pos += 2
	pos += 2 // linker version
	pos += 4 // SizeOfCode
	pos += 4 // SizeOfInitializedData
	pos += 4 // SizeOfUninitializedData
	pos += 4 // AddressOfEntryPoint
	pos += 4 // BaseOfCode
	binary.LittleEndian.PutUint64(buf[pos:pos+8], 0x140000000) // ImageBase
	pos += 8
	pos += 4 // SectionAlignment
	pos += 4 // FileAlignment
	pos += 2 * 6 // os/image/subsystem version fields
	pos += 4 // Win32VersionValue
	pos += 4 // SizeOfImage
	pos += 4 // SizeOfHeaders
	pos += 4 // CheckSum
	pos += 2 // Subsystem
	pos += 2 // DllCharacteristics
	pos += 8 * 4 // stack/heap reserve/commit
	pos += 4 // LoaderFlags
	pos += 4 // NumberOfRvaAndSizes
	_ = optStart

	for i, d := range dirs {
		off := pos + uint32(i)*8
		binary.LittleEndian.PutUint32(buf[off:off+4], d.VirtualAddress)
		binary.LittleEndian.PutUint32(buf[off+4:off+8], d.Size)
	}

	secPos := sectionTableOff
	for _, s := range sections {
		var name [8]byte
		copy(name[:], s.name)
		copy(buf[secPos:secPos+8], name[:])
		binary.LittleEndian.PutUint32(buf[secPos+8:secPos+12], s.size)
		binary.LittleEndian.PutUint32(buf[secPos+12:secPos+16], s.rva)
		binary.LittleEndian.PutUint32(buf[secPos+16:secPos+20], s.size)
		binary.LittleEndian.PutUint32(buf[secPos+20:secPos+24], s.fileOff)
		binary.LittleEndian.PutUint32(buf[secPos+32:secPos+36], s.chars)
		secPos += sectionHeaderSize

		n := copy(buf[s.fileOff:s.fileOff+s.size], s.raw)
		_ = n
	}

	return buf
}

// rvaOf converts a file offset within a section back to its RVA, given the
// section it was built against, for tests that assemble directory contents
// in-place inside a testSection and need cross-referencing RVAs (e.g. an
// import name that lives in the same section as its descriptor). No test
// calls it at present; imports_test.go uses its own rvaOfRaw.
func rvaOf(s testSection, fileOff uint32) uint32 {
	return s.rva + (fileOff - s.fileOff)
}

// patchDirectory overwrites data directory idx in an already-built image
// buffer, for tests that need to add a certificate table after the fact
// (it is file-offset addressed, so it cannot be passed through the
// section-relative testSection machinery).
func patchDirectory(buf []byte, idx int, d DataDirectory) {
	const optDirArrayOff = 64 + 4 + 20 + 112 // elfanew + sig + file header + fixed optional header
	off := optDirArrayOff + idx*8
	binary.LittleEndian.PutUint32(buf[off:], d.VirtualAddress)
	binary.LittleEndian.PutUint32(buf[off+4:], d.Size)
}

func cstr(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
