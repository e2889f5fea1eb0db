// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	// imageDosSignature is the "MZ" magic at offset 0 of every DOS/PE file.
	imageDosSignature = 0x5A4D

	// dosHeaderSize is the fixed size of the DOS header prefix.
	dosHeaderSize = 64

	// elfanewOffset is the byte offset of e_lfanew within the DOS header.
	elfanewOffset = 0x3c
)

// ImageDOSHeader represents the DOS stub of a PE, the 64-byte prefix every
// PE32+ image begins with.
type ImageDOSHeader struct {
	// Magic number. "MZ" (0x5A4D) for every valid DOS/PE executable.
	Magic uint16

	// Bytes on last page of file.
	BytesOnLastPageOfFile uint16

	// Pages in file.
	PagesInFile uint16

	// Relocations.
	Relocations uint16

	// Size of header in paragraphs.
	SizeOfHeader uint16

	// Minimum extra paragraphs needed.
	MinExtraParagraphsNeeded uint16

	// Maximum extra paragraphs needed.
	MaxExtraParagraphsNeeded uint16

	// Initial (relative) SS value.
	InitialSS uint16

	// Initial SP value.
	InitialSP uint16

	// Checksum.
	Checksum uint16

	// Initial IP value.
	InitialIP uint16

	// Initial (relative) CS value.
	InitialCS uint16

	// File address of relocation table.
	AddressOfRelocationTable uint16

	// Overlay number.
	OverlayNumber uint16

	// Reserved words.
	ReservedWords1 [4]uint16

	// OEM identifier.
	OEMIdentifier uint16

	// OEM information.
	OEMInformation uint16

	// Reserved words.
	ReservedWords2 [10]uint16

	// AddressOfNewEXEHeader (e_lfanew) is the file offset of the NT headers.
	AddressOfNewEXEHeader uint32
}

// parseDOSHeader reads the 64-byte DOS header prefix at offset 0 and
// validates the "MZ" magic and the bounds of e_lfanew. It does not validate
// that e_lfanew lands on anything in particular beyond buffer bounds; the NT
// header parse does that.
func parseDOSHeader(buf []byte) (ImageDOSHeader, error) {
	var h ImageDOSHeader

	c := newCursor(buf)
	if c.remaining() < dosHeaderSize {
		return h, errKind(KindTruncated, "dos header", 0)
	}

	var err error
	if h.Magic, err = c.readU16(); err != nil {
		return h, err
	}
	if h.Magic != imageDosSignature {
		return h, errKind(KindBadDosMagic, "dos header magic", 0)
	}
	if h.BytesOnLastPageOfFile, err = c.readU16(); err != nil {
		return h, err
	}
	if h.PagesInFile, err = c.readU16(); err != nil {
		return h, err
	}
	if h.Relocations, err = c.readU16(); err != nil {
		return h, err
	}
	if h.SizeOfHeader, err = c.readU16(); err != nil {
		return h, err
	}
	if h.MinExtraParagraphsNeeded, err = c.readU16(); err != nil {
		return h, err
	}
	if h.MaxExtraParagraphsNeeded, err = c.readU16(); err != nil {
		return h, err
	}
	if h.InitialSS, err = c.readU16(); err != nil {
		return h, err
	}
	if h.InitialSP, err = c.readU16(); err != nil {
		return h, err
	}
	if h.Checksum, err = c.readU16(); err != nil {
		return h, err
	}
	if h.InitialIP, err = c.readU16(); err != nil {
		return h, err
	}
	if h.InitialCS, err = c.readU16(); err != nil {
		return h, err
	}
	if h.AddressOfRelocationTable, err = c.readU16(); err != nil {
		return h, err
	}
	if h.OverlayNumber, err = c.readU16(); err != nil {
		return h, err
	}
	for i := range h.ReservedWords1 {
		if h.ReservedWords1[i], err = c.readU16(); err != nil {
			return h, err
		}
	}
	if h.OEMIdentifier, err = c.readU16(); err != nil {
		return h, err
	}
	if h.OEMInformation, err = c.readU16(); err != nil {
		return h, err
	}
	for i := range h.ReservedWords2 {
		if h.ReservedWords2[i], err = c.readU16(); err != nil {
			return h, err
		}
	}
	if h.AddressOfNewEXEHeader, err = c.readU32(); err != nil {
		return h, err
	}

	if h.AddressOfNewEXEHeader < elfanewOffset ||
		uint64(h.AddressOfNewEXEHeader) > uint64(len(buf)) {
		return h, errKind(KindMalformed, "e_lfanew", h.AddressOfNewEXEHeader)
	}

	return h, nil
}
