// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const sectionHeaderSize = 40

// Section characteristics bit flags (IMAGE_SCN_*), the subset relevant to
// a read-only structural view.
const (
	ImageScnCntCode               = 0x00000020
	ImageScnCntInitializedData    = 0x00000040
	ImageScnCntUninitializedData  = 0x00000080
	ImageScnMemDiscardable        = 0x02000000
	ImageScnMemExecute            = 0x20000000
	ImageScnMemRead               = 0x40000000
	ImageScnMemWrite              = 0x80000000
)

// ImageSectionHeader is one row of the section table: it maps a contiguous
// virtual range to a contiguous file range.
type ImageSectionHeader struct {
	// Name is an 8-byte, NUL-padded name. If exactly 8 bytes long there is
	// no terminating NUL.
	Name [8]byte

	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// NameString returns the section name as a string, trimmed at the first NUL.
func (h ImageSectionHeader) NameString() string {
	n := 0
	for n < len(h.Name) && h.Name[n] != 0 {
		n++
	}
	return string(h.Name[:n])
}

// rvaSpanEnd returns the end of this section's RVA span: VA +
// max(VirtualSize, SizeOfRawData), per spec §3.
func (h ImageSectionHeader) rvaSpanEnd() uint64 {
	vsize := h.VirtualSize
	if h.SizeOfRawData > vsize {
		vsize = h.SizeOfRawData
	}
	return uint64(h.VirtualAddress) + uint64(vsize)
}

func (h ImageSectionHeader) containsRVA(rva uint32) bool {
	return uint64(rva) >= uint64(h.VirtualAddress) && uint64(rva) < h.rvaSpanEnd()
}

// parseSectionHeaders reads count contiguous 40-byte section headers
// starting at the cursor's current position.
func parseSectionHeaders(c *Cursor, count uint16) ([]ImageSectionHeader, error) {
	sections := make([]ImageSectionHeader, 0, count)
	for i := uint16(0); i < count; i++ {
		var h ImageSectionHeader
		name, err := c.readSlice(8)
		if err != nil {
			return nil, err
		}
		copy(h.Name[:], name)

		if h.VirtualSize, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.VirtualAddress, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.SizeOfRawData, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.PointerToRawData, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.PointerToRelocations, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.PointerToLineNumbers, err = c.readU32(); err != nil {
			return nil, err
		}
		if h.NumberOfRelocations, err = c.readU16(); err != nil {
			return nil, err
		}
		if h.NumberOfLineNumbers, err = c.readU16(); err != nil {
			return nil, err
		}
		if h.Characteristics, err = c.readU32(); err != nil {
			return nil, err
		}
		sections = append(sections, h)
	}
	return sections, nil
}

// resolver translates RVAs and raw file offsets into bounded sub-slices of
// the image buffer by walking the section table. It holds no state beyond
// a borrow of the buffer and the section slice; it never mutates either.
type resolver struct {
	buf      []byte
	sections []ImageSectionHeader
}

// sectionForRVA returns the first section (in table order) whose RVA span
// contains rva. Per spec §9, overlapping sections resolve to the first
// match — the resolver does not assume sections are sorted.
func (r *resolver) sectionForRVA(rva uint32) *ImageSectionHeader {
	for i := range r.sections {
		if r.sections[i].containsRVA(rva) {
			return &r.sections[i]
		}
	}
	return nil
}

// rvaToSlice resolves [rva, rva+length) to a bounded sub-slice of the
// buffer. A length of 0 succeeds with a valid RVA and returns an empty
// slice anchored at the computed file offset. Fails BadRva if no section
// covers the range, or if the resolved file range exceeds that section's
// raw data or the buffer itself.
func (r *resolver) rvaToSlice(rva, length uint32) ([]byte, error) {
	sec := r.sectionForRVA(rva)
	if sec == nil {
		return nil, errKind(KindBadRva, "rva", rva)
	}

	fileOffset := sec.PointerToRawData + (rva - sec.VirtualAddress)
	end := uint64(fileOffset) + uint64(length)

	secRawEnd := uint64(sec.PointerToRawData) + uint64(sec.SizeOfRawData)
	if end > secRawEnd || end > uint64(len(r.buf)) {
		return nil, errKind(KindBadRva, "rva range", rva)
	}
	return r.buf[fileOffset : fileOffset+length], nil
}

// fileOffsetForRVA resolves rva to a raw file offset without bounding a
// length, used to anchor a Cursor at a directory whose total extent is
// only known by walking it (e.g. an import descriptor or thunk chain).
func (r *resolver) fileOffsetForRVA(rva uint32) (uint32, error) {
	sec := r.sectionForRVA(rva)
	if sec == nil {
		if uint64(rva) >= uint64(len(r.buf)) {
			return 0, errKind(KindBadRva, "rva", rva)
		}
		return rva, nil
	}
	fileOffset := sec.PointerToRawData + (rva - sec.VirtualAddress)
	if uint64(fileOffset) > uint64(len(r.buf)) {
		return 0, errKind(KindBadRva, "rva", rva)
	}
	return fileOffset, nil
}

// offsetToSlice resolves a raw file offset (not an RVA) to a bounded
// sub-slice, used by the attribute-certificate directory.
func (r *resolver) offsetToSlice(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(r.buf)) {
		return nil, errKind(KindTruncated, "file offset range", offset)
	}
	return r.buf[offset : offset+length], nil
}

// rvaCstr resolves rva to an anchor and scans forward for a NUL terminator,
// bounded by the covering section's raw data range (or, if rva is not
// covered by any section but still lies within the buffer, by the buffer
// itself — some PE headers sit outside any declared section).
func (r *resolver) rvaCstr(rva uint32) ([]byte, error) {
	sec := r.sectionForRVA(rva)
	if sec == nil {
		if uint64(rva) >= uint64(len(r.buf)) {
			return nil, errKind(KindBadRva, "rva cstr", rva)
		}
		c := newCursor(r.buf)
		if err := c.seek(rva); err != nil {
			return nil, err
		}
		return c.readCstr()
	}

	fileOffset := sec.PointerToRawData + (rva - sec.VirtualAddress)
	secRawEnd := sec.PointerToRawData + sec.SizeOfRawData
	if uint64(fileOffset) > uint64(len(r.buf)) {
		return nil, errKind(KindBadRva, "rva cstr", rva)
	}
	limit := secRawEnd
	if uint64(limit) > uint64(len(r.buf)) {
		limit = uint32(len(r.buf))
	}

	for i := fileOffset; i < limit; i++ {
		if r.buf[i] == 0 {
			return r.buf[fileOffset:i], nil
		}
	}
	return nil, errKind(KindTruncated, "rva cstr", fileOffset)
}
