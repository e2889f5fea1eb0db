// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package pe is a zero-copy, on-demand reader for the PE32+ executable file
// format. Given a byte buffer believed to contain a PE32+ image, Parse
// performs minimal structural validation and returns a PeView exposing
// lazy accessors for each documented directory. Every value a PeView or its
// iterators produce — strings, records, sub-slices — borrows the caller's
// buffer; the package never copies or allocates image bytes, and it never
// writes through the borrow.
package pe

// minImageSize is the smallest buffer Parse will accept: enough for the
// 64-byte DOS header. The NT headers are bounds-checked as they are read.
const minImageSize = 64

// PeView is a parsed PE32+ image: headers and section table are read
// eagerly at Parse time, everything else (imports, exports, relocations,
// ...) lazily through the directory accessors below. A PeView borrows its
// buffer for its entire lifetime and must not outlive it.
type PeView struct {
	buf []byte

	DOSHeader  ImageDOSHeader
	NtHeader   ImageNtHeader
	Sections   []ImageSectionHeader
	RichHeader RichHeader
	hasRich    bool

	resolver resolver
}

// Parse validates the DOS header, NT headers, and section table of buf and
// returns a PeView borrowing buf. It performs no further interpretation:
// every directory is resolved lazily by its accessor.
func Parse(buf []byte) (*PeView, error) {
	if len(buf) < minImageSize {
		return nil, errKind(KindTruncated, "image", uint32(len(buf)))
	}

	dos, err := parseDOSHeader(buf)
	if err != nil {
		return nil, err
	}

	nt, err := parseNTHeaders(buf, dos.AddressOfNewEXEHeader)
	if err != nil {
		return nil, err
	}

	sectionTableOffset := dos.AddressOfNewEXEHeader + 4 +
		imageFileHeaderSize + uint32(nt.FileHeader.SizeOfOptionalHeader)
	c := newCursor(buf)
	if err := c.seek(sectionTableOffset); err != nil {
		return nil, err
	}
	sections, err := parseSectionHeaders(c, nt.FileHeader.NumberOfSections)
	if err != nil {
		return nil, err
	}

	v := &PeView{
		buf:      buf,
		DOSHeader: dos,
		NtHeader:  nt,
		Sections:  sections,
		resolver:  resolver{buf: buf, sections: sections},
	}

	if rh, err := richHeaderFromStub(buf, dos.AddressOfNewEXEHeader); err == nil {
		v.RichHeader = rh
		v.hasRich = true
	}

	return v, nil
}

// OptionalHeader returns the PE32+ optional header.
func (v *PeView) OptionalHeader() *ImageOptionalHeader64 {
	return &v.NtHeader.OptionalHeader
}

// SectionHeaders returns the section table, in on-disk order.
func (v *PeView) SectionHeaders() []ImageSectionHeader {
	return v.Sections
}

// DataDirectory returns data directory entry idx, or ok=false if idx is out
// of range or the entry is the (0,0) Absent sentinel.
func (v *PeView) DataDirectory(idx int) (DataDirectory, bool) {
	if idx < 0 || idx >= numberOfDirectoryEntries {
		return DataDirectory{}, false
	}
	d, err := v.dataDirectory(idx)
	if err != nil {
		return DataDirectory{}, false
	}
	return d, true
}

// HasRichHeader reports whether a rich header was located in the DOS stub.
func (v *PeView) HasRichHeader() bool {
	return v.hasRich
}

// RVAToSlice resolves [rva, rva+length) into a bounded sub-slice of the
// underlying buffer, exactly as the directory iterators do internally. It
// is exposed so callers (e.g. the resource locator, or a custom directory)
// can reuse the same bounds-checked resolution the rest of the package
// relies on.
func (v *PeView) RVAToSlice(rva, length uint32) ([]byte, error) {
	return v.resolver.rvaToSlice(rva, length)
}
