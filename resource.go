// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const (
	resourceDirectorySize      = 16
	resourceDirectoryEntrySize = 8
	resourceDataEntrySize      = 16

	// resourceNameIsString marks bit 31 of an entry's Name field: when set,
	// the low 31 bits are an offset (from the resource section base) to a
	// length-prefixed UTF-16 string instead of a numeric ID.
	resourceNameIsString = uint32(1) << 31
	// resourceDataIsSubdirectory marks bit 31 of OffsetToData: when set,
	// the low 31 bits offset another ImageResourceDirectory instead of an
	// ImageResourceDataEntry.
	resourceDataIsSubdirectory = uint32(1) << 31
)

// ImageResourceDirectory is one IMAGE_RESOURCE_DIRECTORY table header. The
// resource tree is three such tables deep (type, name, language); this
// reader locates the root table and its entries only — walking deeper
// levels is left to the caller, per scope.
type ImageResourceDirectory struct {
	Characteristics      uint32
	TimeDateStamp        uint32
	MajorVersion         uint16
	MinorVersion         uint16
	NumberOfNamedEntries uint16
	NumberOfIDEntries    uint16
}

// ImageResourceDirectoryEntry is one entry of a resource directory table.
type ImageResourceDirectoryEntry struct {
	Name         uint32
	OffsetToData uint32
}

// IsNamed reports whether Name is a string offset rather than a numeric ID.
func (e ImageResourceDirectoryEntry) IsNamed() bool {
	return e.Name&resourceNameIsString != 0
}

// NameOffset returns the offset (from the resource section base) of this
// entry's length-prefixed UTF-16 name string. Valid only when IsNamed.
func (e ImageResourceDirectoryEntry) NameOffset() uint32 {
	return e.Name &^ resourceNameIsString
}

// ID returns this entry's numeric type/name/language ID. Valid only when
// !IsNamed.
func (e ImageResourceDirectoryEntry) ID() uint32 {
	return e.Name
}

// IsSubdirectory reports whether OffsetToData points at a nested
// ImageResourceDirectory rather than an ImageResourceDataEntry leaf.
func (e ImageResourceDirectoryEntry) IsSubdirectory() bool {
	return e.OffsetToData&resourceDataIsSubdirectory != 0
}

// SubdirectoryOffset returns the resource-section-relative offset of the
// nested directory table. Valid only when IsSubdirectory.
func (e ImageResourceDirectoryEntry) SubdirectoryOffset() uint32 {
	return e.OffsetToData &^ resourceDataIsSubdirectory
}

// ImageResourceDataEntry is a resource leaf: the RVA, size, and code page
// of one unit of raw resource data.
type ImageResourceDataEntry struct {
	OffsetToData uint32 // RVA of the raw data
	Size         uint32
	CodePage     uint32
	Reserved     uint32
}

// ResourceRoot borrows the resource directory's backing bytes and exposes
// the root table and entry array. Nested tables and leaves are decoded only
// on request, one at a time, through Subdirectory and DataEntry.
type ResourceRoot struct {
	Root ImageResourceDirectory

	section []byte // the whole resource directory, entries are offsets into it
}

// Resources parses the root resource directory table, or returns ErrAbsent
// if the directory entry is the (0,0) sentinel.
func (v *PeView) Resources() (*ResourceRoot, error) {
	slice, _, err := v.directorySlice(ImageDirectoryEntryResource)
	if err != nil {
		return nil, err
	}
	c := newCursor(slice)
	var d ImageResourceDirectory
	if d.Characteristics, err = c.readU32(); err != nil {
		return nil, err
	}
	if d.TimeDateStamp, err = c.readU32(); err != nil {
		return nil, err
	}
	if d.MajorVersion, err = c.readU16(); err != nil {
		return nil, err
	}
	if d.MinorVersion, err = c.readU16(); err != nil {
		return nil, err
	}
	if d.NumberOfNamedEntries, err = c.readU16(); err != nil {
		return nil, err
	}
	if d.NumberOfIDEntries, err = c.readU16(); err != nil {
		return nil, err
	}
	return &ResourceRoot{Root: d, section: slice}, nil
}

// ResourceEntryIter lazily walks a directory table's entry array.
type ResourceEntryIter struct {
	c   *Cursor
	n   uint32
	err error
}

// Entries returns an iterator over the root table's
// NumberOfNamedEntries+NumberOfIDEntries directory entries.
func (r *ResourceRoot) Entries() *ResourceEntryIter {
	c := newCursor(r.section)
	if err := c.skip(resourceDirectorySize); err != nil {
		return &ResourceEntryIter{err: err}
	}
	n := uint32(r.Root.NumberOfNamedEntries) + uint32(r.Root.NumberOfIDEntries)
	return &ResourceEntryIter{c: c, n: n}
}

func (it *ResourceEntryIter) Err() error { return it.err }

func (it *ResourceEntryIter) Next() (ImageResourceDirectoryEntry, bool) {
	if it.err != nil || it.n == 0 {
		return ImageResourceDirectoryEntry{}, false
	}
	it.n--
	var e ImageResourceDirectoryEntry
	var err error
	if e.Name, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageResourceDirectoryEntry{}, false
	}
	if e.OffsetToData, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageResourceDirectoryEntry{}, false
	}
	return e, true
}

// Subdirectory decodes the nested ImageResourceDirectory table at e's
// SubdirectoryOffset.
func (r *ResourceRoot) Subdirectory(e ImageResourceDirectoryEntry) (ImageResourceDirectory, error) {
	c := newCursor(r.section)
	if err := c.seek(e.SubdirectoryOffset()); err != nil {
		return ImageResourceDirectory{}, err
	}
	var d ImageResourceDirectory
	var err error
	if d.Characteristics, err = c.readU32(); err != nil {
		return ImageResourceDirectory{}, err
	}
	if d.TimeDateStamp, err = c.readU32(); err != nil {
		return ImageResourceDirectory{}, err
	}
	if d.MajorVersion, err = c.readU16(); err != nil {
		return ImageResourceDirectory{}, err
	}
	if d.MinorVersion, err = c.readU16(); err != nil {
		return ImageResourceDirectory{}, err
	}
	if d.NumberOfNamedEntries, err = c.readU16(); err != nil {
		return ImageResourceDirectory{}, err
	}
	if d.NumberOfIDEntries, err = c.readU16(); err != nil {
		return ImageResourceDirectory{}, err
	}
	return d, nil
}

// DataEntry decodes the leaf ImageResourceDataEntry at e's OffsetToData.
// Valid only when !e.IsSubdirectory.
func (r *ResourceRoot) DataEntry(e ImageResourceDirectoryEntry) (ImageResourceDataEntry, error) {
	c := newCursor(r.section)
	if err := c.seek(e.OffsetToData); err != nil {
		return ImageResourceDataEntry{}, err
	}
	var d ImageResourceDataEntry
	var err error
	if d.OffsetToData, err = c.readU32(); err != nil {
		return ImageResourceDataEntry{}, err
	}
	if d.Size, err = c.readU32(); err != nil {
		return ImageResourceDataEntry{}, err
	}
	if d.CodePage, err = c.readU32(); err != nil {
		return ImageResourceDataEntry{}, err
	}
	if d.Reserved, err = c.readU32(); err != nil {
		return ImageResourceDataEntry{}, err
	}
	return d, nil
}
