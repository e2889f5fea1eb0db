// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "github.com/google/uuid"

const (
	debugDirectoryEntrySize = 28
	cvInfoPDB70HeaderSize   = 24 // CVSignature(4) + GUID(16) + Age(4)
)

// Debug directory entry types (IMAGE_DEBUG_TYPE_*).
const (
	ImageDebugTypeUnknown              = 0
	ImageDebugTypeCOFF                 = 1
	ImageDebugTypeCodeView             = 2
	ImageDebugTypeFPO                  = 3
	ImageDebugTypeMisc                 = 4
	ImageDebugTypeException            = 5
	ImageDebugTypeFixup                = 6
	ImageDebugTypeOMAPToSrc            = 7
	ImageDebugTypeOMAPFromSrc          = 8
	ImageDebugTypeBorland              = 9
	ImageDebugTypeReserved             = 10
	ImageDebugTypeCLSID                = 11
	ImageDebugTypeVCFeature            = 12
	ImageDebugTypePOGO                 = 13
	ImageDebugTypeILTCG                = 14
	ImageDebugTypeMPX                  = 15
	ImageDebugTypeRepro                = 16
	ImageDebugTypeExDllCharacteristics = 20
)

// CodeView signatures.
const (
	cvSignatureRSDS = 0x53445352 // 'SDSR'
)

// ImageDebugDirectory is one fixed-size IMAGE_DEBUG_DIRECTORY entry.
type ImageDebugDirectory struct {
	Characteristics  uint32
	TimeDateStamp    uint32
	MajorVersion     uint16
	MinorVersion     uint16
	Type             uint32
	SizeOfData       uint32
	AddressOfRawData uint32
	PointerToRawData uint32
}

// CodeViewPDB70 is the CodeView 'RSDS' record: a PDB signature, age, and
// borrowed path bytes.
type CodeViewPDB70 struct {
	Signature uuid.UUID
	Age       uint32
	PDBPath   []byte // borrowed, NUL-terminated ASCII path
}

// DebugIter lazily walks the debug directory's fixed-size entry array.
type DebugIter struct {
	c   *Cursor
	v   *PeView
	err error
}

// Debug returns an iterator over the debug directory's entries, or
// ErrAbsent if the directory entry is the (0,0) sentinel.
func (v *PeView) Debug() (*DebugIter, error) {
	slice, _, err := v.directorySlice(ImageDirectoryEntryDebug)
	if err != nil {
		return nil, err
	}
	return &DebugIter{c: newCursor(slice), v: v}, nil
}

func (it *DebugIter) Err() error { return it.err }

// Next decodes the next debug directory entry.
func (it *DebugIter) Next() (ImageDebugDirectory, bool) {
	if it.err != nil || it.c.remaining() < debugDirectoryEntrySize {
		return ImageDebugDirectory{}, false
	}
	var d ImageDebugDirectory
	var err error
	if d.Characteristics, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.TimeDateStamp, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.MajorVersion, err = it.c.readU16(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.MinorVersion, err = it.c.readU16(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.Type, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.SizeOfData, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.AddressOfRawData, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	if d.PointerToRawData, err = it.c.readU32(); err != nil {
		it.err = err
		return ImageDebugDirectory{}, false
	}
	return d, true
}

// CodeView resolves a Type == ImageDebugTypeCodeView entry's RSDS record.
// Entries carrying any other signature (e.g. the legacy NB10 format) are
// reported as Malformed, since only RSDS is in scope.
func (v *PeView) CodeView(e ImageDebugDirectory) (CodeViewPDB70, error) {
	if e.Type != ImageDebugTypeCodeView {
		return CodeViewPDB70{}, errKind(KindMalformed, "debug entry type", e.Type)
	}
	raw, err := v.resolver.offsetToSlice(e.PointerToRawData, e.SizeOfData)
	if err != nil {
		return CodeViewPDB70{}, err
	}
	c := newCursor(raw)
	sig, err := c.readU32()
	if err != nil {
		return CodeViewPDB70{}, err
	}
	if sig != cvSignatureRSDS {
		return CodeViewPDB70{}, errKind(KindMalformed, "codeview signature", sig)
	}
	guidBytes, err := c.readSlice(16)
	if err != nil {
		return CodeViewPDB70{}, err
	}
	age, err := c.readU32()
	if err != nil {
		return CodeViewPDB70{}, err
	}
	path, err := c.readCstr()
	if err != nil {
		return CodeViewPDB70{}, err
	}

	id, err := guidFromPEBytes(guidBytes)
	if err != nil {
		return CodeViewPDB70{}, errKind(KindMalformed, "codeview guid", e.PointerToRawData)
	}
	return CodeViewPDB70{Signature: id, Age: age, PDBPath: path}, nil
}

// guidFromPEBytes decodes a 16-byte little-endian PE-style GUID
// (Data1/Data2/Data3 little-endian, Data4 verbatim) into a uuid.UUID.
func guidFromPEBytes(b []byte) (uuid.UUID, error) {
	if len(b) != 16 {
		return uuid.UUID{}, errKind(KindMalformed, "guid length", uint32(len(b)))
	}
	var reordered [16]byte
	reordered[0], reordered[1], reordered[2], reordered[3] = b[3], b[2], b[1], b[0]
	reordered[4], reordered[5] = b[5], b[4]
	reordered[6], reordered[7] = b[7], b[6]
	copy(reordered[8:], b[8:16])
	return uuid.FromBytes(reordered[:])
}
