// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const tlsDirectory64Size = 40

// ImageTLSDirectory64 is the IMAGE_TLS_DIRECTORY64 structure: thread-local
// storage template bounds, the loader-assigned index slot, and the
// callback array, all addressed by VA rather than RVA.
type ImageTLSDirectory64 struct {
	StartAddressOfRawData uint64
	EndAddressOfRawData   uint64
	AddressOfIndex        uint64
	AddressOfCallBacks    uint64
	SizeOfZeroFill        uint32
	Characteristics       uint32
}

// TLS parses the TLS directory header, or returns ErrAbsent if the
// directory entry is the (0,0) sentinel.
func (v *PeView) TLS() (ImageTLSDirectory64, error) {
	slice, _, err := v.directorySlice(ImageDirectoryEntryTLS)
	if err != nil {
		return ImageTLSDirectory64{}, err
	}
	c := newCursor(slice)
	var t ImageTLSDirectory64
	if t.StartAddressOfRawData, err = c.readU64(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	if t.EndAddressOfRawData, err = c.readU64(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	if t.AddressOfIndex, err = c.readU64(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	if t.AddressOfCallBacks, err = c.readU64(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	if t.SizeOfZeroFill, err = c.readU32(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	if t.Characteristics, err = c.readU32(); err != nil {
		return ImageTLSDirectory64{}, err
	}
	return t, nil
}

// TLSCallbackIter lazily walks a TLS directory's NULL-terminated callback
// VA array.
type TLSCallbackIter struct {
	c   *Cursor
	err error
}

// Callbacks returns an iterator over t's callback array. AddressOfCallBacks
// and AddressOfIndex are image virtual addresses, not RVAs; the image base
// must be subtracted before resolving them against the section table.
func (v *PeView) Callbacks(t ImageTLSDirectory64) (*TLSCallbackIter, error) {
	if t.AddressOfCallBacks == 0 {
		return nil, errKind(KindAbsent, "tls callback array", 0)
	}
	imageBase := v.NtHeader.OptionalHeader.ImageBase
	if t.AddressOfCallBacks < imageBase {
		return nil, errKind(KindBadRva, "tls callback va", 0)
	}
	rva := uint32(t.AddressOfCallBacks - imageBase)
	off, err := v.resolver.fileOffsetForRVA(rva)
	if err != nil {
		return nil, err
	}
	c := newCursor(v.buf)
	if err := c.seek(off); err != nil {
		return nil, err
	}
	return &TLSCallbackIter{c: c}, nil
}

func (it *TLSCallbackIter) Err() error { return it.err }

// Next returns the next callback VA, stopping at the NULL terminator.
func (it *TLSCallbackIter) Next() (uint64, bool) {
	if it.err != nil {
		return 0, false
	}
	va, err := it.c.readU64()
	if err != nil {
		it.err = err
		return 0, false
	}
	if va == 0 {
		return 0, false
	}
	return va, true
}
