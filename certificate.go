// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

const winCertificateHeaderSize = 8

// Certificate revision values.
const (
	WinCertRevision1_0 = 0x0100
	WinCertRevision2_0 = 0x0200
)

// Certificate type values (wCertificateType).
const (
	WinCertTypeX509             = 1
	WinCertTypePKCS7SignedData  = 2
	WinCertTypeReserved1        = 3
	WinCertTypeTSServiceStack   = 4
)

// WinCertificate is one WIN_CERTIFICATE entry's fixed-size header. The
// certificate table is addressed by raw file offset, not RVA (spec §4.8),
// and each entry is padded to an 8-byte boundary.
type WinCertificate struct {
	Length          uint32
	Revision        uint16
	CertificateType uint16

	Content []byte // borrowed, Length-8 bytes; PKCS#7/X.509 bytes are opaque here
}

// align8 rounds n up to the next multiple of 8.
func align8(n uint32) uint32 {
	return (n + 7) &^ 7
}

// CertificateIter lazily walks the attribute-certificate table's chain of
// 8-byte-aligned WIN_CERTIFICATE entries.
type CertificateIter struct {
	v      *PeView
	pos    uint32
	end    uint32
	err    error
}

// Certificates returns an iterator over the certificate directory, or
// ErrAbsent if the directory entry is the (0,0) sentinel. Unlike every
// other directory, VirtualAddress here is a raw file offset.
func (v *PeView) Certificates() (*CertificateIter, error) {
	d, err := v.dataDirectory(ImageDirectoryEntryCertificate)
	if err != nil {
		return nil, err
	}
	return &CertificateIter{v: v, pos: d.VirtualAddress, end: d.VirtualAddress + d.Size}, nil
}

func (it *CertificateIter) Err() error { return it.err }

// Next decodes the next certificate entry.
func (it *CertificateIter) Next() (WinCertificate, bool) {
	if it.err != nil || it.pos+winCertificateHeaderSize > it.end {
		return WinCertificate{}, false
	}

	hdr, err := it.v.resolver.offsetToSlice(it.pos, winCertificateHeaderSize)
	if err != nil {
		it.err = err
		return WinCertificate{}, false
	}
	c := newCursor(hdr)

	var wc WinCertificate
	if wc.Length, err = c.readU32(); err != nil {
		it.err = err
		return WinCertificate{}, false
	}
	if wc.Revision, err = c.readU16(); err != nil {
		it.err = err
		return WinCertificate{}, false
	}
	if wc.CertificateType, err = c.readU16(); err != nil {
		it.err = err
		return WinCertificate{}, false
	}
	if wc.Length < winCertificateHeaderSize || it.pos+wc.Length > it.end {
		it.err = errKind(KindMalformed, "certificate entry length", it.pos)
		return WinCertificate{}, false
	}

	content, err := it.v.resolver.offsetToSlice(it.pos+winCertificateHeaderSize, wc.Length-winCertificateHeaderSize)
	if err != nil {
		it.err = err
		return WinCertificate{}, false
	}
	wc.Content = content

	it.pos += align8(wc.Length)
	return wc, true
}
