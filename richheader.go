// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"bytes"
	"encoding/binary"
)

// richSignature is the "Rich" marker (ASCII) that closes the rich header.
const richSignature = "Rich"

// dansSignature is 'DanS' as a little-endian dword, the XOR-masked marker
// that opens the rich header once decrypted.
const dansSignature = 0x536E6144

// CompID is one decoded (productID, buildNumber, count) entry of the rich
// header: a record of one toolchain component used to build the image.
type CompID struct {
	BuildNumber uint16
	ProductID   uint16
	Count       uint32
}

// RichHeader is the MSVC linker's undocumented vendor extension embedded in
// the DOS stub between the DOS header and e_lfanew. It is absent from
// binaries not linked by MSVC (e.g. most non-Windows toolchains, .NET
// images without a native stub).
type RichHeader struct {
	XORKey  uint32
	CompIDs []CompID
}

// richHeaderFromStub locates and decodes the rich header within the DOS stub. It
// returns ErrAbsent if no "Rich" marker is found before e_lfanew — this is
// not one of the spec's named directories, so its absence never fails
// Parse.
func richHeaderFromStub(buf []byte, elfanew uint32) (RichHeader, error) {
	var rh RichHeader

	if uint64(elfanew) > uint64(len(buf)) {
		return rh, errKind(KindTruncated, "rich header", elfanew)
	}
	stub := buf[:elfanew]

	richOff := bytes.Index(stub, []byte(richSignature))
	if richOff < 0 {
		return rh, errKind(KindAbsent, "rich header", 0)
	}
	if uint32(richOff)+8 > uint32(len(stub)) {
		return rh, errKind(KindTruncated, "rich header key", uint32(richOff))
	}
	rh.XORKey = binary.LittleEndian.Uint32(stub[richOff+4:])

	// Walk backwards from just before "Rich", 4 bytes at a time, XOR-ing
	// with the key, until the decrypted dword is 'DanS'.
	dansOff := -1
	for pos := richOff - 4; pos >= 0; pos -= 4 {
		v := binary.LittleEndian.Uint32(stub[pos:]) ^ rh.XORKey
		if v == dansSignature {
			dansOff = pos
			break
		}
	}
	if dansOff < 0 {
		return rh, errKind(KindMalformed, "rich header DanS marker", uint32(richOff))
	}

	// Three zeroed padding dwords (once decrypted) follow 'DanS'.
	entriesStart := dansOff + 16
	for pos := entriesStart; pos+8 <= richOff; pos += 8 {
		prodBuild := binary.LittleEndian.Uint32(stub[pos:]) ^ rh.XORKey
		count := binary.LittleEndian.Uint32(stub[pos+4:]) ^ rh.XORKey
		rh.CompIDs = append(rh.CompIDs, CompID{
			BuildNumber: uint16(prodBuild),
			ProductID:   uint16(prodBuild >> 16),
			Count:       count,
		})
	}

	return rh, nil
}
