// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"errors"
	"testing"
)

// buildRichStub assembles a DOS-stub buffer containing one XOR-masked rich
// header entry, in the layout richHeaderFromStub expects: 'DanS' + three
// zeroed padding dwords, then one (productID/buildNumber, count) entry, all
// XOR-masked with key, followed by the plaintext "Rich" marker and key.
func buildRichStub(key uint32, productID, buildNumber uint16, count uint32) []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:], dansSignature^key)
	binary.LittleEndian.PutUint32(buf[4:], key)
	binary.LittleEndian.PutUint32(buf[8:], key)
	binary.LittleEndian.PutUint32(buf[12:], key)

	prodBuild := uint32(productID)<<16 | uint32(buildNumber)
	binary.LittleEndian.PutUint32(buf[16:], prodBuild^key)
	binary.LittleEndian.PutUint32(buf[20:], count^key)

	copy(buf[24:28], richSignature)
	binary.LittleEndian.PutUint32(buf[28:], key)
	return buf
}

func TestRichHeaderDecodesEntries(t *testing.T) {
	buf := buildRichStub(0xDEADBEEF, 0x0104, 0x7809, 5)

	rh, err := richHeaderFromStub(buf, uint32(len(buf)))
	if err != nil {
		t.Fatalf("richHeaderFromStub() failed: %v", err)
	}
	if rh.XORKey != 0xDEADBEEF {
		t.Errorf("XORKey = %#x, want 0xDEADBEEF", rh.XORKey)
	}
	if len(rh.CompIDs) != 1 {
		t.Fatalf("len(CompIDs) = %d, want 1", len(rh.CompIDs))
	}
	got := rh.CompIDs[0]
	if got.ProductID != 0x0104 || got.BuildNumber != 0x7809 || got.Count != 5 {
		t.Errorf("CompIDs[0] = %+v, want {BuildNumber:0x7809 ProductID:0x0104 Count:5}", got)
	}
}

func TestRichHeaderAbsent(t *testing.T) {
	buf := make([]byte, 64)
	_, err := richHeaderFromStub(buf, uint32(len(buf)))
	if !errors.Is(err, ErrAbsent) {
		t.Fatalf("richHeaderFromStub() on a stub with no marker = %v, want ErrAbsent", err)
	}
}

func TestRichHeaderTruncatedKey(t *testing.T) {
	buf := make([]byte, 8)
	copy(buf[4:8], richSignature)
	_, err := richHeaderFromStub(buf, uint32(len(buf)))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("richHeaderFromStub() with no room for the key = %v, want ErrTruncated", err)
	}
}
