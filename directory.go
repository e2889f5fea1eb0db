// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// dataDirectory returns data directory entry idx, or ErrAbsent if it is the
// (VirtualAddress=0, Size=0) sentinel. idx must be < numberOfDirectoryEntries.
func (v *PeView) dataDirectory(idx int) (DataDirectory, error) {
	d := v.NtHeader.OptionalHeader.DataDirectory[idx]
	if d.isAbsent() {
		return d, errKind(KindAbsent, "data directory", uint32(idx))
	}
	return d, nil
}

// directorySlice resolves data directory idx to its bounded backing
// sub-slice via RVA resolution (every directory except the certificate
// table, which is addressed by raw file offset — see Certificates).
func (v *PeView) directorySlice(idx int) ([]byte, DataDirectory, error) {
	d, err := v.dataDirectory(idx)
	if err != nil {
		return nil, d, err
	}
	s, err := v.resolver.rvaToSlice(d.VirtualAddress, d.Size)
	return s, d, err
}
