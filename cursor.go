// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "encoding/binary"

// Cursor is a bounds-checked forward reader over a borrowed byte slice. It
// never panics: every read that would run past the end of its slice returns
// ErrTruncated instead. A Cursor never allocates and never copies the
// underlying bytes — every accessor returns a sub-slice of the slice the
// Cursor was built over.
type Cursor struct {
	data []byte
	pos  uint32
}

// newCursor returns a Cursor reading from the start of data.
func newCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// position returns the current read offset within the cursor's slice.
func (c *Cursor) position() uint32 {
	return c.pos
}

// remaining returns the number of unread bytes left in the cursor's slice.
func (c *Cursor) remaining() uint32 {
	return uint32(len(c.data)) - c.pos
}

// seek moves the cursor to an absolute position within its slice.
func (c *Cursor) seek(pos uint32) error {
	if pos > uint32(len(c.data)) {
		return errKind(KindTruncated, "seek", pos)
	}
	c.pos = pos
	return nil
}

// skip advances the cursor by n bytes.
func (c *Cursor) skip(n uint32) error {
	return c.seek(c.pos + n)
}

func (c *Cursor) ensure(n uint32) error {
	if c.remaining() < n {
		return errKind(KindTruncated, "read", c.pos)
	}
	return nil
}

// readSlice returns a borrowed sub-slice of exactly n bytes and advances the
// cursor past it.
func (c *Cursor) readSlice(n uint32) ([]byte, error) {
	if err := c.ensure(n); err != nil {
		return nil, err
	}
	s := c.data[c.pos : c.pos+n]
	c.pos += n
	return s, nil
}

// readU8 reads one byte.
func (c *Cursor) readU8() (uint8, error) {
	s, err := c.readSlice(1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

// readU16 reads a little-endian uint16.
func (c *Cursor) readU16() (uint16, error) {
	s, err := c.readSlice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

// readU32 reads a little-endian uint32.
func (c *Cursor) readU32() (uint32, error) {
	s, err := c.readSlice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

// readU64 reads a little-endian uint64.
func (c *Cursor) readU64() (uint64, error) {
	s, err := c.readSlice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

// readCstr returns the borrowed byte slice up to (excluding) the next NUL
// byte, and advances the cursor past the NUL. PE names are ASCII by spec;
// the content is not validated as such.
func (c *Cursor) readCstr() ([]byte, error) {
	for i := c.pos; i < uint32(len(c.data)); i++ {
		if c.data[i] == 0 {
			s := c.data[c.pos:i]
			c.pos = i + 1
			return s, nil
		}
	}
	return nil, errKind(KindTruncated, "cstr", c.pos)
}
