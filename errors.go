// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "fmt"

// Kind identifies one of the closed set of failure classes a PE32+ read can
// hit. Every fallible operation in this package returns an error whose
// errors.As target is *Error, tagged with exactly one Kind.
type Kind int

const (
	// KindBadDosMagic is reported when the DOS header does not begin with
	// the "MZ" signature.
	KindBadDosMagic Kind = iota

	// KindBadPeMagic is reported when the NT headers do not begin with the
	// "PE\x00\x00" signature.
	KindBadPeMagic

	// KindUnsupportedMagic is reported when the optional header magic is
	// not 0x20B (PE32+). PE32 and ROM images are rejected outright.
	KindUnsupportedMagic

	// KindBadRva is reported when an RVA does not resolve inside any
	// section, or the resolved range exceeds that section's raw bounds.
	KindBadRva

	// KindTruncated is reported when a read would exceed its cursor's
	// bounds.
	KindTruncated

	// KindMalformed is reported when a structural invariant is violated,
	// e.g. a relocation block shorter than its own header, or an export
	// ordinal index beyond the function table.
	KindMalformed

	// KindAbsent is reported when the requested directory's data-directory
	// entry is the (VirtualAddress=0, Size=0) sentinel.
	KindAbsent
)

func (k Kind) String() string {
	switch k {
	case KindBadDosMagic:
		return "bad DOS magic"
	case KindBadPeMagic:
		return "bad PE magic"
	case KindUnsupportedMagic:
		return "unsupported optional header magic"
	case KindBadRva:
		return "bad RVA"
	case KindTruncated:
		return "truncated"
	case KindMalformed:
		return "malformed"
	case KindAbsent:
		return "absent"
	default:
		return "unknown error kind"
	}
}

// Error is the single error type every fallible operation in this package
// returns. It carries no allocated context beyond a small diagnostic: the
// field or offset at fault, and the Kind of failure. Errors are cheap,
// comparable-by-value once unwrapped to their Kind, and never hide an
// internal panic recovery — the reader does not recover from panics, it
// simply never panics.
type Error struct {
	Kind   Kind
	Where  string // field, directory, or structure name for diagnostics
	Offset uint32 // file offset at fault, when known
}

func (e *Error) Error() string {
	if e.Where == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s (offset 0x%x)", e.Kind, e.Where, e.Offset)
}

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, ErrAbsent) and similar.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func errKind(kind Kind, where string, offset uint32) *Error {
	return &Error{Kind: kind, Where: where, Offset: offset}
}

// Sentinel values for errors.Is comparisons against a bare Kind, e.g.
// errors.Is(err, pe.ErrAbsent).
var (
	ErrBadDosMagic      = &Error{Kind: KindBadDosMagic}
	ErrBadPeMagic       = &Error{Kind: KindBadPeMagic}
	ErrUnsupportedMagic = &Error{Kind: KindUnsupportedMagic}
	ErrBadRva           = &Error{Kind: KindBadRva}
	ErrTruncated        = &Error{Kind: KindTruncated}
	ErrMalformed        = &Error{Kind: KindMalformed}
	ErrAbsent           = &Error{Kind: KindAbsent}
)
