// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// ImageLoadConfigDirectory64 is the PE32+ base load-config record: the
// fields present since the directory's introduction, through the Control
// Flow Guard function table. Fields newer Windows SDKs append afterward
// (CHPE metadata, enclave configuration, XFG) are out of scope; callers
// needing them can read Size and decode further themselves.
type ImageLoadConfigDirectory64 struct {
	Size                           uint32
	TimeDateStamp                  uint32
	MajorVersion                   uint16
	MinorVersion                   uint16
	GlobalFlagsClear               uint32
	GlobalFlagsSet                 uint32
	CriticalSectionDefaultTimeout  uint32
	DeCommitFreeBlockThreshold     uint64
	DeCommitTotalFreeThreshold     uint64
	LockPrefixTable                uint64
	MaximumAllocationSize          uint64
	VirtualMemoryThreshold         uint64
	ProcessAffinityMask            uint64
	ProcessHeapFlags               uint32
	CSDVersion                     uint16
	DependentLoadFlags             uint16
	EditList                       uint64
	SecurityCookie                 uint64
	SEHandlerTable                 uint64
	SEHandlerCount                 uint64
	GuardCFCheckFunctionPointer    uint64
	GuardCFDispatchFunctionPointer uint64
	GuardCFFunctionTable           uint64
	GuardCFFunctionCount           uint64
	GuardFlags                     uint32
}

// LoadConfig parses the base load-config record, or returns ErrAbsent if
// the directory entry is the (0,0) sentinel.
func (v *PeView) LoadConfig() (ImageLoadConfigDirectory64, error) {
	slice, _, err := v.directorySlice(ImageDirectoryEntryLoadConfig)
	if err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	c := newCursor(slice)

	var d ImageLoadConfigDirectory64
	if d.Size, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.TimeDateStamp, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.MajorVersion, err = c.readU16(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.MinorVersion, err = c.readU16(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GlobalFlagsClear, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GlobalFlagsSet, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.CriticalSectionDefaultTimeout, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.DeCommitFreeBlockThreshold, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.DeCommitTotalFreeThreshold, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.LockPrefixTable, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.MaximumAllocationSize, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.VirtualMemoryThreshold, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.ProcessAffinityMask, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.ProcessHeapFlags, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.CSDVersion, err = c.readU16(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.DependentLoadFlags, err = c.readU16(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.EditList, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.SecurityCookie, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.SEHandlerTable, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.SEHandlerCount, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GuardCFCheckFunctionPointer, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GuardCFDispatchFunctionPointer, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GuardCFFunctionTable, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GuardCFFunctionCount, err = c.readU64(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	if d.GuardFlags, err = c.readU32(); err != nil {
		return ImageLoadConfigDirectory64{}, err
	}
	return d, nil
}
