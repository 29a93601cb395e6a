// Package pmm implements the physical frame allocator: a bitmap over 4 KiB
// frames, one bit per frame, covering every frame up to an implementation
// maximum. It never touches virtual memory; kernel/mm/vmm builds page
// tables out of the frames this package hands out.
package pmm

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
)

// Frame identifies a physical page by its frame number (physical address
// divided by mem.PageSize).
type Frame uint32

// InvalidFrame is returned by Alloc when no free frame is available.
const InvalidFrame = Frame(0xFFFFFFFF)

// IsValid reports whether f is a real, allocatable frame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the start of f.
func (f Frame) Address() uintptr {
	return uintptr(f) << mem.PageShift
}

// FrameForAddress returns the frame that contains the physical address addr.
func FrameForAddress(addr uintptr) Frame {
	return Frame(addr >> mem.PageShift)
}

// maxFrames bounds the bitmap to a statically-sized array so the allocator
// needs no heap allocation to come up: 1 GiB of addressable physical RAM at
// 4 KiB per frame. mem_kb values describing more RAM than this are clamped.
const maxFrames = 256 * 1024

var errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical frames"}

// bitmap reports reservation state for each of maxFrames frames; bit i of
// word i/64 is 1 when frame i is reserved/owned, 0 when it is free.
type allocator struct {
	totalFrames  uint32
	usedFrames   uint32
	bitmap       [maxFrames / 64]uint64
	nextScanHint uint32
}

// Allocator is the single physical frame allocator instance.
var Allocator allocator

func wordIndex(frame uint32) (word int, bit uint) {
	return int(frame >> 6), uint(frame & 63)
}

func (a *allocator) isReserved(frame uint32) bool {
	word, bit := wordIndex(frame)
	return a.bitmap[word]&(1<<bit) != 0
}

func (a *allocator) setReserved(frame uint32) {
	word, bit := wordIndex(frame)
	a.bitmap[word] |= 1 << bit
}

func (a *allocator) clearReserved(frame uint32) {
	word, bit := wordIndex(frame)
	a.bitmap[word] &^= 1 << bit
}

// Init computes the total number of frames described by memKB, marks every
// managed frame reserved, then frees every frame above the kernel image (rounded up to
// a page boundary). kernelEnd must be page-aligned by the caller's bootstrap
// code; Init itself only rounds up defensively.
func Init(memKB uint32, kernelStart, kernelEnd uintptr) {
	totalFrames := uint32((uint64(memKB) * uint64(mem.Kb)) >> mem.PageShift)
	if totalFrames > maxFrames {
		totalFrames = maxFrames
	}

	a := &Allocator
	*a = allocator{totalFrames: totalFrames}
	for frame := uint32(0); frame < totalFrames; frame++ {
		a.setReserved(frame)
	}
	a.usedFrames = totalFrames

	kernelEndFrame := uint32((kernelEnd + mem.PageSize - 1) >> mem.PageShift)
	for frame := uint32(0); frame < totalFrames; frame++ {
		if frame < kernelEndFrame {
			continue
		}
		a.clearReserved(frame)
		a.usedFrames--
	}
	a.nextScanHint = kernelEndFrame
}

// Alloc performs a linear first-fit scan for the lowest free frame, marks it
// reserved and returns it. Frames are not zeroed by Alloc. Returns
// InvalidFrame and errOutOfMemory when no frame is free.
func Alloc() (Frame, *kernel.Error) {
	a := &Allocator
	for frame := a.nextScanHint; frame < a.totalFrames; frame++ {
		if !a.isReserved(frame) {
			a.setReserved(frame)
			a.usedFrames++
			a.nextScanHint = frame + 1
			return Frame(frame), nil
		}
	}

	for frame := uint32(0); frame < a.nextScanHint && frame < a.totalFrames; frame++ {
		if !a.isReserved(frame) {
			a.setReserved(frame)
			a.usedFrames++
			a.nextScanHint = frame + 1
			return Frame(frame), nil
		}
	}

	return InvalidFrame, errOutOfMemory
}

// Free clears the reservation bit for f. Freeing a frame that is already
// free, or that lies outside the managed range, is a silent no-op.
func Free(f Frame) {
	a := &Allocator
	frame := uint32(f)
	if frame >= a.totalFrames {
		return
	}
	if !a.isReserved(frame) {
		return
	}
	a.clearReserved(frame)
	a.usedFrames--
	if frame < a.nextScanHint {
		a.nextScanHint = frame
	}
}

// Reserve marks every frame overlapping [start, start+size) as owned. It is
// idempotent: frames that are already reserved are left untouched.
func Reserve(start uintptr, size mem.Size) {
	a := &Allocator
	startFrame := uint32(start >> mem.PageShift)
	endAddr := start + uintptr(size) + mem.PageSize - 1
	endFrame := uint32(endAddr >> mem.PageShift)

	for frame := startFrame; frame < endFrame && frame < a.totalFrames; frame++ {
		if !a.isReserved(frame) {
			a.setReserved(frame)
			a.usedFrames++
		}
	}
}

// UsedCount returns the number of currently reserved frames. It always
// equals the population count of the reservation bitmap.
func UsedCount() uint32 {
	return Allocator.usedFrames
}

// TotalCount returns the number of frames Init configured as managed.
func TotalCount() uint32 {
	return Allocator.totalFrames
}
