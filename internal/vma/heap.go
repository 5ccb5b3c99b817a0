// Package vma hands out ranges of a GPU virtual address space.
package vma

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/kmd/memutils"
)

type hole struct {
	start uint64
	size  uint64
}

func (h hole) end() uint64 {
	return h.start + h.size
}

// Heap is a first-fit allocator over a single address range. Allocations are carved from the
// top of the highest hole that fits, which keeps low addresses free for objects that need
// them. It never returns address 0.
//
// Heap is not safe for concurrent use.
type Heap struct {
	start uint64
	size  uint64

	// holes is sorted by address and never contains adjacent holes
	holes       []hole
	allocations *swiss.Map[uint64, uint64]
	freeSize    uint64
}

// New creates a Heap over [start, start+size)
func New(start, size uint64) *Heap {
	if start == 0 {
		// Address 0 is reserved to mean "no address"
		start = 1
		size--
	}

	return &Heap{
		start:       start,
		size:        size,
		holes:       []hole{{start: start, size: size}},
		allocations: swiss.NewMap[uint64, uint64](42),
		freeSize:    size,
	}
}

func (h *Heap) Start() uint64 { return h.start }
func (h *Heap) Size() uint64  { return h.size }

// FreeSize returns the number of unallocated bytes
func (h *Heap) FreeSize() uint64 { return h.freeSize }

// AllocationCount returns the number of live allocations
func (h *Heap) AllocationCount() int { return h.allocations.Count() }

// Alloc reserves size bytes aligned to alignment, which must be a power of two. It returns
// false if no hole is large enough.
func (h *Heap) Alloc(size, alignment uint64) (uint64, bool) {
	memutils.DebugValidate(h)
	memutils.DebugCheckPow2(alignment, "alignment")

	if size == 0 {
		return 0, false
	}

	for i := len(h.holes) - 1; i >= 0; i-- {
		current := h.holes[i]
		if current.size < size {
			continue
		}

		address := memutils.AlignDown64(current.end()-size, alignment)
		if address < current.start || address == 0 {
			continue
		}

		h.carve(i, address, size)
		h.allocations.Put(address, size)
		h.freeSize -= size

		return address, true
	}

	return 0, false
}

func (h *Heap) carve(index int, address, size uint64) {
	current := h.holes[index]
	below := hole{start: current.start, size: address - current.start}
	above := hole{start: address + size, size: current.end() - address - size}

	switch {
	case below.size == 0 && above.size == 0:
		h.holes = append(h.holes[:index], h.holes[index+1:]...)
	case below.size == 0:
		h.holes[index] = above
	case above.size == 0:
		h.holes[index] = below
	default:
		h.holes = append(h.holes, hole{})
		copy(h.holes[index+2:], h.holes[index+1:])
		h.holes[index] = below
		h.holes[index+1] = above
	}
}

// Free releases the allocation starting at address and returns its size
func (h *Heap) Free(address uint64) (uint64, error) {
	size, ok := h.allocations.Get(address)
	if !ok {
		return 0, errors.Newf("address 0x%x is not allocated from this heap", address)
	}
	h.allocations.Delete(address)
	h.freeSize += size

	index := sort.Search(len(h.holes), func(i int) bool {
		return h.holes[i].start > address
	})

	freed := hole{start: address, size: size}
	mergeBelow := index > 0 && h.holes[index-1].end() == address
	mergeAbove := index < len(h.holes) && freed.end() == h.holes[index].start

	switch {
	case mergeBelow && mergeAbove:
		h.holes[index-1].size += size + h.holes[index].size
		h.holes = append(h.holes[:index], h.holes[index+1:]...)
	case mergeBelow:
		h.holes[index-1].size += size
	case mergeAbove:
		h.holes[index].start = address
		h.holes[index].size += size
	default:
		h.holes = append(h.holes, hole{})
		copy(h.holes[index+1:], h.holes[index:])
		h.holes[index] = freed
	}

	memutils.DebugValidate(h)
	return size, nil
}

// VisitHoles calls visit for each unallocated range in ascending address order until visit
// returns false
func (h *Heap) VisitHoles(visit func(start, size uint64) bool) {
	for _, current := range h.holes {
		if !visit(current.start, current.size) {
			return
		}
	}
}

// Validate checks the heap's internal bookkeeping
func (h *Heap) Validate() error {
	var holeBytes uint64
	for i, current := range h.holes {
		if current.size == 0 {
			return errors.Newf("hole %d at 0x%x is empty", i, current.start)
		}
		if current.start < h.start || current.end() > h.start+h.size {
			return errors.Newf("hole %d [0x%x, 0x%x) is outside the heap", i, current.start, current.end())
		}
		if i > 0 && h.holes[i-1].end() >= current.start {
			return errors.Newf("hole %d at 0x%x overlaps or touches the previous hole", i, current.start)
		}
		holeBytes += current.size
	}

	if holeBytes != h.freeSize {
		return errors.Newf("holes cover %d bytes but %d bytes are free", holeBytes, h.freeSize)
	}

	var allocatedBytes uint64
	h.allocations.Iter(func(address, size uint64) bool {
		allocatedBytes += size
		return false
	})
	if allocatedBytes+h.freeSize != h.size {
		return errors.Newf("%d allocated bytes and %d free bytes do not add up to heap size %d", allocatedBytes, h.freeSize, h.size)
	}

	return nil
}
