package kmd

import "github.com/vkngwrapper/core/v2/common"

// AllocFlags describe how a buffer object is going to be used
type AllocFlags uint32

var allocFlagsMapping = common.NewFlagStringMapping[AllocFlags]()

func (f AllocFlags) Register(str string) {
	allocFlagsMapping.Register(f, str)
}
func (f AllocFlags) String() string {
	return allocFlagsMapping.FlagsToString(f)
}

const (
	// AllocZeroed requests that the object's contents start out zeroed
	AllocZeroed AllocFlags = 1 << iota
	// AllocCoherent requests CPU-coherent memory
	AllocCoherent
	// AllocSMEM restricts placement to system memory
	AllocSMEM
	// AllocScanout marks the object as a display scanout target
	AllocScanout
	// AllocNoSuballoc prevents the buffer manager from placing the object inside a slab
	AllocNoSuballoc
	// AllocLMEM restricts placement to device-local memory
	AllocLMEM
	// AllocProtected requests protected content. Not every generation supports it.
	AllocProtected
	// AllocShared marks the object as exportable to other processes. Shared objects are
	// not private to the buffer manager's VM.
	AllocShared
	// AllocUserptr marks an object that is backed by caller-owned memory rather than a kernel
	// allocation
	AllocUserptr
)

func init() {
	AllocZeroed.Register("AllocZeroed")
	AllocCoherent.Register("AllocCoherent")
	AllocSMEM.Register("AllocSMEM")
	AllocScanout.Register("AllocScanout")
	AllocNoSuballoc.Register("AllocNoSuballoc")
	AllocLMEM.Register("AllocLMEM")
	AllocProtected.Register("AllocProtected")
	AllocShared.Register("AllocShared")
	AllocUserptr.Register("AllocUserptr")
}

// FenceFlags give the role of a Fence attached to a batch
type FenceFlags uint32

var fenceFlagsMapping = common.NewFlagStringMapping[FenceFlags]()

func (f FenceFlags) Register(str string) {
	fenceFlagsMapping.Register(f, str)
}
func (f FenceFlags) String() string {
	return fenceFlagsMapping.FlagsToString(f)
}

const (
	// FenceWait makes the batch wait for the fence before executing
	FenceWait FenceFlags = 1 << iota
	// FenceSignal makes the batch signal the fence when it completes
	FenceSignal
)

func init() {
	FenceWait.Register("FenceWait")
	FenceSignal.Register("FenceSignal")
}

// Fence is a sync object handle attached to a batch to order it against other batches
type Fence struct {
	Handle uint32
	Flags  FenceFlags
}

// Heap identifies the memory heap a buffer object was requested from
type Heap int32

const (
	HeapSystemMemory Heap = iota
	HeapDeviceLocal
	HeapDeviceLocalPreferred
)

var heapMapping = make(map[Heap]string)

func (h Heap) String() string {
	return heapMapping[h]
}

func init() {
	heapMapping[HeapSystemMemory] = "HeapSystemMemory"
	heapMapping[HeapDeviceLocal] = "HeapDeviceLocal"
	heapMapping[HeapDeviceLocalPreferred] = "HeapDeviceLocalPreferred"
}

// MemoryRegion is a placement region reported by the kernel: a memory class (system or
// device) and an instance within that class
type MemoryRegion struct {
	Class    uint16
	Instance uint16
}
