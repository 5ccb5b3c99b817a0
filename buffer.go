package kmd

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// IndexUnassigned is the batch-local index of a buffer object that is not recorded in any
// batch
const IndexUnassigned = -1

// BufferObjectInfo carries the immutable properties of a new BufferObject
type BufferObjectInfo struct {
	Name    string
	Manager BufferManager

	// GemHandle is the kernel handle. Zero is never a valid handle; userptr objects have none.
	GemHandle uint32
	Size      uint64
	Address   uint64
	Flags     AllocFlags
	Heap      Heap

	// Imported marks an object that was created by another process or driver and imported
	Imported bool
	// Userptr is the CPU address of the caller-owned memory backing an AllocUserptr object
	Userptr uintptr
	// Backing is the real object this object aliases, if any. Offset is the position of this
	// object inside Backing.
	Backing *BufferObject
	Offset  uint64
}

// BufferObject is a kernel-managed memory region usable by the GPU.
//
// The GPU address is stable while the object is bound and must be unbound before it is
// reused. The reference count only reaches zero once no in-flight batch refers to the object.
type BufferObject struct {
	name      string
	manager   BufferManager
	gemHandle uint32
	size      uint64
	flags     AllocFlags
	heap      Heap
	imported  bool
	userptr   uintptr
	backing   *BufferObject
	offset    uint64

	address  atomic.Uint64
	refCount atomic.Int32
	idle     atomic.Bool
	bound    atomic.Bool
	index    atomic.Int32

	mapMutex sync.Mutex
	mapped   []byte

	// Guarded by the buffer manager's dependency lock
	dependencyFence uint32
}

// NewBufferObject creates a BufferObject holding a single reference. The object starts out
// idle, unbound and not recorded in any batch.
func NewBufferObject(info BufferObjectInfo) *BufferObject {
	bo := &BufferObject{
		name:      info.Name,
		manager:   info.Manager,
		gemHandle: info.GemHandle,
		size:      info.Size,
		flags:     info.Flags,
		heap:      info.Heap,
		imported:  info.Imported,
		userptr:   info.Userptr,
		backing:   info.Backing,
		offset:    info.Offset,
	}
	bo.address.Store(info.Address)
	bo.refCount.Store(1)
	bo.idle.Store(true)
	bo.index.Store(IndexUnassigned)

	return bo
}

func (b *BufferObject) Name() string {
	return b.name
}

func (b *BufferObject) Manager() BufferManager {
	return b.manager
}

func (b *BufferObject) GemHandle() uint32 {
	return b.gemHandle
}

func (b *BufferObject) Size() uint64 {
	return b.size
}

func (b *BufferObject) Flags() AllocFlags {
	return b.flags
}

func (b *BufferObject) Heap() Heap {
	return b.heap
}

func (b *BufferObject) Imported() bool {
	return b.imported
}

// IsUserptr returns true if the object is backed by caller-owned memory
func (b *BufferObject) IsUserptr() bool {
	return b.flags&AllocUserptr != 0
}

// UserptrAddress returns the CPU address of the memory backing a userptr object
func (b *BufferObject) UserptrAddress() uintptr {
	return b.userptr
}

// Backing returns the object this object aliases, or nil for a real object
func (b *BufferObject) Backing() *BufferObject {
	return b.backing
}

// Offset returns the position of an aliasing object inside its backing object
func (b *BufferObject) Offset() uint64 {
	return b.offset
}

func (b *BufferObject) Address() uint64 {
	return b.address.Load()
}

func (b *BufferObject) SetAddress(address uint64) {
	b.address.Store(address)
}

func (b *BufferObject) Idle() bool {
	return b.idle.Load()
}

func (b *BufferObject) SetIdle(idle bool) {
	b.idle.Store(idle)
}

func (b *BufferObject) Bound() bool {
	return b.bound.Load()
}

func (b *BufferObject) SetBound(bound bool) {
	b.bound.Store(bound)
}

// Index returns the object's position in the exec list of the batch it is recorded in, or
// IndexUnassigned
func (b *BufferObject) Index() int {
	return int(b.index.Load())
}

func (b *BufferObject) SetIndex(index int) {
	b.index.Store(int32(index))
}

func (b *BufferObject) References() int {
	return int(b.refCount.Load())
}

// Reference takes an additional reference on the object
func (b *BufferObject) Reference() {
	b.refCount.Add(1)
}

// Unreference drops a reference and returns the number of references that remain. Callers
// should go through BufferManager.Unreference so the object is released when none remain.
func (b *BufferObject) Unreference() int {
	refs := b.refCount.Add(-1)
	if refs < 0 {
		panic(fmt.Sprintf("buffer object %q (handle %d) was unreferenced more times than it was referenced", b.name, b.gemHandle))
	}

	return int(refs)
}

// Mapped returns the object's cached CPU mapping, if any
func (b *BufferObject) Mapped() []byte {
	b.mapMutex.Lock()
	defer b.mapMutex.Unlock()

	return b.mapped
}

// SwapMapped replaces the cached CPU mapping and returns the previous one
func (b *BufferObject) SwapMapped(mapping []byte) []byte {
	b.mapMutex.Lock()
	defer b.mapMutex.Unlock()

	old := b.mapped
	b.mapped = mapping
	return old
}

// EnsureMapped returns the object's cached CPU mapping, creating it with mmap if there is
// none. Concurrent callers wait for the first mapping instead of creating their own.
func (b *BufferObject) EnsureMapped(mmap func() ([]byte, error)) ([]byte, error) {
	b.mapMutex.Lock()
	defer b.mapMutex.Unlock()

	if b.mapped != nil {
		return b.mapped, nil
	}

	data, err := mmap()
	if err != nil {
		return nil, err
	}
	b.mapped = data

	return data, nil
}

// DependencyFence returns the sync object signaled by the last batch that used this object.
// It must only be called while holding the buffer manager's dependency lock.
func (b *BufferObject) DependencyFence() uint32 {
	return b.dependencyFence
}

// SetDependencyFence must only be called while holding the buffer manager's dependency lock
func (b *BufferObject) SetDependencyFence(handle uint32) {
	b.dependencyFence = handle
}

func (b *BufferObject) String() string {
	return fmt.Sprintf("%s (handle %d, %d bytes @ %#x)", b.name, b.gemHandle, b.size, b.Address())
}
