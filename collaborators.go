package kmd

import (
	"sync"

	"github.com/vkngwrapper/kmd/drm"
)

// BufferManager is the part of the buffer manager a Backend consumes
type BufferManager interface {
	// Device returns the kernel device all of the manager's objects live on
	Device() drm.Device
	// MemAlignment returns the device's memory alignment. Object sizes are rounded up to it.
	MemAlignment() uint64
	// GlobalVMID returns the id of the GPU address space the manager binds objects into
	GlobalVMID() uint32
	// DepsLock returns the process-wide lock serializing cross-batch dependency tracking
	// against execution
	DepsLock() sync.Locker
	// BackingObject resolves an aliasing object to the real object backing it. Real objects
	// resolve to themselves.
	BackingObject(bo *BufferObject) *BufferObject
	// IsImported returns true if the object was created outside this manager
	IsImported(bo *BufferObject) bool
	// Unmap drops any CPU mapping the manager holds for the object
	Unmap(bo *BufferObject) error
	// Unreference drops a reference to the object, releasing it once no references remain
	Unreference(bo *BufferObject)
	DebugFlags() DebugFlags
}

// Batch is the part of a command batch a Backend consumes when submitting it
type Batch interface {
	Manager() BufferManager
	// EngineID identifies the hardware execution context the batch is submitted to
	EngineID() uint32
	// CommandBuffer returns the object holding the batch's commands. It is always the first
	// entry of ExecBuffers.
	CommandBuffer() *BufferObject
	// ExecBuffers returns every object the batch references. The batch holds one reference
	// on each of them, which is handed over to the backend on submission.
	ExecBuffers() []*BufferObject
	// Fences returns the batch's cross-batch dependencies
	Fences() []Fence
	// UpdateSyncObjects collects the batch's cross-batch dependencies into Fences. It is
	// called with the dependency lock held.
	UpdateSyncObjects()
	// Decode dumps the batch's commands for debugging. It may map and wait on buffers so it
	// must not be called with the dependency lock held.
	Decode()
	// NoHW returns true if execution on the hardware is disabled for testing
	NoHW() bool
}
