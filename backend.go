package kmd

import "github.com/cockroachdb/errors"

var (
	// ErrProtectedUnsupported is returned when protected content is requested from a
	// generation that cannot provide it
	ErrProtectedUnsupported = errors.New("protected content is not supported by this kernel driver")
	// ErrOutOfMemory is returned when a transient allocation needed to talk to the kernel fails
	ErrOutOfMemory = errors.New("out of memory")
	// ErrInvalidHandle is returned when the kernel hands back the invalid handle 0
	ErrInvalidHandle = errors.New("kernel returned an invalid handle")
	// ErrGenerationNotRegistered is returned when no backend is registered for a generation
	ErrGenerationNotRegistered = errors.New("no backend is registered for this kernel driver generation")
)

// Backend is the operation table of one kernel-driver generation. Implementations are
// immutable and safe for concurrent use; one instance serves the whole process.
type Backend interface {
	Generation() Generation

	// GemCreate creates a kernel buffer object of at least size bytes placed in one of the
	// provided regions and returns its handle. On failure the handle is 0, which is never a
	// valid handle.
	GemCreate(manager BufferManager, regions []MemoryRegion, size uint64, heap Heap, flags AllocFlags) (uint32, error)
	// GemMmap maps the whole object into the process as a shared read/write mapping
	GemMmap(manager BufferManager, bo *BufferObject) ([]byte, error)

	// VMBind makes the object visible to the GPU at its address. It returns once the
	// binding is in place.
	VMBind(bo *BufferObject) error
	// VMUnbind removes the object's GPU mapping. It returns once the mapping is gone.
	VMUnbind(bo *BufferObject) error

	// Madvise passes a purgeability hint to the kernel and returns true if the object's
	// contents were retained
	Madvise(bo *BufferObject, state Madvice) bool
	// SetCaching changes the object's CPU caching mode
	SetCaching(bo *BufferObject, cached bool) error

	// CheckForReset reports whether the batch's hardware context has been lost
	CheckForReset(batch Batch) ResetStatus
	// Submit executes the batch, handing over the batch's reference on each of its buffers
	Submit(batch Batch) error
}
