// Package drm describes the slice of the Linux DRM uAPI used by the Xe backend: the Xe GEM,
// VM and exec ioctls, DRM sync objects and PRIME import. Device is the kernel surface the
// rest of the module talks to; FileDevice issues the real ioctls against an open render node.
package drm

//go:generate mockgen -source device.go -destination mocks/device.go -package mocks

// Device is the kernel device-control surface. Each method issues exactly one ioctl (or
// mmap/munmap) and returns the kernel's error, if any, without retrying.
type Device interface {
	// FD returns the file descriptor of the open DRM node
	FD() int

	// GemCreate creates a buffer object and returns its non-zero handle
	GemCreate(size uint64, flags GemCreateFlags, vmID uint32) (uint32, error)
	// GemClose releases a buffer object handle
	GemClose(handle uint32) error
	// GemMmapOffset returns the fake offset used to mmap the buffer object through the DRM node
	GemMmapOffset(handle uint32) (uint64, error)
	// PrimeFDToHandle imports a dma-buf file descriptor as a buffer object handle
	PrimeFDToHandle(fd int) (uint32, error)

	VMCreate(flags VMCreateFlags) (uint32, error)
	VMDestroy(vmID uint32) error
	// VMBind issues a single bind operation against the VM with the provided syncs attached
	VMBind(vmID uint32, bind VMBindOp, syncs []Sync) error

	// Exec submits one batch buffer at address to the engine with the provided syncs attached
	Exec(engineID uint32, address uint64, syncs []Sync) error
	EngineGetProperty(engineID uint32, property EngineProperty) (uint64, error)

	SyncobjCreate(flags uint32) (uint32, error)
	SyncobjWait(handles []uint32, timeoutNsec int64, flags uint32) error
	SyncobjDestroy(handle uint32) error

	// Mmap maps length bytes of the DRM node at offset as a shared read/write mapping
	Mmap(offset uint64, length int) ([]byte, error)
	Munmap(data []byte) error

	Close() error
}
