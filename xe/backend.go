// Package xe implements the kmd operation table for the Xe kernel driver, which binds buffer
// objects into the GPU address space explicitly with VM_BIND and synchronizes through DRM
// sync objects.
//
// Importing the package registers its backend for kmd.GenerationXe.
package xe

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
)

// SyncAllocator provides the transient sync descriptor arrays passed to the kernel with each
// submission
type SyncAllocator interface {
	// AllocateSyncs returns a zeroed array of count descriptors or an error if none could be
	// allocated
	AllocateSyncs(count int) ([]drm.Sync, error)
	// FreeSyncs releases an array returned by AllocateSyncs
	FreeSyncs(syncs []drm.Sync)
}

// Options contains optional settings when creating a Backend
type Options struct {
	// SyncAllocator overrides the allocator used for submission sync descriptors. When nil,
	// arrays are recycled through a sync.Pool.
	SyncAllocator SyncAllocator
	// MaxSyncs limits the number of fences a single submission may carry when the default
	// SyncAllocator is used. Zero means no limit.
	MaxSyncs int
}

// Backend is the Xe operation table. It holds no mutable state and is safe for concurrent use.
type Backend struct {
	syncAllocator SyncAllocator
}

var _ kmd.Backend = (*Backend)(nil)

// New creates a Backend. Most consumers should use Get or kmd.Get instead.
func New(options Options) *Backend {
	allocator := options.SyncAllocator
	if allocator == nil {
		allocator = newPoolSyncAllocator(options.MaxSyncs)
	}

	return &Backend{syncAllocator: allocator}
}

var defaultBackend = New(Options{})

// Get returns the process-wide Xe backend
func Get() *Backend {
	return defaultBackend
}

func init() {
	kmd.Register(kmd.GenerationXe, func() kmd.Backend {
		return defaultBackend
	})
}

func (b *Backend) Generation() kmd.Generation {
	return kmd.GenerationXe
}

// Madvise always reports the object's contents as retained. Purging is only available to VMs
// created in fault mode, which cannot be combined with the scratch page the buffer manager
// relies on.
func (b *Backend) Madvise(bo *kmd.BufferObject, state kmd.Madvice) bool {
	kmd.Logger().Debug("xe::Madvise", slog.String("bo", bo.Name()), slog.String("state", state.String()))
	return true
}

// SetCaching panics: Xe has no uAPI to change an object's caching mode, so a call means the
// caller was written for another generation.
func (b *Backend) SetCaching(bo *kmd.BufferObject, cached bool) error {
	panic(errors.AssertionFailedf("xe: SetCaching(%s, %t) called but xe has no caching uAPI", bo, cached))
}

type poolSyncAllocator struct {
	maxSyncs int
	pool     sync.Pool
}

func newPoolSyncAllocator(maxSyncs int) *poolSyncAllocator {
	return &poolSyncAllocator{
		maxSyncs: maxSyncs,
		pool: sync.Pool{
			New: func() any {
				syncs := make([]drm.Sync, 0, 8)
				return &syncs
			},
		},
	}
}

func (a *poolSyncAllocator) AllocateSyncs(count int) ([]drm.Sync, error) {
	if a.maxSyncs > 0 && count > a.maxSyncs {
		return nil, errors.Wrapf(kmd.ErrOutOfMemory, "%d sync descriptors requested, limit is %d", count, a.maxSyncs)
	}

	syncs := *a.pool.Get().(*[]drm.Sync)
	if cap(syncs) < count {
		syncs = make([]drm.Sync, count)
	}
	syncs = syncs[:count]
	for i := range syncs {
		syncs[i] = drm.Sync{}
	}

	return syncs, nil
}

func (a *poolSyncAllocator) FreeSyncs(syncs []drm.Sync) {
	syncs = syncs[:0]
	a.pool.Put(&syncs)
}

func (a *poolSyncAllocator) String() string {
	return fmt.Sprintf("poolSyncAllocator(max=%d)", a.maxSyncs)
}
