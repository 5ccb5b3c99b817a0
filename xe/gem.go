package xe

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/memutils"
)

// GemCreate creates a buffer object placed in any of the provided regions. Non-shared objects
// are created private to the manager's VM so the kernel can skip implicit synchronization
// on them.
func (b *Backend) GemCreate(manager kmd.BufferManager, regions []kmd.MemoryRegion, size uint64, heap kmd.Heap, flags kmd.AllocFlags) (uint32, error) {
	logger := kmd.Logger()
	logger.Debug("xe::GemCreate",
		slog.Uint64("size", size),
		slog.String("heap", heap.String()),
		slog.String("flags", flags.String()),
	)

	if flags&kmd.AllocProtected != 0 {
		return 0, kmd.ErrProtectedUnsupported
	}

	vmID := manager.GlobalVMID()
	if flags&kmd.AllocShared != 0 {
		vmID = 0
	}

	var createFlags drm.GemCreateFlags
	if flags&kmd.AllocScanout != 0 {
		createFlags |= drm.GemCreateScanout
	}

	for _, region := range regions {
		createFlags |= drm.GemCreateFlags(1) << region.Instance
	}

	alignedSize := memutils.AlignUp64(size, manager.MemAlignment())
	handle, err := manager.Device().GemCreate(alignedSize, createFlags, vmID)
	if err != nil {
		return 0, errors.Wrapf(err, "xe: failed to create %d byte buffer object in %s", alignedSize, heap)
	}
	if handle == 0 {
		return 0, kmd.ErrInvalidHandle
	}

	return handle, nil
}

// GemMmap maps the whole object read/write and shared through the DRM node
func (b *Backend) GemMmap(manager kmd.BufferManager, bo *kmd.BufferObject) ([]byte, error) {
	kmd.Logger().Debug("xe::GemMmap", slog.String("bo", bo.Name()))

	device := manager.Device()
	offset, err := device.GemMmapOffset(bo.GemHandle())
	if err != nil {
		return nil, errors.Wrapf(err, "xe: failed to get mmap offset for %s", bo)
	}

	data, err := device.Mmap(offset, int(bo.Size()))
	if err != nil {
		return nil, errors.Wrapf(err, "xe: failed to map %s", bo)
	}

	return data, nil
}

func formatAddress(address uint64) string {
	return fmt.Sprintf("0x%016x", address)
}
