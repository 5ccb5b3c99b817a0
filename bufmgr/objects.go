package bufmgr

import (
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/memutils"
	"golang.org/x/sys/unix"
)

// Alloc creates a buffer object of at least size bytes placed in one of regions, assigns it a
// GPU address and binds it. The returned object holds one reference.
func (m *Manager) Alloc(name string, size uint64, regions []kmd.MemoryRegion, heap kmd.Heap, flags kmd.AllocFlags) (*kmd.BufferObject, error) {
	m.logger.Debug("Manager::Alloc", slog.String("name", name), slog.Uint64("size", size))

	if size == 0 {
		return nil, errors.Newf("buffer object %q has size 0", name)
	}
	if flags&kmd.AllocUserptr != 0 {
		return nil, errors.New("userptr objects must be created with AllocUserptr")
	}

	m.reapZombies()

	handle, err := m.backend.GemCreate(m, regions, size, heap, flags)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	address, err := m.allocAddress(size)
	m.mutex.Unlock()
	if err != nil {
		m.closeHandle(handle)
		return nil, err
	}

	bo := kmd.NewBufferObject(kmd.BufferObjectInfo{
		Name:      name,
		Manager:   m,
		GemHandle: handle,
		Size:      size,
		Address:   address,
		Flags:     flags,
		Heap:      heap,
	})

	err = m.backend.VMBind(bo)
	if err != nil {
		m.mutex.Lock()
		m.freeAddress(address)
		m.mutex.Unlock()
		m.closeHandle(handle)
		return nil, err
	}
	bo.SetBound(true)

	m.mutex.Lock()
	m.registerLocked(bo)
	m.mutex.Unlock()

	memutils.DebugValidate(m)
	m.debugLog("bufmgr: allocated", slog.String("bo", bo.String()), slog.String("heap", heap.String()))
	return bo, nil
}

// AllocUserptr wraps caller-owned memory in a buffer object and binds it into the GPU address
// space. data must stay valid, and must not move, until the object is released.
func (m *Manager) AllocUserptr(name string, data []byte) (*kmd.BufferObject, error) {
	m.logger.Debug("Manager::AllocUserptr", slog.String("name", name), slog.Int("size", len(data)))

	if len(data) == 0 {
		return nil, errors.Newf("userptr object %q has no memory", name)
	}

	m.reapZombies()

	size := uint64(len(data))
	m.mutex.Lock()
	address, err := m.allocAddress(size)
	m.mutex.Unlock()
	if err != nil {
		return nil, err
	}

	bo := kmd.NewBufferObject(kmd.BufferObjectInfo{
		Name:    name,
		Manager: m,
		Size:    size,
		Address: address,
		Flags:   kmd.AllocUserptr | kmd.AllocSMEM,
		Heap:    kmd.HeapSystemMemory,
		Userptr: uintptr(unsafe.Pointer(unsafe.SliceData(data))),
	})
	bo.SwapMapped(data)

	err = m.backend.VMBind(bo)
	if err != nil {
		bo.SwapMapped(nil)
		m.mutex.Lock()
		m.freeAddress(address)
		m.mutex.Unlock()
		return nil, err
	}
	bo.SetBound(true)

	m.mutex.Lock()
	m.registerLocked(bo)
	m.mutex.Unlock()

	memutils.DebugValidate(m)
	m.debugLog("bufmgr: wrapped user memory", slog.String("bo", bo.String()))
	return bo, nil
}

// Import creates a buffer object from a dma-buf file descriptor. size may be 0, in which case
// the dma-buf's size is queried. Importing a buffer that is already live returns the existing
// object with an additional reference.
func (m *Manager) Import(name string, primeFD int, size uint64) (*kmd.BufferObject, error) {
	m.logger.Debug("Manager::Import", slog.String("name", name), slog.Int("fd", primeFD))

	var handle uint32
	for {
		// The kernel hands out one handle per buffer, so the lookup must happen under mutex:
		// a handle that is neither live nor pending cannot be closed behind our back.
		m.mutex.Lock()
		imported, err := m.device.PrimeFDToHandle(primeFD)
		if err != nil {
			m.mutex.Unlock()
			return nil, errors.Wrapf(err, "failed to import dma-buf %d", primeFD)
		}

		if existing, ok := m.handles.Get(imported); ok {
			m.reviveLocked(existing)
			m.mutex.Unlock()
			return existing, nil
		}

		settled, pending := m.pending.Get(imported)
		if !pending {
			m.pending.Put(imported, make(chan struct{}))
			m.mutex.Unlock()
			handle = imported
			break
		}
		m.mutex.Unlock()

		// Another caller is importing or closing this handle
		<-settled
	}

	if size == 0 {
		var err error
		size, err = dmaBufSize(primeFD)
		if err != nil {
			m.abandonImport(handle)
			return nil, err
		}
	}

	m.mutex.Lock()
	address, err := m.allocAddress(size)
	m.mutex.Unlock()
	if err != nil {
		m.abandonImport(handle)
		return nil, err
	}

	bo := kmd.NewBufferObject(kmd.BufferObjectInfo{
		Name:      name,
		Manager:   m,
		GemHandle: handle,
		Size:      size,
		Address:   address,
		Flags:     kmd.AllocShared,
		Imported:  true,
	})

	err = m.backend.VMBind(bo)
	if err != nil {
		m.mutex.Lock()
		m.freeAddress(address)
		m.mutex.Unlock()
		m.abandonImport(handle)
		return nil, err
	}
	bo.SetBound(true)

	m.mutex.Lock()
	m.registerLocked(bo)
	m.settleLocked(handle)
	m.mutex.Unlock()

	memutils.DebugValidate(m)
	m.debugLog("bufmgr: imported", slog.String("bo", bo.String()))
	return bo, nil
}

func dmaBufSize(primeFD int) (uint64, error) {
	end, err := unix.Seek(primeFD, 0, unix.SEEK_END)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to determine the size of dma-buf %d", primeFD)
	}
	if end <= 0 {
		return 0, errors.Newf("dma-buf %d reports size %d", primeFD, end)
	}

	return uint64(end), nil
}

func (m *Manager) abandonImport(handle uint32) {
	m.closeHandle(handle)

	m.mutex.Lock()
	m.settleLocked(handle)
	m.mutex.Unlock()
}

// reviveLocked takes a reference on an object found by handle. A zombie found this way
// becomes live again with its binding intact. It must be called with mutex held.
func (m *Manager) reviveLocked(bo *kmd.BufferObject) {
	if _, zombie := m.zombies.Get(bo); zombie {
		m.zombies.Delete(bo)
		m.objects.Put(bo, struct{}{})
		m.orphans--
		m.debugLog("bufmgr: revived", slog.String("bo", bo.String()))
	}
	bo.Reference()
}

// Alias creates an object covering size bytes of backing starting at offset. The alias shares
// backing's handle and GPU address range and holds a reference on it.
func (m *Manager) Alias(name string, backing *kmd.BufferObject, offset, size uint64) (*kmd.BufferObject, error) {
	m.logger.Debug("Manager::Alias", slog.String("name", name), slog.String("backing", backing.Name()))

	if size == 0 || offset+size > backing.Size() || offset+size < offset {
		return nil, errors.Newf("alias [%d, %d) does not fit in %s", offset, offset+size, backing)
	}

	target := m.BackingObject(backing)
	offset += backing.Offset()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, live := m.objects.Get(target); !live {
		return nil, errors.Newf("%s is not a live object of this manager", target)
	}
	target.Reference()

	bo := kmd.NewBufferObject(kmd.BufferObjectInfo{
		Name:      name,
		Manager:   m,
		GemHandle: target.GemHandle(),
		Size:      size,
		Address:   target.Address() + offset,
		Flags:     target.Flags() &^ kmd.AllocUserptr,
		Heap:      target.Heap(),
		Imported:  target.Imported(),
		Backing:   target,
		Offset:    offset,
	})
	bo.SetBound(target.Bound())
	m.objects.Put(bo, struct{}{})

	return bo, nil
}

// registerLocked must be called with mutex held
func (m *Manager) registerLocked(bo *kmd.BufferObject) {
	m.objects.Put(bo, struct{}{})
	if bo.GemHandle() != 0 {
		m.handles.Put(bo.GemHandle(), bo)
	}
	m.orphans--
}

// Unreference drops a reference to bo. When none remain and no executing batch uses it, the
// object is unbound and unmapped, its GPU address is returned and its handle is closed. An
// object still in use is kept as a zombie and released by a later Alloc, Unreference or Close.
// Releasing an alias drops its reference on the backing object.
func (m *Manager) Unreference(bo *kmd.BufferObject) {
	m.mutex.Lock()
	retired := m.reapLocked()
	if released := m.unreferenceLocked(bo); released != nil {
		retired = append(retired, released)
	}
	m.mutex.Unlock()

	for _, r := range retired {
		m.release(r)
	}

	memutils.DebugValidate(m)
}

// unreferenceLocked returns the object to release once mutex is unlocked, if any
func (m *Manager) unreferenceLocked(bo *kmd.BufferObject) *kmd.BufferObject {
	if bo.Unreference() > 0 {
		return nil
	}

	m.objects.Delete(bo)
	if backing := bo.Backing(); backing != nil {
		m.debugLog("bufmgr: released alias", slog.String("bo", bo.String()))
		return m.unreferenceLocked(backing)
	}

	m.orphans++
	if m.busy(bo) {
		m.zombies.Put(bo, struct{}{})
		m.debugLog("bufmgr: deferred release of busy object", slog.String("bo", bo.String()))
		return nil
	}

	m.detachHandleLocked(bo)
	return bo
}

// release tears down an object already removed from every table except the address space.
// It must be called without mutex held.
func (m *Manager) release(bo *kmd.BufferObject) {
	m.debugLog("bufmgr: released", slog.String("bo", bo.String()))

	if bo.Bound() {
		err := m.backend.VMUnbind(bo)
		if err != nil {
			m.logger.Error("unable to unbind buffer object",
				slog.String("bo", bo.String()),
				slog.Any("error", err),
			)
		}
		bo.SetBound(false)
	}

	if bo.IsUserptr() {
		bo.SwapMapped(nil)
	} else {
		err := m.Unmap(bo)
		if err != nil {
			m.logger.Error("unable to unmap buffer object",
				slog.String("bo", bo.String()),
				slog.Any("error", err),
			)
		}
	}

	handle := bo.GemHandle()
	if handle != 0 {
		m.closeHandle(handle)
	}

	m.mutex.Lock()
	m.freeAddress(bo.Address())
	if handle != 0 {
		m.settleLocked(handle)
	}
	m.mutex.Unlock()
}
