// Package bufmgr is a buffer manager for a DRM device: it creates buffer objects through a
// kmd.Backend, assigns their GPU virtual addresses, binds them, and tracks their references
// and CPU mappings until they are released.
package bufmgr

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/internal/utils"
	"github.com/vkngwrapper/kmd/internal/vma"
	"github.com/vkngwrapper/kmd/memutils"
	"golang.org/x/sys/unix"
)

// Manager owns the buffer objects created on one DRM device and the GPU address space they
// are bound into. It implements kmd.BufferManager.
type Manager struct {
	logger       *slog.Logger
	device       drm.Device
	backend      kmd.Backend
	memAlignment uint64
	vmID         uint32
	ownsVM       bool
	debug        kmd.DebugFlags
	createFlags  CreateFlags

	depsLock utils.OptionalMutex

	// mutex guards heap, objects, handles, zombies, pending and orphans
	mutex   utils.OptionalRWMutex
	heap    *vma.Heap
	objects *swiss.Map[*kmd.BufferObject, struct{}]
	handles *swiss.Map[uint32, *kmd.BufferObject]
	// zombies have no references left but may still be used by an executing batch. They keep
	// their GPU address and handle until the GPU is done with them.
	zombies *swiss.Map[*kmd.BufferObject, struct{}]
	// pending holds the handles being imported or closed outside mutex. Each channel is closed
	// once its handle settles.
	pending *swiss.Map[uint32, chan struct{}]
	// orphans counts the GPU address ranges held by objects missing from objects: objects
	// being created, zombies and objects being released
	orphans int
}

var _ kmd.BufferManager = (*Manager)(nil)

func (m *Manager) Device() drm.Device {
	return m.device
}

func (m *Manager) Backend() kmd.Backend {
	return m.backend
}

func (m *Manager) MemAlignment() uint64 {
	return m.memAlignment
}

func (m *Manager) GlobalVMID() uint32 {
	return m.vmID
}

func (m *Manager) DebugFlags() kmd.DebugFlags {
	return m.debug
}

// DepsLock returns the lock serializing cross-batch dependency tracking against execution
// for every batch built on this manager
func (m *Manager) DepsLock() sync.Locker {
	return &m.depsLock
}

// BackingObject resolves an alias to the real object backing it
func (m *Manager) BackingObject(bo *kmd.BufferObject) *kmd.BufferObject {
	if backing := bo.Backing(); backing != nil {
		return backing
	}
	return bo
}

func (m *Manager) IsImported(bo *kmd.BufferObject) bool {
	return m.BackingObject(bo).Imported()
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.debug&kmd.DebugBufmgr != 0 {
		m.logger.Info(msg, args...)
	}
}

// allocAddress must be called with mutex held
func (m *Manager) allocAddress(size uint64) (uint64, error) {
	address, ok := m.heap.Alloc(memutils.AlignUp64(size, m.memAlignment), m.memAlignment)
	if !ok {
		return 0, errors.Wrapf(kmd.ErrOutOfMemory, "no %d byte range is free in the GPU address space", size)
	}
	m.orphans++

	return memutils.CanonicalAddress(address), nil
}

// freeAddress must be called with mutex held
func (m *Manager) freeAddress(address uint64) {
	_, err := m.heap.Free(memutils.Address48(address))
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "freeing GPU address %#x", address))
	}
	m.orphans--
}

// busy reports whether a batch that used bo may still be executing. Objects found idle are
// marked so. It must be called with mutex held.
func (m *Manager) busy(bo *kmd.BufferObject) bool {
	if bo.Idle() {
		return false
	}

	m.depsLock.Lock()
	fence := bo.DependencyFence()
	m.depsLock.Unlock()

	if fence != 0 {
		err := m.device.SyncobjWait([]uint32{fence}, 0, 0)
		if errors.Is(err, unix.ETIME) {
			return true
		}
		if err != nil {
			m.logger.Warn("unable to query buffer object fence, treating it as idle",
				slog.String("bo", bo.String()),
				slog.Uint64("syncobj", uint64(fence)),
				slog.Any("error", err),
			)
		}
	}

	bo.SetIdle(true)
	return false
}

// detachHandleLocked moves the handle of an object about to be released from handles to
// pending, so imports of the same buffer wait for it to be closed. It must be called with
// mutex held.
func (m *Manager) detachHandleLocked(bo *kmd.BufferObject) {
	handle := bo.GemHandle()
	if handle == 0 {
		return
	}

	m.handles.Delete(handle)
	m.pending.Put(handle, make(chan struct{}))
}

// settleLocked wakes the callers waiting on a pending handle. It must be called with mutex
// held.
func (m *Manager) settleLocked(handle uint32) {
	if done, ok := m.pending.Get(handle); ok {
		m.pending.Delete(handle)
		close(done)
	}
}

// reapLocked detaches every zombie the GPU has finished with and returns them. The caller
// releases them once mutex is unlocked.
func (m *Manager) reapLocked() []*kmd.BufferObject {
	if m.zombies.Count() == 0 {
		return nil
	}

	var idle []*kmd.BufferObject
	m.zombies.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		if !m.busy(bo) {
			idle = append(idle, bo)
		}
		return false
	})

	for _, bo := range idle {
		m.zombies.Delete(bo)
		m.detachHandleLocked(bo)
	}

	return idle
}

func (m *Manager) reapZombies() {
	m.mutex.Lock()
	idle := m.reapLocked()
	m.mutex.Unlock()

	for _, bo := range idle {
		m.release(bo)
	}
}

func (m *Manager) closeHandle(handle uint32) {
	err := m.device.GemClose(handle)
	if err != nil {
		m.logger.Error("unable to close buffer object handle",
			slog.Uint64("handle", uint64(handle)),
			slog.Any("error", err),
		)
	}
}

// Validate checks that the live object table agrees with the GPU address space
func (m *Manager) Validate() error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	err := m.heap.Validate()
	if err != nil {
		return err
	}

	addressed := 0
	var iterErr error
	m.objects.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		if bo.Backing() != nil {
			if _, live := m.objects.Get(bo.Backing()); !live {
				iterErr = errors.Newf("alias %s outlives its backing object", bo)
				return true
			}
			return false
		}

		addressed++
		if bo.GemHandle() != 0 {
			registered, ok := m.handles.Get(bo.GemHandle())
			if !ok || registered != bo {
				iterErr = errors.Newf("%s is missing from the handle table", bo)
				return true
			}
		}
		return false
	})
	if iterErr != nil {
		return iterErr
	}

	m.zombies.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		if bo.References() != 0 {
			iterErr = errors.Newf("zombie %s still holds %d references", bo, bo.References())
			return true
		}
		if bo.GemHandle() != 0 {
			registered, ok := m.handles.Get(bo.GemHandle())
			if !ok || registered != bo {
				iterErr = errors.Newf("zombie %s is missing from the handle table", bo)
				return true
			}
		}
		return false
	})
	if iterErr != nil {
		return iterErr
	}

	if m.orphans < m.zombies.Count() {
		return errors.Newf("%d zombies hold GPU addresses but only %d addresses are unowned", m.zombies.Count(), m.orphans)
	}
	if addressed+m.orphans != m.heap.AllocationCount() {
		return errors.Newf("%d objects are live and %d addresses are unowned but %d GPU address ranges are allocated",
			addressed, m.orphans, m.heap.AllocationCount())
	}
	if m.handles.Count() > addressed+m.zombies.Count() {
		return errors.Newf("handle table holds %d entries for %d objects", m.handles.Count(), addressed+m.zombies.Count())
	}

	return nil
}

// Close releases every object still alive, regardless of its references or of batches still
// using it, and destroys the VM if the manager created it. The manager must not be used
// afterwards.
func (m *Manager) Close() error {
	m.logger.Debug("Manager::Close")

	m.mutex.Lock()
	var live []*kmd.BufferObject
	m.objects.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		live = append(live, bo)
		return false
	})
	var zombies []*kmd.BufferObject
	m.zombies.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		zombies = append(zombies, bo)
		return false
	})

	if len(live) > 0 {
		m.logger.Warn("closing buffer manager with live objects", slog.Int("count", len(live)))
	}

	var retired []*kmd.BufferObject
	for _, bo := range live {
		m.objects.Delete(bo)
		if bo.Backing() == nil {
			m.orphans++
			m.detachHandleLocked(bo)
			retired = append(retired, bo)
		}
	}
	for _, bo := range zombies {
		m.zombies.Delete(bo)
		m.detachHandleLocked(bo)
		retired = append(retired, bo)
	}
	m.mutex.Unlock()

	for _, bo := range retired {
		m.release(bo)
	}

	if !m.ownsVM {
		return nil
	}

	err := m.device.VMDestroy(m.vmID)
	if err != nil {
		return errors.Wrapf(err, "failed to destroy VM %d", m.vmID)
	}

	return nil
}
