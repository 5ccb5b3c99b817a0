package xe

import (
	"sync"

	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
)

type countingLocker struct {
	mutex   sync.Mutex
	held    bool
	locks   int
	unlocks int
}

func (l *countingLocker) Lock() {
	l.mutex.Lock()
	l.held = true
	l.locks++
}

func (l *countingLocker) Unlock() {
	l.held = false
	l.unlocks++
	l.mutex.Unlock()
}

type fakeManager struct {
	device    drm.Device
	alignment uint64
	vmID      uint32
	debug     kmd.DebugFlags
	depsLock  countingLocker
	imported  map[*kmd.BufferObject]bool

	unmapped       []*kmd.BufferObject
	unreferenced   []*kmd.BufferObject
	unreferenceMtx sync.Mutex
}

var _ kmd.BufferManager = (*fakeManager)(nil)

func newFakeManager(device drm.Device) *fakeManager {
	return &fakeManager{
		device:    device,
		alignment: 4096,
		vmID:      7,
		imported:  make(map[*kmd.BufferObject]bool),
	}
}

func (m *fakeManager) Device() drm.Device         { return m.device }
func (m *fakeManager) MemAlignment() uint64       { return m.alignment }
func (m *fakeManager) GlobalVMID() uint32         { return m.vmID }
func (m *fakeManager) DepsLock() sync.Locker      { return &m.depsLock }
func (m *fakeManager) DebugFlags() kmd.DebugFlags { return m.debug }

func (m *fakeManager) BackingObject(bo *kmd.BufferObject) *kmd.BufferObject {
	if bo.Backing() != nil {
		return bo.Backing()
	}
	return bo
}

func (m *fakeManager) IsImported(bo *kmd.BufferObject) bool {
	return m.imported[bo]
}

func (m *fakeManager) Unmap(bo *kmd.BufferObject) error {
	m.unmapped = append(m.unmapped, bo)
	return nil
}

func (m *fakeManager) Unreference(bo *kmd.BufferObject) {
	m.unreferenceMtx.Lock()
	defer m.unreferenceMtx.Unlock()

	m.unreferenced = append(m.unreferenced, bo)
	bo.Unreference()
}

func (m *fakeManager) newBuffer(name string, handle uint32, size, address uint64) *kmd.BufferObject {
	return kmd.NewBufferObject(kmd.BufferObjectInfo{
		Name:      name,
		Manager:   m,
		GemHandle: handle,
		Size:      size,
		Address:   address,
	})
}

type fakeBatch struct {
	manager  *fakeManager
	engineID uint32
	buffers  []*kmd.BufferObject
	fences   []kmd.Fence
	noHW     bool

	onUpdateSyncObjects func()
	onDecode            func()
	decoded             int
}

var _ kmd.Batch = (*fakeBatch)(nil)

func (b *fakeBatch) Manager() kmd.BufferManager       { return b.manager }
func (b *fakeBatch) EngineID() uint32                 { return b.engineID }
func (b *fakeBatch) CommandBuffer() *kmd.BufferObject { return b.buffers[0] }
func (b *fakeBatch) ExecBuffers() []*kmd.BufferObject { return b.buffers }
func (b *fakeBatch) Fences() []kmd.Fence              { return b.fences }
func (b *fakeBatch) NoHW() bool                       { return b.noHW }

func (b *fakeBatch) UpdateSyncObjects() {
	if b.onUpdateSyncObjects != nil {
		b.onUpdateSyncObjects()
	}
}

func (b *fakeBatch) Decode() {
	b.decoded++
	if b.onDecode != nil {
		b.onDecode()
	}
}

type recordingAllocator struct {
	err       error
	allocated []int
	freed     [][]drm.Sync
}

func (a *recordingAllocator) AllocateSyncs(count int) ([]drm.Sync, error) {
	a.allocated = append(a.allocated, count)
	if a.err != nil {
		return nil, a.err
	}
	return make([]drm.Sync, count), nil
}

func (a *recordingAllocator) FreeSyncs(syncs []drm.Sync) {
	a.freed = append(a.freed, syncs)
}
