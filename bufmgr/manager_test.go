package bufmgr

import (
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/batch"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/drm/mocks"
	"github.com/vkngwrapper/kmd/internal/utils"
	"github.com/vkngwrapper/kmd/memutils"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
)

const testVM uint32 = 1

var systemMemory = []kmd.MemoryRegion{{Class: 0, Instance: 0}}

type bindLog struct {
	binds []drm.VMBindOp
}

func (l *bindLog) ops() []drm.BindOp {
	var ops []drm.BindOp
	for _, bind := range l.binds {
		ops = append(ops, bind.Op)
	}
	return ops
}

func expectBinds(device *mocks.MockDevice, log *bindLog) {
	device.EXPECT().SyncobjCreate(uint32(0)).Return(uint32(50), nil).AnyTimes()
	device.EXPECT().VMBind(testVM, gomock.Any(), gomock.Any()).DoAndReturn(func(_ uint32, bind drm.VMBindOp, _ []drm.Sync) error {
		log.binds = append(log.binds, bind)
		return nil
	}).AnyTimes()
	device.EXPECT().SyncobjWait([]uint32{50}, gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	device.EXPECT().SyncobjDestroy(uint32(50)).Return(nil).AnyTimes()
}

// expectBlockingUnbinds makes every unbind close unbinding and wait for finish
func expectBlockingUnbinds(device *mocks.MockDevice, unbinding chan struct{}, finish chan struct{}) {
	var once sync.Once
	device.EXPECT().SyncobjCreate(uint32(0)).Return(uint32(50), nil).AnyTimes()
	device.EXPECT().VMBind(testVM, gomock.Any(), gomock.Any()).DoAndReturn(func(_ uint32, bind drm.VMBindOp, _ []drm.Sync) error {
		if bind.Op == drm.BindOpUnmap {
			once.Do(func() { close(unbinding) })
			<-finish
		}
		return nil
	}).AnyTimes()
	device.EXPECT().SyncobjWait([]uint32{50}, gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	device.EXPECT().SyncobjDestroy(uint32(50)).Return(nil).AnyTimes()
}

// markBusy makes bo look like it is used by an executing batch signalling fence
func markBusy(manager *Manager, bo *kmd.BufferObject, fence uint32) {
	lock := manager.DepsLock()
	lock.Lock()
	bo.SetDependencyFence(fence)
	lock.Unlock()
	bo.SetIdle(false)
}

func newTestManager(t *testing.T, options CreateOptions) (*Manager, *mocks.MockDevice) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)

	if options.VMID == 0 {
		device.EXPECT().VMCreate(drm.VMCreateScratchPage).Return(testVM, nil)
	}

	manager, err := New(nil, device, options)
	require.NoError(t, err)

	return manager, device
}

func TestNewCreatesAndDestroysVM(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})

	require.Equal(t, testVM, manager.GlobalVMID())
	require.Equal(t, uint64(4096), manager.MemAlignment())
	require.Equal(t, kmd.GenerationXe, manager.Backend().Generation())

	device.EXPECT().VMDestroy(testVM).Return(nil)
	require.NoError(t, manager.Close())
}

func TestNewUsesProvidedVM(t *testing.T) {
	manager, _ := newTestManager(t, CreateOptions{VMID: 9, MemAlignment: 65536})

	require.Equal(t, uint32(9), manager.GlobalVMID())
	require.Equal(t, uint64(65536), manager.MemAlignment())
	require.NoError(t, manager.Close())
}

func TestNewRejectsBadAlignment(t *testing.T) {
	device := mocks.NewMockDevice(gomock.NewController(t))

	_, err := New(nil, device, CreateOptions{MemAlignment: 3000})
	require.True(t, errors.Is(err, memutils.PowerOfTwoError))
}

func TestNewRejectsOversizedAddressSpace(t *testing.T) {
	device := mocks.NewMockDevice(gomock.NewController(t))

	_, err := New(nil, device, CreateOptions{AddressSpaceStart: 1 << 47, AddressSpaceSize: 1 << 48})
	require.Error(t, err)
}

func TestNewVMCreateFailure(t *testing.T) {
	device := mocks.NewMockDevice(gomock.NewController(t))
	device.EXPECT().VMCreate(drm.VMCreateFlags(0x7)).Return(uint32(0), unix.EINVAL)

	_, err := New(nil, device, CreateOptions{VMFlags: 0x7})
	require.True(t, errors.Is(err, unix.EINVAL))
}

func TestExternallySynchronizedDepsLock(t *testing.T) {
	manager, _ := newTestManager(t, CreateOptions{VMID: 9, Flags: CreateExternallySynchronized})

	lock, ok := manager.DepsLock().(*utils.OptionalMutex)
	require.True(t, ok)
	require.False(t, lock.UseMutex)
	require.Contains(t, CreateExternallySynchronized.String(), "CreateExternallySynchronized")
}

func TestAllocBindsAndReleases(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(uint64(8192), drm.GemCreateFlags(1), testVM).Return(uint32(3), nil)

	bo, err := manager.Alloc("vertices", 5000, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), bo.GemHandle())
	require.Equal(t, memutils.CanonicalAddress(1<<48-8192), bo.Address())
	require.True(t, bo.Bound())
	require.True(t, bo.Idle())
	require.Equal(t, 1, bo.References())
	require.Equal(t, kmd.IndexUnassigned, bo.Index())
	require.NoError(t, manager.Validate())

	require.Len(t, log.binds, 1)
	require.Equal(t, uint64(1<<48-8192), log.binds[0].Addr)
	require.Equal(t, uint64(8192), log.binds[0].Range)

	device.EXPECT().GemClose(uint32(3)).Return(nil)
	manager.Unreference(bo)

	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
	require.False(t, bo.Bound())
	require.NoError(t, manager.Validate())

	var stats memutils.DetailedStatistics
	manager.CalculateStatistics(&stats)
	require.Zero(t, stats.ObjectCount)
	require.Equal(t, 1, stats.UnusedRangeCount)
}

func TestAllocUnwindsFailedBind(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(3), nil)
	device.EXPECT().SyncobjCreate(uint32(0)).Return(uint32(50), nil)
	device.EXPECT().VMBind(gomock.Any(), gomock.Any(), gomock.Any()).Return(unix.ENOMEM)
	device.EXPECT().SyncobjDestroy(uint32(50)).Return(nil)
	device.EXPECT().GemClose(uint32(3)).Return(nil)

	_, err := manager.Alloc("vertices", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.True(t, errors.Is(err, unix.ENOMEM))
	require.NoError(t, manager.Validate())

	var stats memutils.DetailedStatistics
	manager.CalculateStatistics(&stats)
	require.Zero(t, stats.ObjectCount)
	require.Equal(t, defaultAddressSpaceSize, stats.UnusedRangeSizeMax)
}

func TestAllocProtectedUnsupported(t *testing.T) {
	manager, _ := newTestManager(t, CreateOptions{})

	_, err := manager.Alloc("protected", 4096, systemMemory, kmd.HeapDeviceLocal, kmd.AllocProtected)
	require.ErrorIs(t, err, kmd.ErrProtectedUnsupported)
}

func TestAllocRejectsUserptrFlag(t *testing.T) {
	manager, _ := newTestManager(t, CreateOptions{})

	_, err := manager.Alloc("userptr", 4096, systemMemory, kmd.HeapSystemMemory, kmd.AllocUserptr)
	require.Error(t, err)

	_, err = manager.Alloc("empty", 0, systemMemory, kmd.HeapSystemMemory, 0)
	require.Error(t, err)
}

func TestAllocUserptr(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	data := make([]byte, 4096)
	bo, err := manager.AllocUserptr("staging", data)
	require.NoError(t, err)
	require.True(t, bo.IsUserptr())
	require.Zero(t, bo.GemHandle())

	mapped, err := manager.Map(bo)
	require.NoError(t, err)
	mapped[0] = 42
	require.Equal(t, byte(42), data[0])

	manager.Unreference(bo)
	require.Equal(t, []drm.BindOp{drm.BindOpMapUserptr, drm.BindOpUnmap}, log.ops())
	require.Zero(t, log.binds[0].Obj)
	require.Equal(t, uint64(bo.UserptrAddress()), log.binds[0].ObjOffset)
	require.Nil(t, bo.Mapped())
}

func TestImportDeduplicatesHandles(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().PrimeFDToHandle(10).Return(uint32(8), nil).Times(2)

	first, err := manager.Import("scanout", 10, 5000)
	require.NoError(t, err)
	require.True(t, manager.IsImported(first))

	second, err := manager.Import("scanout", 10, 5000)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 2, first.References())
	require.Len(t, log.binds, 1)
	require.Equal(t, uint64(5000), log.binds[0].Range)

	manager.Unreference(second)
	require.Len(t, log.binds, 1)

	device.EXPECT().GemClose(uint32(8)).Return(nil)
	manager.Unreference(first)
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
	require.NoError(t, manager.Validate())
}

func TestImportFailure(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	device.EXPECT().PrimeFDToHandle(10).Return(uint32(0), unix.EBADF)

	_, err := manager.Import("scanout", 10, 4096)
	require.True(t, errors.Is(err, unix.EBADF))
}

func TestAliasKeepsBackingAlive(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(uint64(65536), gomock.Any(), testVM).Return(uint32(4), nil)
	slab, err := manager.Alloc("slab", 65536, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)

	alias, err := manager.Alias("constants", slab, 0x100, 256)
	require.NoError(t, err)
	require.Same(t, slab, manager.BackingObject(alias))
	require.Equal(t, slab.Address()+0x100, alias.Address())
	require.Equal(t, slab.GemHandle(), alias.GemHandle())
	require.True(t, alias.Bound())
	require.Equal(t, 2, slab.References())

	_, err = manager.Alias("overflow", slab, 65536-128, 256)
	require.Error(t, err)

	nested, err := manager.Alias("nested", alias, 0x10, 16)
	require.NoError(t, err)
	require.Same(t, slab, nested.Backing())
	require.Equal(t, uint64(0x110), nested.Offset())
	manager.Unreference(nested)

	manager.Unreference(slab)
	require.Len(t, log.binds, 1)
	require.NoError(t, manager.Validate())

	device.EXPECT().GemClose(uint32(4)).Return(nil)
	manager.Unreference(alias)
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
}

func TestMapCachesMapping(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	expectBinds(device, &bindLog{})

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(4), nil)
	bo, err := manager.Alloc("slab", 8192, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)

	memory := make([]byte, 8192)
	device.EXPECT().GemMmapOffset(uint32(4)).Return(uint64(0x1000), nil)
	device.EXPECT().Mmap(uint64(0x1000), 8192).Return(memory, nil)

	first, err := manager.Map(bo)
	require.NoError(t, err)
	second, err := manager.Map(bo)
	require.NoError(t, err)
	require.Equal(t, &first[0], &second[0])

	alias, err := manager.Alias("window", bo, 4096, 16)
	require.NoError(t, err)
	window, err := manager.Map(alias)
	require.NoError(t, err)
	require.Len(t, window, 16)
	require.Equal(t, &memory[4096], &window[0])

	var stats memutils.DetailedStatistics
	manager.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.ObjectCount)
	require.Equal(t, 1, stats.MappedCount)

	require.NoError(t, manager.Unmap(alias))
	device.EXPECT().Munmap(gomock.Any()).Return(nil)
	require.NoError(t, manager.Unmap(bo))
	require.Nil(t, bo.Mapped())
	require.NoError(t, manager.Unmap(bo))

	manager.Unreference(alias)
	device.EXPECT().GemClose(uint32(4)).Return(nil)
	manager.Unreference(bo)
}

func TestReleaseUnmaps(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	expectBinds(device, &bindLog{})

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(4), nil)
	bo, err := manager.Alloc("slab", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)

	device.EXPECT().GemMmapOffset(uint32(4)).Return(uint64(0x1000), nil)
	device.EXPECT().Mmap(uint64(0x1000), 4096).Return(make([]byte, 4096), nil)
	_, err = manager.Map(bo)
	require.NoError(t, err)

	gomock.InOrder(
		device.EXPECT().Munmap(gomock.Any()).Return(nil),
		device.EXPECT().GemClose(uint32(4)).Return(nil),
	)
	manager.Unreference(bo)
}

func TestCloseReleasesLiveObjects(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(4), nil)
	bo, err := manager.Alloc("leaked", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	_, err = manager.Alias("leaked alias", bo, 0, 64)
	require.NoError(t, err)

	gomock.InOrder(
		device.EXPECT().GemClose(uint32(4)).Return(nil),
		device.EXPECT().VMDestroy(testVM).Return(nil),
	)
	require.NoError(t, manager.Close())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
}

func TestBuildStatsString(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	expectBinds(device, &bindLog{})

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(4), nil)
	bo, err := manager.Alloc("vertices", 4096, systemMemory, kmd.HeapSystemMemory, kmd.AllocScanout)
	require.NoError(t, err)

	summary := manager.StatsString(false)
	require.True(t, strings.HasPrefix(summary, "{"))
	require.Contains(t, summary, `"Generation":"xe"`)
	require.Contains(t, summary, `"Objects":1`)
	require.NotContains(t, summary, "vertices")

	writer := jwriter.NewWriter()
	manager.BuildStatsString(&writer, true)
	require.NoError(t, writer.Error())
	detailed := string(writer.Bytes())
	require.Contains(t, detailed, `"Name":"vertices"`)
	require.Contains(t, detailed, `"Handle":4`)
	require.Contains(t, detailed, "AllocScanout")

	device.EXPECT().GemClose(uint32(4)).Return(nil)
	manager.Unreference(bo)
}

func TestBusyObjectKeepsAddressUntilIdle(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(3), nil)
	commands, err := manager.Alloc("commands", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)

	b := batch.New(manager, 5, commands)
	b.SetSignal(77)
	manager.Unreference(commands)

	device.EXPECT().Exec(uint32(5), gomock.Any(), gomock.Any()).Return(nil)
	device.EXPECT().SyncobjWait([]uint32{77}, int64(0), uint32(0)).Return(unix.ETIME).Times(2)
	require.NoError(t, b.Submit(manager.Backend()))

	require.Zero(t, commands.References())
	require.False(t, commands.Idle())
	require.True(t, commands.Bound())

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(4), nil)
	next, err := manager.Alloc("next", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	require.NotEqual(t, commands.Address(), next.Address())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpMap}, log.ops())
	require.NoError(t, manager.Validate())

	var stats memutils.DetailedStatistics
	manager.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.ObjectCount)

	device.EXPECT().SyncobjWait([]uint32{77}, int64(0), uint32(0)).Return(nil)
	device.EXPECT().GemClose(uint32(3)).Return(nil)
	device.EXPECT().GemClose(uint32(4)).Return(nil)
	manager.Unreference(next)

	require.True(t, commands.Idle())
	require.False(t, commands.Bound())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpMap, drm.BindOpUnmap, drm.BindOpUnmap}, log.ops())
	require.NoError(t, manager.Validate())

	manager.CalculateStatistics(&stats)
	require.Zero(t, stats.ObjectCount)
	require.Equal(t, 1, stats.UnusedRangeCount)
}

func TestUnqueryableFenceCountsAsIdle(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(3), nil)
	bo, err := manager.Alloc("vertices", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	markBusy(manager, bo, 77)

	device.EXPECT().SyncobjWait([]uint32{77}, int64(0), uint32(0)).Return(unix.EINVAL)
	device.EXPECT().GemClose(uint32(3)).Return(nil)
	manager.Unreference(bo)

	require.True(t, bo.Idle())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
}

func TestImportRevivesBusyObject(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().PrimeFDToHandle(10).Return(uint32(8), nil).Times(2)
	first, err := manager.Import("scanout", 10, 4096)
	require.NoError(t, err)
	markBusy(manager, first, 77)

	device.EXPECT().SyncobjWait([]uint32{77}, int64(0), uint32(0)).Return(unix.ETIME)
	manager.Unreference(first)
	require.True(t, first.Bound())
	require.NoError(t, manager.Validate())

	second, err := manager.Import("scanout", 10, 4096)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, second.References())
	require.Len(t, log.binds, 1)
	require.NoError(t, manager.Validate())

	gomock.InOrder(
		device.EXPECT().GemClose(uint32(8)).Return(nil),
		device.EXPECT().VMDestroy(testVM).Return(nil),
	)
	require.NoError(t, manager.Close())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
}

func TestCloseReleasesBusyObjects(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	log := &bindLog{}
	expectBinds(device, log)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(3), nil)
	bo, err := manager.Alloc("vertices", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	markBusy(manager, bo, 77)

	device.EXPECT().SyncobjWait([]uint32{77}, int64(0), uint32(0)).Return(unix.ETIME)
	manager.Unreference(bo)
	require.Len(t, log.binds, 1)

	gomock.InOrder(
		device.EXPECT().GemClose(uint32(3)).Return(nil),
		device.EXPECT().VMDestroy(testVM).Return(nil),
	)
	require.NoError(t, manager.Close())
	require.Equal(t, []drm.BindOp{drm.BindOpMap, drm.BindOpUnmap}, log.ops())
}

func TestReleaseDoesNotBlockAlloc(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	unbinding := make(chan struct{})
	finish := make(chan struct{})
	expectBlockingUnbinds(device, unbinding, finish)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(3), nil)
	first, err := manager.Alloc("first", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	firstAddress := first.Address()

	device.EXPECT().GemClose(uint32(3)).Return(nil)
	released := make(chan struct{})
	go func() {
		manager.Unreference(first)
		close(released)
	}()
	<-unbinding

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), testVM).Return(uint32(4), nil)
	second, err := manager.Alloc("second", 4096, systemMemory, kmd.HeapSystemMemory, 0)
	require.NoError(t, err)
	require.NotEqual(t, firstAddress, second.Address())

	close(finish)
	<-released
	require.NoError(t, manager.Validate())

	device.EXPECT().GemClose(uint32(4)).Return(nil)
	manager.Unreference(second)
	require.NoError(t, manager.Validate())
}

func TestImportWaitsForClosingHandle(t *testing.T) {
	manager, device := newTestManager(t, CreateOptions{})
	unbinding := make(chan struct{})
	finish := make(chan struct{})
	expectBlockingUnbinds(device, unbinding, finish)

	device.EXPECT().PrimeFDToHandle(10).Return(uint32(8), nil)
	first, err := manager.Import("scanout", 10, 4096)
	require.NoError(t, err)

	device.EXPECT().GemClose(uint32(8)).Return(nil)
	released := make(chan struct{})
	go func() {
		manager.Unreference(first)
		close(released)
	}()
	<-unbinding

	looked := make(chan struct{})
	device.EXPECT().PrimeFDToHandle(10).DoAndReturn(func(int) (uint32, error) {
		close(looked)
		return 8, nil
	})
	device.EXPECT().PrimeFDToHandle(10).Return(uint32(9), nil)

	type importResult struct {
		bo  *kmd.BufferObject
		err error
	}
	imported := make(chan importResult)
	go func() {
		bo, err := manager.Import("scanout", 10, 4096)
		imported <- importResult{bo: bo, err: err}
	}()

	<-looked
	close(finish)
	<-released

	result := <-imported
	require.NoError(t, result.err)
	require.NotSame(t, first, result.bo)
	require.Equal(t, uint32(9), result.bo.GemHandle())
	require.NoError(t, manager.Validate())

	device.EXPECT().GemClose(uint32(9)).Return(nil)
	manager.Unreference(result.bo)
}
