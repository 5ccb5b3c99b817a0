package xe

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/drm/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
)

func TestGemCreatePrivateToVM(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)

	regions := []kmd.MemoryRegion{{Class: 0, Instance: 0}, {Class: 1, Instance: 2}}
	device.EXPECT().GemCreate(uint64(8192), drm.GemCreateScanout|drm.GemCreateFlags(0b101), uint32(7)).Return(uint32(5), nil)

	handle, err := Get().GemCreate(manager, regions, 5000, kmd.HeapDeviceLocal, kmd.AllocScanout)
	require.NoError(t, err)
	require.Equal(t, uint32(5), handle)
}

func TestGemCreateShared(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)

	regions := []kmd.MemoryRegion{{Class: 0, Instance: 1}}
	device.EXPECT().GemCreate(uint64(4096), drm.GemCreateFlags(0b10), uint32(0)).Return(uint32(11), nil)

	handle, err := Get().GemCreate(manager, regions, 4096, kmd.HeapSystemMemory, kmd.AllocShared)
	require.NoError(t, err)
	require.Equal(t, uint32(11), handle)
}

func TestGemCreateProtectedIssuesNoIoctl(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)

	handle, err := Get().GemCreate(manager, []kmd.MemoryRegion{{}}, 4096, kmd.HeapSystemMemory, kmd.AllocProtected)
	require.ErrorIs(t, err, kmd.ErrProtectedUnsupported)
	require.Zero(t, handle)
}

func TestGemCreateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)

	device.EXPECT().GemCreate(gomock.Any(), gomock.Any(), gomock.Any()).Return(uint32(0), unix.ENOMEM)

	handle, err := Get().GemCreate(manager, []kmd.MemoryRegion{{}}, 1, kmd.HeapSystemMemory, 0)
	require.True(t, errors.Is(err, unix.ENOMEM))
	require.Zero(t, handle)
}

func TestGemCreateZeroHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)

	device.EXPECT().GemCreate(uint64(4096), drm.GemCreateFlags(1), uint32(7)).Return(uint32(0), nil)

	handle, err := Get().GemCreate(manager, []kmd.MemoryRegion{{}}, 1, kmd.HeapSystemMemory, 0)
	require.ErrorIs(t, err, kmd.ErrInvalidHandle)
	require.Zero(t, handle)
}

func TestGemMmap(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)
	bo := manager.newBuffer("vertices", 3, 8192, 0x10000)

	data := make([]byte, 8192)
	gomock.InOrder(
		device.EXPECT().GemMmapOffset(uint32(3)).Return(uint64(0x100000), nil),
		device.EXPECT().Mmap(uint64(0x100000), 8192).Return(data, nil),
	)

	mapped, err := Get().GemMmap(manager, bo)
	require.NoError(t, err)
	require.Len(t, mapped, 8192)
}

func TestGemMmapOffsetFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)
	bo := manager.newBuffer("vertices", 3, 8192, 0x10000)

	device.EXPECT().GemMmapOffset(uint32(3)).Return(uint64(0), unix.ENOENT)

	mapped, err := Get().GemMmap(manager, bo)
	require.True(t, errors.Is(err, unix.ENOENT))
	require.Nil(t, mapped)
}

func TestGemMmapFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	manager := newFakeManager(device)
	bo := manager.newBuffer("vertices", 3, 8192, 0x10000)

	device.EXPECT().GemMmapOffset(uint32(3)).Return(uint64(0x100000), nil)
	device.EXPECT().Mmap(uint64(0x100000), 8192).Return(nil, unix.ENOMEM)

	mapped, err := Get().GemMmap(manager, bo)
	require.True(t, errors.Is(err, unix.ENOMEM))
	require.Nil(t, mapped)
}
