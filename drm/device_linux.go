//go:build linux

package drm

import (
	"runtime"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// FileDevice is a Device backed by an open DRM render node.
type FileDevice struct {
	fd   int
	path string
}

// Open opens the DRM node at path, typically /dev/dri/renderD128
func Open(path string) (*FileDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open DRM node %s", path)
	}

	return &FileDevice{fd: fd, path: path}, nil
}

// NewFileDevice wraps a DRM file descriptor that was opened elsewhere. The FileDevice
// takes ownership of fd and closes it in Close.
func NewFileDevice(fd int) *FileDevice {
	return &FileDevice{fd: fd}
}

func (d *FileDevice) FD() int {
	return d.fd
}

func (d *FileDevice) Path() string {
	return d.path
}

// ioctl restarts on EINTR and EAGAIN the way libdrm's drmIoctl does. Any other errno is
// returned to the caller.
func (d *FileDevice) ioctl(name string, request uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), request, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR, unix.EAGAIN:
			continue
		default:
			return errors.Wrapf(errno, "%s failed", name)
		}
	}
}

func (d *FileDevice) GemCreate(size uint64, flags GemCreateFlags, vmID uint32) (uint32, error) {
	args := GemCreate{
		Size:  size,
		Flags: flags,
		VMID:  vmID,
	}
	err := d.ioctl("DRM_IOCTL_XE_GEM_CREATE", IOCTL_XE_GEM_CREATE, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.Handle, nil
}

func (d *FileDevice) GemClose(handle uint32) error {
	args := gemClose{Handle: handle}
	return d.ioctl("DRM_IOCTL_GEM_CLOSE", IOCTL_GEM_CLOSE, unsafe.Pointer(&args))
}

func (d *FileDevice) GemMmapOffset(handle uint32) (uint64, error) {
	args := GemMmapOffset{Handle: handle}
	err := d.ioctl("DRM_IOCTL_XE_GEM_MMAP_OFFSET", IOCTL_XE_GEM_MMAP_OFFSET, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.Offset, nil
}

func (d *FileDevice) PrimeFDToHandle(fd int) (uint32, error) {
	args := primeHandle{FD: int32(fd)}
	err := d.ioctl("DRM_IOCTL_PRIME_FD_TO_HANDLE", IOCTL_PRIME_FD_TO_HANDLE, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.Handle, nil
}

func (d *FileDevice) VMCreate(flags VMCreateFlags) (uint32, error) {
	args := VMCreate{Flags: flags}
	err := d.ioctl("DRM_IOCTL_XE_VM_CREATE", IOCTL_XE_VM_CREATE, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.VMID, nil
}

func (d *FileDevice) VMDestroy(vmID uint32) error {
	args := VMDestroy{VMID: vmID}
	return d.ioctl("DRM_IOCTL_XE_VM_DESTROY", IOCTL_XE_VM_DESTROY, unsafe.Pointer(&args))
}

func syncsPointer(syncs []Sync) uint64 {
	if len(syncs) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&syncs[0])))
}

func (d *FileDevice) VMBind(vmID uint32, bind VMBindOp, syncs []Sync) error {
	args := VMBind{
		VMID:     vmID,
		NumBinds: 1,
		Bind:     bind,
		NumSyncs: uint32(len(syncs)),
		Syncs:    syncsPointer(syncs),
	}
	err := d.ioctl("DRM_IOCTL_XE_VM_BIND", IOCTL_XE_VM_BIND, unsafe.Pointer(&args))
	runtime.KeepAlive(syncs)

	return err
}

func (d *FileDevice) Exec(engineID uint32, address uint64, syncs []Sync) error {
	args := Exec{
		EngineID:       engineID,
		NumSyncs:       uint32(len(syncs)),
		Syncs:          syncsPointer(syncs),
		Address:        address,
		NumBatchBuffer: 1,
	}
	err := d.ioctl("DRM_IOCTL_XE_EXEC", IOCTL_XE_EXEC, unsafe.Pointer(&args))
	runtime.KeepAlive(syncs)

	return err
}

func (d *FileDevice) EngineGetProperty(engineID uint32, property EngineProperty) (uint64, error) {
	args := EngineGetProperty{
		EngineID: engineID,
		Property: property,
	}
	err := d.ioctl("DRM_IOCTL_XE_ENGINE_GET_PROPERTY", IOCTL_XE_ENGINE_GET_PROPERTY, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.Value, nil
}

func (d *FileDevice) SyncobjCreate(flags uint32) (uint32, error) {
	args := SyncobjCreate{Flags: flags}
	err := d.ioctl("DRM_IOCTL_SYNCOBJ_CREATE", IOCTL_SYNCOBJ_CREATE, unsafe.Pointer(&args))
	if err != nil {
		return 0, err
	}

	return args.Handle, nil
}

func (d *FileDevice) SyncobjWait(handles []uint32, timeoutNsec int64, flags uint32) error {
	if len(handles) == 0 {
		return nil
	}

	args := SyncobjWait{
		Handles:      uint64(uintptr(unsafe.Pointer(&handles[0]))),
		TimeoutNsec:  timeoutNsec,
		CountHandles: uint32(len(handles)),
		Flags:        flags,
	}
	err := d.ioctl("DRM_IOCTL_SYNCOBJ_WAIT", IOCTL_SYNCOBJ_WAIT, unsafe.Pointer(&args))
	runtime.KeepAlive(handles)

	return err
}

func (d *FileDevice) SyncobjDestroy(handle uint32) error {
	args := SyncobjDestroy{Handle: handle}
	return d.ioctl("DRM_IOCTL_SYNCOBJ_DESTROY", IOCTL_SYNCOBJ_DESTROY, unsafe.Pointer(&args))
}

func (d *FileDevice) Mmap(offset uint64, length int) ([]byte, error) {
	data, err := unix.Mmap(d.fd, int64(offset), length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap of %d bytes at offset %#x failed", length, offset)
	}

	return data, nil
}

func (d *FileDevice) Munmap(data []byte) error {
	return unix.Munmap(data)
}

func (d *FileDevice) Close() error {
	if d.fd < 0 {
		return nil
	}

	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

var _ Device = (*FileDevice)(nil)
