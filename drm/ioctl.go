package drm

import "unsafe"

// Linux generic ioctl request encoding, from include/uapi/asm-generic/ioctl.h.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

// From include/uapi/drm/drm.h:
const (
	ioctlBase   = 'd'
	commandBase = 0x40
)

func ioc(dir, nr, size uintptr) uintptr {
	return dir<<iocDirShift | size<<iocSizeShift | ioctlBase<<iocTypeShift | nr<<iocNRShift
}

func iow(nr, size uintptr) uintptr {
	return ioc(iocWrite, nr, size)
}

func iowr(nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, nr, size)
}

// Core DRM ioctl requests.
var (
	IOCTL_GEM_CLOSE          = iow(0x09, unsafe.Sizeof(gemClose{}))
	IOCTL_PRIME_FD_TO_HANDLE = iowr(0x2e, unsafe.Sizeof(primeHandle{}))
	IOCTL_SYNCOBJ_CREATE     = iowr(0xbf, unsafe.Sizeof(SyncobjCreate{}))
	IOCTL_SYNCOBJ_DESTROY    = iowr(0xc0, unsafe.Sizeof(SyncobjDestroy{}))
	IOCTL_SYNCOBJ_WAIT       = iowr(0xc3, unsafe.Sizeof(SyncobjWait{}))
)

// Xe ioctl command numbers, from include/uapi/drm/xe_drm.h.
const (
	xeDeviceQuery       = 0x00
	xeGemCreate         = 0x01
	xeGemMmapOffset     = 0x02
	xeVMCreate          = 0x03
	xeVMDestroy         = 0x04
	xeVMBind            = 0x05
	xeEngineCreate      = 0x06
	xeEngineGetProperty = 0x07
	xeEngineDestroy     = 0x08
	xeExec              = 0x09
)

// Xe ioctl requests.
var (
	IOCTL_XE_GEM_CREATE          = iowr(commandBase+xeGemCreate, unsafe.Sizeof(GemCreate{}))
	IOCTL_XE_GEM_MMAP_OFFSET     = iowr(commandBase+xeGemMmapOffset, unsafe.Sizeof(GemMmapOffset{}))
	IOCTL_XE_VM_CREATE           = iowr(commandBase+xeVMCreate, unsafe.Sizeof(VMCreate{}))
	IOCTL_XE_VM_DESTROY          = iow(commandBase+xeVMDestroy, unsafe.Sizeof(VMDestroy{}))
	IOCTL_XE_VM_BIND             = iow(commandBase+xeVMBind, unsafe.Sizeof(VMBind{}))
	IOCTL_XE_ENGINE_GET_PROPERTY = iowr(commandBase+xeEngineGetProperty, unsafe.Sizeof(EngineGetProperty{}))
	IOCTL_XE_EXEC                = iow(commandBase+xeExec, unsafe.Sizeof(Exec{}))
)
