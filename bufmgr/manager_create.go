package bufmgr

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/internal/vma"
	"github.com/vkngwrapper/kmd/memutils"
	"github.com/vkngwrapper/kmd/xe"
)

// CreateFlags indicate specific manager behaviors to activate or deactivate
type CreateFlags int32

var managerCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	managerCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return managerCreateFlagsMapping.FlagsToString(f)
}

const (
	// CreateExternallySynchronized ensures that this manager and all objects created from it
	// will not be synchronized internally, including the dependency lock handed to backends.
	// The consumer must guarantee they are used from only one thread at a time.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
}

const (
	defaultMemAlignment      uint64 = 4096
	defaultAddressSpaceStart uint64 = 1 << 20
	defaultAddressSpaceSize  uint64 = 1<<48 - defaultAddressSpaceStart
)

// CreateOptions contains optional settings when creating a Manager
type CreateOptions struct {
	// Flags indicates specific manager behaviors to activate or deactivate
	Flags CreateFlags
	// MemAlignment is the device's memory alignment. It must be a power of two and defaults
	// to 4096.
	MemAlignment uint64

	// VMID is an existing GPU address space to bind objects into. When it is 0, the manager
	// creates its own VM with VMFlags and destroys it on Close.
	VMID uint32
	// VMFlags are used when creating a VM. Zero selects drm.VMCreateScratchPage.
	VMFlags drm.VMCreateFlags

	// AddressSpaceStart and AddressSpaceSize delimit the GPU virtual addresses handed out to
	// objects. They default to everything from 1MiB up to the top of the 48-bit address space.
	AddressSpaceStart uint64
	AddressSpaceSize  uint64

	Debug kmd.DebugFlags

	// Backend is the kernel-driver operation table. It defaults to the Xe backend.
	Backend kmd.Backend
}

// New creates a new Manager
//
// logger - Destination for the manager's logging. If nil, kmd.Logger() is used.
//
// device - The DRM device all objects are created on
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, device drm.Device, options CreateOptions) (*Manager, error) {
	if logger == nil {
		logger = kmd.Logger()
	}
	useMutex := options.Flags&CreateExternallySynchronized == 0

	manager := &Manager{
		logger:       logger,
		device:       device,
		backend:      options.Backend,
		memAlignment: options.MemAlignment,
		vmID:         options.VMID,
		debug:        options.Debug,
		createFlags:  options.Flags,

		objects: swiss.NewMap[*kmd.BufferObject, struct{}](42),
		handles: swiss.NewMap[uint32, *kmd.BufferObject](42),
		zombies: swiss.NewMap[*kmd.BufferObject, struct{}](42),
		pending: swiss.NewMap[uint32, chan struct{}](42),
	}
	manager.mutex.UseMutex = useMutex
	manager.depsLock.UseMutex = useMutex

	if manager.backend == nil {
		manager.backend = xe.Get()
	}

	if manager.memAlignment == 0 {
		manager.memAlignment = defaultMemAlignment
	}
	err := memutils.CheckPow2(manager.memAlignment, "CreateOptions.MemAlignment")
	if err != nil {
		return nil, err
	}

	start := options.AddressSpaceStart
	size := options.AddressSpaceSize
	if start == 0 && size == 0 {
		start = defaultAddressSpaceStart
		size = defaultAddressSpaceSize
	}
	if size == 0 || start+size > 1<<48 || start+size < start {
		return nil, errors.Newf("address space [%#x, %#x) does not fit in 48 bits", start, start+size)
	}
	manager.heap = vma.New(start, size)

	if manager.vmID == 0 {
		vmFlags := options.VMFlags
		if vmFlags == 0 {
			vmFlags = drm.VMCreateScratchPage
		}

		manager.vmID, err = device.VMCreate(vmFlags)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create the global VM")
		}
		manager.ownsVM = true
	}

	logger.Debug("Manager::New",
		slog.Uint64("vm", uint64(manager.vmID)),
		slog.Bool("ownsVM", manager.ownsVM),
		slog.String("generation", manager.backend.Generation().String()),
		slog.String("flags", options.Flags.String()),
	)

	return manager, nil
}
