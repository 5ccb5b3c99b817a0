package drm

// GemCreateFlags are the placement and usage bits of GemCreate.Flags. The low bits carry one
// bit per memory region instance.
type GemCreateFlags uint32

// From include/uapi/drm/xe_drm.h:
const (
	GemCreateDeferBacking GemCreateFlags = 1 << 24
	GemCreateScanout      GemCreateFlags = 1 << 25
)

// GemCreate is struct drm_xe_gem_create.
type GemCreate struct {
	Extensions uint64
	Size       uint64
	Flags      GemCreateFlags
	VMID       uint32
	Handle     uint32
	Pad        uint32
	Reserved   [2]uint64
}

// GemMmapOffset is struct drm_xe_gem_mmap_offset.
type GemMmapOffset struct {
	Extensions uint64
	Handle     uint32
	Flags      uint32
	Offset     uint64
	Reserved   [2]uint64
}

type VMCreateFlags uint32

const (
	VMCreateScratchPage  VMCreateFlags = 1 << 0
	VMCreateComputeMode  VMCreateFlags = 1 << 1
	VMCreateAsyncBindOps VMCreateFlags = 1 << 2
	VMCreateFaultMode    VMCreateFlags = 1 << 3
)

// VMCreate is struct drm_xe_vm_create.
type VMCreate struct {
	Extensions uint64
	Flags      VMCreateFlags
	VMID       uint32
	Reserved   [2]uint64
}

// VMDestroy is struct drm_xe_vm_destroy.
type VMDestroy struct {
	VMID     uint32
	Pad      uint32
	Reserved [2]uint64
}

// BindOp is the operation code of a single VM bind.
type BindOp uint32

const (
	BindOpMap         BindOp = 0x0
	BindOpUnmap       BindOp = 0x1
	BindOpMapUserptr  BindOp = 0x2
	BindOpRestart     BindOp = 0x3
	BindOpUnmapAll    BindOp = 0x4
	BindOpPrefetch    BindOp = 0x5
	BindFlagReadOnly  BindOp = 1 << 16
	BindFlagAsync     BindOp = 1 << 17
	BindFlagImmediate BindOp = 1 << 18
	BindFlagNull      BindOp = 1 << 19
)

var bindOpMapping = make(map[BindOp]string)

func (o BindOp) String() string {
	str, ok := bindOpMapping[o&0xffff]
	if !ok {
		return "BindOpUnknown"
	}
	return str
}

func init() {
	bindOpMapping[BindOpMap] = "BindOpMap"
	bindOpMapping[BindOpUnmap] = "BindOpUnmap"
	bindOpMapping[BindOpMapUserptr] = "BindOpMapUserptr"
	bindOpMapping[BindOpRestart] = "BindOpRestart"
	bindOpMapping[BindOpUnmapAll] = "BindOpUnmapAll"
	bindOpMapping[BindOpPrefetch] = "BindOpPrefetch"
}

// VMBindOp is struct drm_xe_vm_bind_op. ObjOffset doubles as the userptr address for
// BindOpMapUserptr.
type VMBindOp struct {
	Obj       uint32
	Pad       uint32
	ObjOffset uint64
	Range     uint64
	Addr      uint64
	TileMask  uint64
	Op        BindOp
	Region    uint32
	Reserved  [2]uint64
}

// VMBind is struct drm_xe_vm_bind with a single inline bind.
type VMBind struct {
	Extensions uint64
	VMID       uint32
	EngineID   uint32
	NumBinds   uint32
	Pad        uint32
	Bind       VMBindOp
	NumSyncs   uint32
	Pad2       uint32
	Syncs      uint64
	Reserved   [2]uint64
}

type SyncFlags uint32

const (
	SyncSyncobj         SyncFlags = 0x0
	SyncTimelineSyncobj SyncFlags = 0x1
	SyncDMABuf          SyncFlags = 0x2
	SyncUserFence       SyncFlags = 0x3
	SyncSignal          SyncFlags = 0x10
)

// Sync is struct drm_xe_sync. Handle and Pad1 overlay the 64-bit user fence address.
type Sync struct {
	Extensions    uint64
	Flags         SyncFlags
	Pad           uint32
	Handle        uint32
	Pad1          uint32
	TimelineValue uint64
	Reserved      [2]uint64
}

// Exec is struct drm_xe_exec.
type Exec struct {
	Extensions     uint64
	EngineID       uint32
	NumSyncs       uint32
	Syncs          uint64
	Address        uint64
	NumBatchBuffer uint16
	Pad            [3]uint16
	Reserved       [2]uint64
}

type EngineProperty uint32

const (
	EnginePropertyBan EngineProperty = 0
)

// EngineGetProperty is struct drm_xe_engine_get_property.
type EngineGetProperty struct {
	Extensions uint64
	EngineID   uint32
	Property   EngineProperty
	Value      uint64
	Reserved   [2]uint64
}
