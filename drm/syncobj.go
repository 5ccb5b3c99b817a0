package drm

// SyncobjCreateSignaled creates the syncobj in the signaled state.
const SyncobjCreateSignaled uint32 = 1 << 0

// Syncobj wait flags, from include/uapi/drm/drm.h.
const (
	SyncobjWaitAll       uint32 = 1 << 0
	SyncobjWaitForSubmit uint32 = 1 << 1
	SyncobjWaitAvailable uint32 = 1 << 2
)

// SyncobjCreate is struct drm_syncobj_create.
type SyncobjCreate struct {
	Handle uint32
	Flags  uint32
}

// SyncobjDestroy is struct drm_syncobj_destroy.
type SyncobjDestroy struct {
	Handle uint32
	Pad    uint32
}

// SyncobjWait is struct drm_syncobj_wait.
type SyncobjWait struct {
	Handles       uint64
	TimeoutNsec   int64
	CountHandles  uint32
	Flags         uint32
	FirstSignaled uint32
	Pad           uint32
}

// gemClose is struct drm_gem_close.
type gemClose struct {
	Handle uint32
	Pad    uint32
}

// primeHandle is struct drm_prime_handle.
type primeHandle struct {
	Handle uint32
	Flags  uint32
	FD     int32
}
