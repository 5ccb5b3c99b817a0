package xe

import (
	"log/slog"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
	"github.com/vkngwrapper/kmd/memutils"
)

// The kernel treats the maximum timeout as an unbounded wait
const bindWaitTimeout int64 = math.MaxInt64

func (b *Backend) VMBind(bo *kmd.BufferObject) error {
	return b.vmBindOp(bo, drm.BindOpMap)
}

func (b *Backend) VMUnbind(bo *kmd.BufferObject) error {
	return b.vmBindOp(bo, drm.BindOpUnmap)
}

// vmBindOp issues one bind and waits for it to land. The sync object signalled by the bind is
// always destroyed before returning, whatever the outcome.
func (b *Backend) vmBindOp(bo *kmd.BufferObject, op drm.BindOp) error {
	manager := bo.Manager()
	device := manager.Device()
	logger := kmd.Logger()
	logger.Debug("xe::VMBind", slog.String("bo", bo.Name()), slog.String("op", op.String()))

	syncobj, err := device.SyncobjCreate(0)
	if err != nil {
		logger.Error("xe: unable to create sync object for vm bind",
			slog.String("bo", bo.Name()),
			slog.Any("error", err),
		)
		return errors.Wrapf(err, "xe: %s of %s", op, bo)
	}
	defer func() {
		destroyErr := device.SyncobjDestroy(syncobj)
		if destroyErr != nil {
			logger.Error("xe: unable to destroy vm bind sync object",
				slog.Uint64("syncobj", uint64(syncobj)),
				slog.Any("error", destroyErr),
			)
		}
	}()

	handle := bo.GemHandle()
	if op == drm.BindOpUnmap {
		handle = 0
	}

	var objOffset uint64
	if bo.IsUserptr() {
		handle = 0
		objOffset = uint64(bo.UserptrAddress())
		if op == drm.BindOpMap {
			op = drm.BindOpMapUserptr
		}
	}

	bindRange := bo.Size()
	if !manager.IsImported(bo) {
		bindRange = memutils.AlignUp64(bindRange, manager.MemAlignment())
	}

	bind := drm.VMBindOp{
		Obj:       handle,
		ObjOffset: objOffset,
		Range:     bindRange,
		Addr:      memutils.Address48(bo.Address()),
		Op:        op,
	}
	syncs := []drm.Sync{
		{Flags: drm.SyncSyncobj | drm.SyncSignal, Handle: syncobj},
	}

	err = device.VMBind(manager.GlobalVMID(), bind, syncs)
	if err != nil {
		logger.Error("xe: vm bind failed",
			slog.String("bo", bo.Name()),
			slog.String("op", op.String()),
			slog.Uint64("address", bind.Addr),
			slog.Uint64("range", bind.Range),
			slog.Any("error", err),
		)
		return errors.Wrapf(err, "xe: %s of %s", op, bo)
	}

	// The bind already succeeded; a failed wait leaves it in place.
	err = device.SyncobjWait([]uint32{syncobj}, bindWaitTimeout, 0)
	if err != nil {
		logger.Error("xe: wait on vm bind sync object failed",
			slog.String("bo", bo.Name()),
			slog.Uint64("syncobj", uint64(syncobj)),
			slog.Any("error", err),
		)
	}

	return nil
}
