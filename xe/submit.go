package xe

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
)

// Submit executes the batch on its engine. The batch's reference on each of its buffers is
// dropped once the submission has been handed to the kernel, whether or not the kernel
// accepted it.
func (b *Backend) Submit(batch kmd.Batch) error {
	manager := batch.Manager()
	debug := manager.DebugFlags()
	logger := kmd.Logger()
	logger.Debug("xe::Submit", slog.Uint64("engine", uint64(batch.EngineID())))

	commandBuffer := batch.CommandBuffer()
	err := manager.Unmap(commandBuffer)
	if err != nil {
		logger.Warn("xe: unable to unmap command buffer before submission",
			slog.String("bo", commandBuffer.Name()),
			slog.Any("error", err),
		)
	}

	// Decoding may map and wait on buffers, so it has to happen outside the dependency lock
	if debug&kmd.DebugBatch != 0 {
		batch.Decode()
	}

	depsLock := manager.DepsLock()
	depsLock.Lock()

	batch.UpdateSyncObjects()

	fences := batch.Fences()
	var syncs []drm.Sync
	if len(fences) > 0 {
		syncs, err = b.syncAllocator.AllocateSyncs(len(fences))
		if err != nil {
			depsLock.Unlock()
			return errors.Mark(errors.Wrapf(err, "xe: unable to allocate %d sync descriptors", len(fences)), kmd.ErrOutOfMemory)
		}

		for i, fence := range fences {
			syncs[i] = drm.Sync{
				Flags:  drm.SyncSyncobj,
				Handle: fence.Handle,
			}
			if fence.Flags&kmd.FenceSignal != 0 {
				syncs[i].Flags |= drm.SyncSignal
			}
		}
	}

	if debug&(kmd.DebugBatch|kmd.DebugSubmit) != 0 {
		dumpFenceList(logger, fences)
		dumpBufferList(logger, batch)
	}

	var execErr error
	if !batch.NoHW() {
		execErr = manager.Device().Exec(batch.EngineID(), commandBuffer.Address(), syncs)
	}

	depsLock.Unlock()

	if syncs != nil {
		b.syncAllocator.FreeSyncs(syncs)
	}

	for _, bo := range batch.ExecBuffers() {
		bo.SetIdle(false)
		bo.SetIndex(kmd.IndexUnassigned)
		manager.BackingObject(bo).SetIdle(false)
		manager.Unreference(bo)
	}

	if execErr != nil {
		return errors.Wrapf(execErr, "xe: exec on engine %d", batch.EngineID())
	}

	return nil
}

func dumpFenceList(logger *slog.Logger, fences []kmd.Fence) {
	logger.Info("xe: fence list", slog.Int("count", len(fences)))
	for _, fence := range fences {
		wait := "-"
		if fence.Flags&kmd.FenceWait != 0 {
			wait = "W"
		}
		signal := "-"
		if fence.Flags&kmd.FenceSignal != 0 {
			signal = "S"
		}
		logger.Info("xe: fence",
			slog.Uint64("handle", uint64(fence.Handle)),
			slog.String("mode", wait+signal),
		)
	}
}

func dumpBufferList(logger *slog.Logger, batch kmd.Batch) {
	manager := batch.Manager()
	buffers := batch.ExecBuffers()

	logger.Info("xe: buffer list", slog.Int("count", len(buffers)))
	for i, bo := range buffers {
		backing := manager.BackingObject(bo)
		logger.Info("xe: buffer",
			slog.Int("index", i),
			slog.Uint64("handle", uint64(backing.GemHandle())),
			slog.String("name", bo.Name()),
			slog.String("address", formatAddress(bo.Address())),
			slog.Uint64("size", bo.Size()),
			slog.Int("refs", bo.References()),
		)
	}
}
