// Package batch records the buffer objects and cross-batch fences of one command submission.
package batch

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
)

// Batch is a command buffer plus every buffer object its commands reference. It implements
// kmd.Batch. A Batch is not safe for concurrent use.
type Batch struct {
	manager  kmd.BufferManager
	engineID uint32
	buffers  []*kmd.BufferObject
	fences   []kmd.Fence
	signal   uint32
	decoder  func(*Batch)
	noHW     bool

	// replaced holds the dependency fences UpdateSyncObjects overwrote, so Reset can restore
	// them if the batch is never submitted
	replaced []replacedFence
}

type replacedFence struct {
	bo    *kmd.BufferObject
	fence uint32
}

var _ kmd.Batch = (*Batch)(nil)

// New creates a batch executing commandBuffer on engineID. The command buffer is recorded as
// the batch's first buffer and the batch takes a reference on it.
func New(manager kmd.BufferManager, engineID uint32, commandBuffer *kmd.BufferObject) *Batch {
	batch := &Batch{
		manager:  manager,
		engineID: engineID,
	}
	batch.AddBuffer(commandBuffer)

	return batch
}

func (b *Batch) Manager() kmd.BufferManager {
	return b.manager
}

func (b *Batch) EngineID() uint32 {
	return b.engineID
}

func (b *Batch) CommandBuffer() *kmd.BufferObject {
	if len(b.buffers) == 0 {
		panic(errors.AssertionFailedf("batch for engine %d has no command buffer", b.engineID))
	}
	return b.buffers[0]
}

func (b *Batch) ExecBuffers() []*kmd.BufferObject {
	return b.buffers
}

func (b *Batch) Fences() []kmd.Fence {
	return b.fences
}

func (b *Batch) NoHW() bool {
	return b.noHW
}

// SetNoHW skips the hardware execution of this batch while keeping every other submission
// step
func (b *Batch) SetNoHW(noHW bool) {
	b.noHW = noHW
}

// SetDecoder installs the hook Decode runs when batch decoding is enabled
func (b *Batch) SetDecoder(decoder func(*Batch)) {
	b.decoder = decoder
}

func (b *Batch) Decode() {
	if b.decoder != nil {
		b.decoder(b)
	}
}

// AddBuffer records bo in the batch and returns its batch-local index. Adding a buffer that is
// already recorded returns its existing index; otherwise the batch takes a reference on it.
func (b *Batch) AddBuffer(bo *kmd.BufferObject) int {
	index := bo.Index()
	if index >= 0 && index < len(b.buffers) && b.buffers[index] == bo {
		return index
	}

	// The object may carry the index of another batch it is recorded in
	for i, recorded := range b.buffers {
		if recorded == bo {
			bo.SetIndex(i)
			return i
		}
	}

	bo.Reference()
	index = len(b.buffers)
	bo.SetIndex(index)
	b.buffers = append(b.buffers, bo)

	return index
}

// AddFence attaches a sync object to the batch. Adding a handle twice merges the flags.
func (b *Batch) AddFence(handle uint32, flags kmd.FenceFlags) {
	for i := range b.fences {
		if b.fences[i].Handle == handle {
			b.fences[i].Flags |= flags
			return
		}
	}

	b.fences = append(b.fences, kmd.Fence{Handle: handle, Flags: flags})
}

// SetSignal sets the sync object the batch signals on completion. Later batches using any of
// this batch's buffers wait on it.
func (b *Batch) SetSignal(handle uint32) {
	b.signal = handle
	b.AddFence(handle, kmd.FenceSignal)
}

func (b *Batch) Signal() uint32 {
	return b.signal
}

// UpdateSyncObjects makes the batch wait on the last signal recorded for each of its buffers
// and records its own signal in their place. It must be called with the manager's dependency
// lock held.
func (b *Batch) UpdateSyncObjects() {
	for _, bo := range b.buffers {
		backing := b.manager.BackingObject(bo)

		dependency := backing.DependencyFence()
		if dependency != 0 && dependency != b.signal {
			b.AddFence(dependency, kmd.FenceWait)
		}

		if b.signal != 0 && dependency != b.signal {
			b.replaced = append(b.replaced, replacedFence{bo: backing, fence: dependency})
			backing.SetDependencyFence(b.signal)
		}
	}
}

// Submit hands the batch to backend. Once the backend has taken over the batch's buffer
// references the batch is emptied and may not be submitted again.
//
// If the submission could not be prepared (kmd.ErrOutOfMemory), the batch is left intact and
// still holds its references, but its buffers already name the batch's signal as their
// dependency fence. The caller must either submit the batch again or Reset it, which puts the
// previous fences back.
func (b *Batch) Submit(backend kmd.Backend) error {
	err := backend.Submit(b)
	if errors.Is(err, kmd.ErrOutOfMemory) {
		return err
	}

	b.buffers = nil
	b.fences = nil
	b.signal = 0
	b.replaced = nil

	return err
}

// Reset drops every buffer and fence recorded in the batch, releasing the batch's references.
// Dependency fences still naming the batch's unsubmitted signal are restored.
func (b *Batch) Reset() {
	if len(b.replaced) > 0 {
		lock := b.manager.DepsLock()
		lock.Lock()
		for i := len(b.replaced) - 1; i >= 0; i-- {
			replaced := b.replaced[i]
			if replaced.bo.DependencyFence() == b.signal {
				replaced.bo.SetDependencyFence(replaced.fence)
			}
		}
		lock.Unlock()
	}

	for _, bo := range b.buffers {
		bo.SetIndex(kmd.IndexUnassigned)
		b.manager.Unreference(bo)
	}

	b.buffers = nil
	b.fences = nil
	b.signal = 0
	b.replaced = nil
}
