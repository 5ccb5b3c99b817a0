package bufmgr

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kmd"
)

// Map returns a CPU mapping of the whole object. The mapping is created on first use and
// cached until Unmap or the object's release. Aliases map a window of their backing object
// and userptr objects return the memory they wrap.
func (m *Manager) Map(bo *kmd.BufferObject) ([]byte, error) {
	if backing := bo.Backing(); backing != nil {
		data, err := m.Map(backing)
		if err != nil {
			return nil, err
		}
		return data[bo.Offset() : bo.Offset()+bo.Size() : bo.Offset()+bo.Size()], nil
	}

	if bo.IsUserptr() {
		data := bo.Mapped()
		if data == nil {
			return nil, errors.Newf("%s has been released", bo)
		}
		return data, nil
	}

	return bo.EnsureMapped(func() ([]byte, error) {
		m.logger.Debug("Manager::Map", slog.String("bo", bo.Name()))
		return m.backend.GemMmap(m, bo)
	})
}

// Unmap drops the cached CPU mapping of bo, if any. Slices previously returned by Map must not
// be used afterwards. Aliases and userptr objects own no mapping of their own, so unmapping
// them does nothing.
func (m *Manager) Unmap(bo *kmd.BufferObject) error {
	if bo.Backing() != nil || bo.IsUserptr() {
		return nil
	}

	data := bo.SwapMapped(nil)
	if data == nil {
		return nil
	}

	m.logger.Debug("Manager::Unmap", slog.String("bo", bo.Name()))
	err := m.device.Munmap(data)
	if err != nil {
		return errors.Wrapf(err, "failed to unmap %s", bo)
	}

	return nil
}
