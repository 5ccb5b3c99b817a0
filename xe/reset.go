package xe

import (
	"log/slog"

	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/drm"
)

// CheckForReset reports a context as guilty once the kernel has banned its engine. An engine
// whose ban state cannot be read is assumed to be banned.
func (b *Backend) CheckForReset(batch kmd.Batch) kmd.ResetStatus {
	device := batch.Manager().Device()
	engineID := batch.EngineID()

	banned, err := device.EngineGetProperty(engineID, drm.EnginePropertyBan)
	if err != nil {
		kmd.Logger().Warn("xe: unable to query engine ban state",
			slog.Uint64("engine", uint64(engineID)),
			slog.Any("error", err),
		)
		return kmd.GuiltyContextReset
	}

	if banned != 0 {
		return kmd.GuiltyContextReset
	}

	return kmd.NoReset
}
