//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/bufmgr"
	"github.com/vkngwrapper/kmd/drm"
	_ "github.com/vkngwrapper/kmd/xe"
)

const defaultDevicePath = "/dev/dri/renderD128"

type probe struct {
	config *viper.Viper
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	p := &probe{config: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "xeprobe",
		Short: "Exercise the Xe kernel interface on a DRM render node",
		Long: `xeprobe opens a DRM render node driven by the Xe kernel driver and runs
buffer object operations against it through the same code paths a driver uses.

Settings may also be provided through XEPROBE_* environment variables. Debug
output is controlled by --debug or INTEL_DEBUG (bat, submit, bufmgr, all).`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			p.initLogging()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("device", defaultDevicePath, "DRM render node to open")
	flags.BoolP("verbose", "v", false, "log every kernel interface operation")
	flags.String("debug", "", "debug flags, overriding INTEL_DEBUG")
	flags.Uint32("vm", 0, "existing VM to bind into instead of creating one")

	_ = p.config.BindPFlag("device", flags.Lookup("device"))
	_ = p.config.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = p.config.BindPFlag("debug", flags.Lookup("debug"))
	_ = p.config.BindPFlag("vm", flags.Lookup("vm"))

	p.config.SetEnvPrefix("XEPROBE")
	p.config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	p.config.AutomaticEnv()

	rootCmd.AddCommand(
		p.newAllocCommand(),
		p.newResetCommand(),
		p.newGenerationsCommand(),
	)

	return rootCmd
}

func (p *probe) initLogging() {
	level := slog.LevelWarn
	if p.config.GetBool("verbose") {
		level = slog.LevelDebug
	}

	p.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	kmd.SetLogger(p.logger)
}

func (p *probe) debugFlags() kmd.DebugFlags {
	if value := p.config.GetString("debug"); value != "" {
		return kmd.ParseDebugFlags(value)
	}
	return kmd.DebugFlagsFromEnv()
}

// openManager opens the configured device and creates a buffer manager on it. The returned
// cleanup closes both.
func (p *probe) openManager() (*bufmgr.Manager, func(), error) {
	device, err := drm.Open(p.config.GetString("device"))
	if err != nil {
		return nil, nil, err
	}

	backend, err := kmd.Get(kmd.GenerationXe)
	if err != nil {
		_ = device.Close()
		return nil, nil, err
	}

	manager, err := bufmgr.New(p.logger, device, bufmgr.CreateOptions{
		VMID:    p.config.GetUint32("vm"),
		Debug:   p.debugFlags(),
		Backend: backend,
	})
	if err != nil {
		_ = device.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := manager.Close(); err != nil {
			p.logger.Error("unable to close buffer manager", slog.Any("error", err))
		}
		if err := device.Close(); err != nil {
			p.logger.Error("unable to close device", slog.Any("error", err))
		}
	}

	return manager, cleanup, nil
}

func (p *probe) newGenerationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generations",
		Short: "List the kernel-driver generations this build supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, generation := range kmd.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), generation.String())
			}
			return nil
		},
	}
}
