//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/batch"
)

func (p *probe) newResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Report whether an exec queue has been banned by the kernel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return p.runReset(cmd)
		},
	}

	cmd.Flags().Uint32("engine", 0, "exec queue id to query")
	_ = p.config.BindPFlag("reset.engine", cmd.Flags().Lookup("engine"))
	_ = cmd.MarkFlagRequired("engine")

	return cmd
}

func (p *probe) runReset(cmd *cobra.Command) error {
	manager, cleanup, err := p.openManager()
	if err != nil {
		return err
	}
	defer cleanup()

	commands, err := manager.Alloc("xeprobe-batch", 4096, []kmd.MemoryRegion{{}}, kmd.HeapSystemMemory, 0)
	if err != nil {
		return err
	}
	defer manager.Unreference(commands)

	queue := batch.New(manager, p.config.GetUint32("reset.engine"), commands)
	defer queue.Reset()

	fmt.Fprintln(cmd.OutOrStdout(), manager.Backend().CheckForReset(queue).String())
	return nil
}
