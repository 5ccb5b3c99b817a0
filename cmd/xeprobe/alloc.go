//go:build linux

package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/bufmgr"
)

func (p *probe) newAllocCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate, bind and optionally map buffer objects, then print statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return p.runAlloc(cmd)
		},
	}

	flags := cmd.Flags()
	flags.Uint64("size", 1<<20, "size of each buffer object in bytes")
	flags.Int("count", 4, "number of buffer objects to allocate")
	flags.Uint16("region", 0, "memory region instance to place the objects in")
	flags.Bool("map", false, "map each object and fill it with a pattern")
	flags.Bool("userptr", false, "also wrap a buffer of process memory")
	flags.Bool("detailed", false, "list every object in the statistics")

	for _, name := range []string{"size", "count", "region", "map", "userptr", "detailed"} {
		_ = p.config.BindPFlag("alloc."+name, flags.Lookup(name))
	}

	return cmd
}

func (p *probe) runAlloc(cmd *cobra.Command) error {
	count := p.config.GetInt("alloc.count")
	if count <= 0 {
		return errors.Newf("count must be positive, got %d", count)
	}

	manager, cleanup, err := p.openManager()
	if err != nil {
		return err
	}
	defer cleanup()

	regions := []kmd.MemoryRegion{{Instance: uint16(p.config.GetUint("alloc.region"))}}
	size := p.config.GetUint64("alloc.size")

	objects := make([]*kmd.BufferObject, 0, count+1)
	defer func() {
		for _, bo := range objects {
			manager.Unreference(bo)
		}
	}()

	for i := 0; i < count; i++ {
		bo, err := manager.Alloc("xeprobe", size, regions, kmd.HeapSystemMemory, 0)
		if err != nil {
			return errors.Wrapf(err, "allocation %d of %d failed", i+1, count)
		}
		objects = append(objects, bo)

		if p.config.GetBool("alloc.map") {
			err = fill(manager, bo, byte(i))
			if err != nil {
				return err
			}
		}
	}

	if p.config.GetBool("alloc.userptr") {
		bo, err := manager.AllocUserptr("xeprobe-userptr", make([]byte, size))
		if err != nil {
			return err
		}
		objects = append(objects, bo)
	}

	err = manager.Validate()
	if err != nil {
		return err
	}

	writer := jwriter.NewWriter()
	manager.BuildStatsString(&writer, p.config.GetBool("alloc.detailed"))
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(writer.Bytes()))
	return nil
}

func fill(manager *bufmgr.Manager, bo *kmd.BufferObject, pattern byte) error {
	data, err := manager.Map(bo)
	if err != nil {
		return err
	}

	for i := range data {
		data[i] = pattern
	}
	return nil
}
