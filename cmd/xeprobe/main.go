//go:build linux

// Command xeprobe exercises the Xe kernel interface on a DRM render node: it creates a VM,
// allocates, binds and maps buffer objects, and reports the buffer manager's state as JSON.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
