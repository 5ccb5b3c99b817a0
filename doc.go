// Package kmd is the kernel-interface layer of a GPU command-submission stack. It describes
// the operations a kernel-driver generation must provide (Backend) to create, map, bind and
// submit buffer objects, together with the collaborator interfaces it consumes from the
// buffer manager (BufferManager) and from command batches (Batch).
//
// Backends register themselves per Generation and are selected once for the lifetime of the
// process:
//
//	import _ "github.com/vkngwrapper/kmd/xe"
//
//	backend := kmd.MustGet(kmd.GenerationXe)
//
// A generation that has no equivalent for an operation still implements it, failing fast,
// so that callers see the same operation surface regardless of the kernel underneath.
package kmd
