package kmd

import (
	"os"
	"strings"

	"github.com/vkngwrapper/core/v2/common"
)

// DebugFlags turn on diagnostic behavior in the backends
type DebugFlags uint32

var debugFlagsMapping = common.NewFlagStringMapping[DebugFlags]()

func (f DebugFlags) Register(str string) {
	debugFlagsMapping.Register(f, str)
}
func (f DebugFlags) String() string {
	return debugFlagsMapping.FlagsToString(f)
}

const (
	// DebugBatch decodes each batch before it is submitted and dumps its fences and buffers
	DebugBatch DebugFlags = 1 << iota
	// DebugSubmit dumps the fences and buffers of each batch as it is submitted
	DebugSubmit
	// DebugBufmgr logs buffer manager activity
	DebugBufmgr

	DebugAll = DebugBatch | DebugSubmit | DebugBufmgr
)

func init() {
	DebugBatch.Register("DebugBatch")
	DebugSubmit.Register("DebugSubmit")
	DebugBufmgr.Register("DebugBufmgr")
}

// DebugEnvironmentVariable is read by DebugFlagsFromEnv
const DebugEnvironmentVariable = "INTEL_DEBUG"

var debugFlagNames = map[string]DebugFlags{
	"bat":    DebugBatch,
	"submit": DebugSubmit,
	"bufmgr": DebugBufmgr,
	"all":    DebugAll,
}

// ParseDebugFlags parses a comma-, colon- or space-separated list of debug flag names.
// Unknown names are ignored.
func ParseDebugFlags(value string) DebugFlags {
	var flags DebugFlags

	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ':' || r == ' ' || r == '\t'
	})
	for _, field := range fields {
		flags |= debugFlagNames[strings.ToLower(field)]
	}

	return flags
}

// DebugFlagsFromEnv parses the INTEL_DEBUG environment variable
func DebugFlagsFromEnv() DebugFlags {
	return ParseDebugFlags(os.Getenv(DebugEnvironmentVariable))
}
