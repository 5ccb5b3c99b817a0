package kmd

// ResetStatus reports whether a hardware context has been lost and who is to blame
type ResetStatus int32

const (
	NoReset ResetStatus = iota
	// GuiltyContextReset means the context was lost because of work it submitted, or that its
	// health could not be determined
	GuiltyContextReset
	// InnocentContextReset means the context was lost because of another context's work
	InnocentContextReset
	// UnknownContextReset means the context was lost for an unknown reason
	UnknownContextReset
)

var resetStatusMapping = make(map[ResetStatus]string)

func (s ResetStatus) String() string {
	return resetStatusMapping[s]
}

func init() {
	resetStatusMapping[NoReset] = "NoReset"
	resetStatusMapping[GuiltyContextReset] = "GuiltyContextReset"
	resetStatusMapping[InnocentContextReset] = "InnocentContextReset"
	resetStatusMapping[UnknownContextReset] = "UnknownContextReset"
}

// Madvice is the purgeability hint passed to Backend.Madvise
type Madvice int32

const (
	MadviceWillNeed Madvice = iota
	MadviceDontNeed
)

var madviceMapping = make(map[Madvice]string)

func (m Madvice) String() string {
	return madviceMapping[m]
}

func init() {
	madviceMapping[MadviceWillNeed] = "MadviceWillNeed"
	madviceMapping[MadviceDontNeed] = "MadviceDontNeed"
}

// Generation identifies a kernel-driver generation
type Generation int32

const (
	// GenerationI915 is the implicit-binding generation
	GenerationI915 Generation = iota
	// GenerationXe is the explicit VM-bind generation
	GenerationXe
)

var generationMapping = make(map[Generation]string)

func (g Generation) String() string {
	return generationMapping[g]
}

func init() {
	generationMapping[GenerationI915] = "i915"
	generationMapping[GenerationXe] = "xe"
}
