package memutils

import "math"

// Statistics holds the basic counters a buffer manager keeps for its live buffer objects
type Statistics struct {
	ObjectCount int
	BoundCount  int
	MappedCount int
	ObjectBytes uint64
	BoundBytes  uint64
}

func (s *Statistics) Clear() {
	s.ObjectCount = 0
	s.BoundCount = 0
	s.MappedCount = 0
	s.ObjectBytes = 0
	s.BoundBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.ObjectCount += other.ObjectCount
	s.BoundCount += other.BoundCount
	s.MappedCount += other.MappedCount
	s.ObjectBytes += other.ObjectBytes
	s.BoundBytes += other.BoundBytes
}

// DetailedStatistics extends Statistics with size extremes for live objects and for the
// unused ranges of the GPU virtual address space
type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	ObjectSizeMin      uint64
	ObjectSizeMax      uint64
	UnusedRangeSizeMin uint64
	UnusedRangeSizeMax uint64
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.ObjectSizeMin = math.MaxUint64
	s.ObjectSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxUint64
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size uint64) {
	s.UnusedRangeCount++

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddObject(size uint64, bound, mapped bool) {
	s.ObjectCount++
	s.ObjectBytes += size

	if bound {
		s.BoundCount++
		s.BoundBytes += size
	}
	if mapped {
		s.MappedCount++
	}

	if size < s.ObjectSizeMin {
		s.ObjectSizeMin = size
	}

	if size > s.ObjectSizeMax {
		s.ObjectSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.ObjectSizeMin < s.ObjectSizeMin {
		s.ObjectSizeMin = other.ObjectSizeMin
	}

	if other.ObjectSizeMax > s.ObjectSizeMax {
		s.ObjectSizeMax = other.ObjectSizeMax
	}
}
