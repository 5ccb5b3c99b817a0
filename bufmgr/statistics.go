package bufmgr

import (
	"fmt"
	"sort"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kmd"
	"github.com/vkngwrapper/kmd/memutils"
)

// CalculateStatistics fills stats with the manager's live objects and the unused ranges of its
// GPU address space. Aliases are not counted as objects of their own.
func (m *Manager) CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	m.objects.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		if bo.Backing() == nil {
			stats.AddObject(bo.Size(), bo.Bound(), bo.Mapped() != nil)
		}
		return false
	})

	m.heap.VisitHoles(func(_, size uint64) bool {
		stats.AddUnusedRange(size)
		return true
	})
}

func printStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("Objects").Int(stats.ObjectCount)
	json.Name("Bound").Int(stats.BoundCount)
	json.Name("Mapped").Int(stats.MappedCount)
	json.Name("ObjectBytes").Float64(float64(stats.ObjectBytes))
	json.Name("BoundBytes").Float64(float64(stats.BoundBytes))
	json.Name("UnusedRanges").Int(stats.UnusedRangeCount)

	if stats.ObjectCount > 0 {
		json.Name("ObjectSizeMin").Float64(float64(stats.ObjectSizeMin))
		json.Name("ObjectSizeMax").Float64(float64(stats.ObjectSizeMax))
	}
	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Float64(float64(stats.UnusedRangeSizeMin))
		json.Name("UnusedRangeSizeMax").Float64(float64(stats.UnusedRangeSizeMax))
	}
}

func printParameters(json *jwriter.ObjectState, bo *kmd.BufferObject) {
	json.Name("Name").String(bo.Name())
	json.Name("Handle").Int(int(bo.GemHandle()))
	json.Name("Size").Float64(float64(bo.Size()))
	json.Name("Address").String(fmt.Sprintf("%#016x", bo.Address()))
	json.Name("Heap").String(bo.Heap().String())
	json.Name("References").Int(bo.References())

	if bo.Flags() != 0 {
		json.Name("Flags").String(bo.Flags().String())
	}
	if bo.Imported() {
		json.Name("Imported").Bool(true)
	}
	if backing := bo.Backing(); backing != nil {
		json.Name("Backing").String(backing.Name())
		json.Name("Offset").Float64(float64(bo.Offset()))
	}
}

// BuildStatsString writes a JSON object describing the manager: its totals and, if
// detailedMap is set, every live object ordered by GPU address.
func (m *Manager) BuildStatsString(writer *jwriter.Writer, detailedMap bool) {
	var stats memutils.DetailedStatistics
	m.CalculateStatistics(&stats)

	root := writer.Object()
	defer root.End()

	root.Name("Generation").String(m.backend.Generation().String())
	root.Name("VM").Int(int(m.vmID))

	total := root.Name("Total").Object()
	printStatistics(&total, &stats)
	total.End()

	if !detailedMap {
		return
	}

	m.mutex.RLock()
	var live []*kmd.BufferObject
	m.objects.Iter(func(bo *kmd.BufferObject, _ struct{}) bool {
		live = append(live, bo)
		return false
	})
	m.mutex.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		if live[i].Address() != live[j].Address() {
			return live[i].Address() < live[j].Address()
		}
		return live[i].Size() > live[j].Size()
	})

	objects := root.Name("Objects").Array()
	for _, bo := range live {
		o := objects.Object()
		printParameters(&o, bo)
		o.End()
	}
	objects.End()
}

// StatsString returns the output of BuildStatsString as a string
func (m *Manager) StatsString(detailedMap bool) string {
	writer := jwriter.NewWriter()
	m.BuildStatsString(&writer, detailedMap)
	return string(writer.Bytes())
}
