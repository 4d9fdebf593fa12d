package descriptors

import (
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Statistics is a point-in-time summary of an allocator's pools
type Statistics struct {
	PoolCount      int
	ReadyPoolCount int
	FullPoolCount  int
	// SetCapacity is the sum of the set capacity of every live pool
	SetCapacity int
	// SetCount is the number of sets handed out since the last ClearPools
	SetCount int
	// GrowthCount is the number of times the sets-per-pool baseline has grown since Init
	GrowthCount int
}

func (s *Statistics) Clear() {
	s.PoolCount = 0
	s.ReadyPoolCount = 0
	s.FullPoolCount = 0
	s.SetCapacity = 0
	s.SetCount = 0
	s.GrowthCount = 0
}

// Statistics populates stats with the allocator's current state
func (a *GrowableAllocator[L, S]) Statistics(stats *Statistics) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	stats.Clear()
	stats.ReadyPoolCount = len(a.ready)
	stats.FullPoolCount = len(a.full)
	stats.GrowthCount = a.growthCount

	a.pools.Iter(func(id int, pool *descriptorPool[L, S]) bool {
		stats.PoolCount++
		stats.SetCapacity += pool.maxSets
		stats.SetCount += pool.allocations
		return false
	})
}

// BuildStatsString produces a JSON document describing the allocator. When detailed is true, the
// document includes a map of every pool keyed by its id.
func (a *GrowableAllocator[L, S]) BuildStatsString(detailed bool) string {
	var stats Statistics
	a.Statistics(&stats)

	a.mutex.RLock()
	defer a.mutex.RUnlock()

	writer := jwriter.NewWriter()
	json := writer.Object()

	json.Name("ID").String(a.id.String())
	json.Name("Name").String(a.name)
	json.Name("Initialized").Bool(a.initialized)
	json.Name("SetsPerPool").Int(a.setsPerPool)
	json.Name("MaxSetsPerPool").Int(a.maxSetsPerPool)

	ratios := json.Name("Ratios").Array()
	for _, ratio := range a.ratios {
		ratioObj := ratios.Object()
		ratioObj.Name("Type").String(ratio.Type.String())
		ratioObj.Name("Ratio").Float64(float64(ratio.Ratio))
		ratioObj.End()
	}
	ratios.End()

	total := json.Name("Total").Object()
	total.Name("Pools").Int(stats.PoolCount)
	total.Name("ReadyPools").Int(stats.ReadyPoolCount)
	total.Name("FullPools").Int(stats.FullPoolCount)
	total.Name("SetCapacity").Int(stats.SetCapacity)
	total.Name("Sets").Int(stats.SetCount)
	total.Name("Growths").Int(stats.GrowthCount)
	total.Name("LifetimeSets").Int(a.totalAllocations)
	total.End()

	if detailed {
		a.printDetailedMap(&json)
	}

	json.End()
	return string(writer.Bytes())
}

func (a *GrowableAllocator[L, S]) printDetailedMap(json *jwriter.ObjectState) {
	pools := json.Name("Pools").Object()
	defer pools.End()

	printPool := func(pool *descriptorPool[L, S]) {
		poolObj := pools.Name(strconv.Itoa(pool.id)).Object()
		pool.printParameters(&poolObj)
		poolObj.End()
	}

	for _, pool := range a.ready {
		printPool(pool)
	}

	for _, pool := range a.full {
		printPool(pool)
	}
}
