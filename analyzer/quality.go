package analyzer

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/polaris-bvh/log"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/time/rate"
)

// Number of rays a worker traces before reporting progress.
const rayChunkSize = 1024

// Aggregate tree quality figures. When IsValid is false every other field
// is zero.
type QualityStats struct {
	IsValid bool
	SAH     float32

	Rays int
	Hits int

	AvgNodeTests     float32
	AvgAabbTests     float32
	AvgLeafTests     float32
	AvgTriangleTests float32
}

// The outcome of a quality check. Hits and Traversal hold one entry per ray.
type QualityResult struct {
	Stats     QualityStats
	Hits      []Hit
	Traversal []TraversalStats
}

// Validate the tree, estimate its SAH cost and trace rays against it using
// the given number of workers.
func (t *Tree) CheckQuality(rays []Ray, query QueryType, workers int) *QualityResult {
	logger := log.New("analyzer")
	res := &QualityResult{}

	start := time.Now()
	res.Stats.IsValid = t.IsValid()
	if !res.Stats.IsValid {
		logger.Warning("tree failed validation")
		return res
	}
	res.Stats.SAH = t.CalculateSAH(1, 1)
	res.Stats.Rays = len(rays)
	if len(rays) == 0 {
		return res
	}
	if workers < 1 {
		workers = 1
	}

	res.Hits = make([]Hit, len(rays))
	res.Traversal = make([]TraversalStats, len(rays))

	var (
		overall  TraversalStats
		hitCount int
		mu       sync.Mutex
		wg       sync.WaitGroup
		next     atomic.Int64
		traced   atomic.Int64
	)
	progress := rate.NewLimiter(rate.Every(time.Second), 1)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var local TraversalStats
			localHits := 0
			for {
				from := int(next.Add(rayChunkSize)) - rayChunkSize
				if from >= len(rays) {
					break
				}
				to := from + rayChunkSize
				if to > len(rays) {
					to = len(rays)
				}

				for i := from; i < to; i++ {
					res.Hits[i] = t.Intersect(rays[i], query, &res.Traversal[i])
					local.Add(res.Traversal[i])
					if res.Hits[i].IsHit() {
						localHits++
					}
				}

				done := traced.Add(int64(to - from))
				if progress.Allow() {
					logger.Infof("traced %d/%d rays", done, len(rays))
				}
			}

			mu.Lock()
			overall.Add(local)
			hitCount += localHits
			mu.Unlock()
		}()
	}
	wg.Wait()

	n := float32(len(rays))
	res.Stats.Hits = hitCount
	res.Stats.AvgNodeTests = float32(overall.InternalNodeTests) / n
	res.Stats.AvgAabbTests = float32(overall.AabbTests) / n
	res.Stats.AvgLeafTests = float32(overall.LeafTests) / n
	res.Stats.AvgTriangleTests = float32(overall.TriangleTests) / n

	logger.Infof("traced %d rays in %d ms", len(rays), time.Since(start).Nanoseconds()/1e6)
	return res
}

// Render the statistics as a table.
func (s QualityStats) String() string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"is_valid", fmt.Sprint(s.IsValid)})
	table.Append([]string{"sah", fmt.Sprintf("%.4f", s.SAH)})
	table.Append([]string{"rays", fmt.Sprint(s.Rays)})
	table.Append([]string{"hits", fmt.Sprint(s.Hits)})
	table.Append([]string{"avg_primary_node_tests", fmt.Sprintf("%.4f", s.AvgNodeTests)})
	table.Append([]string{"avg_primary_aabb_tests", fmt.Sprintf("%.4f", s.AvgAabbTests)})
	table.Append([]string{"avg_primary_leaf_tests", fmt.Sprintf("%.4f", s.AvgLeafTests)})
	table.Append([]string{"avg_primary_triangle_tests", fmt.Sprintf("%.4f", s.AvgTriangleTests)})
	table.Render()
	return buf.String()
}
