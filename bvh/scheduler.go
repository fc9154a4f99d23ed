package bvh

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/google/uuid"
)

const (
	minPollDelay = 20 * time.Microsecond
	maxPollDelay = 2 * time.Millisecond
)

// The scheduler drives a single build. Workers share a stack of coarse split
// requests and drain their own local stacks depth-first. Node slots and leaf
// output ranges are claimed with atomic counters so workers never touch the
// same slot.
type scheduler struct {
	logger log.Logger
	opts   Options

	bounds    []Aabb
	centroids []types.Vec3

	// Working permutation. Each request owns a disjoint range.
	perm []uint32

	nodes       []Node
	nodeCount   atomic.Uint32
	packed      []uint32
	packedCount atomic.Uint32
	leafCount   atomic.Uint32
	height      atomic.Int32

	// Number of primitives placed in leaves; the build completes when it
	// reaches len(bounds).
	processed atomic.Int64

	mu       sync.Mutex
	cond     *sync.Cond
	shared   []splitRequest
	shutdown bool
}

func newScheduler(bounds []Aabb, opts Options) *scheduler {
	numPrims := len(bounds)
	s := &scheduler{
		logger:    log.New(fmt.Sprintf("bvh builder %s", uuid.New().String()[:8])),
		opts:      opts,
		bounds:    bounds,
		centroids: make([]types.Vec3, numPrims),
		perm:      make([]uint32, numPrims),
		nodes:     make([]Node, 2*numPrims-1),
		packed:    make([]uint32, numPrims),
	}
	s.cond = sync.NewCond(&s.mu)

	for i, b := range bounds {
		s.centroids[i] = b.Center()
		s.perm[i] = uint32(i)
	}
	return s
}

// Run the build to completion and assemble the tree.
func (s *scheduler) run() *Tree {
	root := splitRequest{
		num:         uint32(len(s.bounds)),
		node:        s.allocNodes(1),
		bounds:      EmptyAabb(),
		centroidBox: EmptyAabb(),
		index:       1,
	}
	for i, b := range s.bounds {
		root.bounds = root.bounds.Grow(b)
		root.centroidBox = root.centroidBox.GrowPoint(s.centroids[i])
	}
	s.shared = append(s.shared, root)

	numWorkers := s.opts.workerCount()
	s.logger.Debugf("starting %d workers for %d primitives", numWorkers, len(s.bounds))
	for i := 0; i < numWorkers; i++ {
		go s.worker()
	}

	s.waitForCompletion()

	nodeCount := s.nodeCount.Load()
	return &Tree{
		Nodes:       s.nodes[:nodeCount],
		PrimIndices: s.packed,
		Bounds:      root.bounds,
		Height:      int(s.height.Load()),
		Stats: Stats{
			Primitives: len(s.bounds),
			Nodes:      int(nodeCount),
			Leaves:     int(s.leafCount.Load()),
			Height:     int(s.height.Load()),
			Workers:    numWorkers,
			UseSAH:     s.opts.UseSAH,
		},
	}
}

// Poll the processed primitive counter with backoff and release the
// workers once every primitive has been placed in a leaf.
func (s *scheduler) waitForCompletion() {
	total := int64(len(s.bounds))
	delay := minPollDelay
	for s.processed.Load() < total {
		time.Sleep(delay)
		if delay < maxPollDelay {
			delay *= 2
		}
	}

	s.mu.Lock()
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *scheduler) worker() {
	var local []splitRequest
	for {
		s.mu.Lock()
		for len(s.shared) == 0 && !s.shutdown {
			s.cond.Wait()
		}
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		req := s.shared[len(s.shared)-1]
		s.shared = s.shared[:len(s.shared)-1]
		s.mu.Unlock()

		local = append(local[:0], req)
		for len(local) > 0 {
			req = local[len(local)-1]
			local = local[:len(local)-1]

			left, right, split := s.process(req)
			if !split {
				continue
			}

			if right.num > uint32(s.opts.SplitThreshold) {
				s.submit(right)
			} else {
				local = append(local, right)
			}
			local = append(local, left)
		}
	}
}

// Push a request to the shared stack and wake up one worker.
func (s *scheduler) submit(req splitRequest) {
	s.mu.Lock()
	s.shared = append(s.shared, req)
	s.mu.Unlock()
	s.cond.Signal()
}

// Reserve count consecutive node slots and return the first one.
func (s *scheduler) allocNodes(count uint32) uint32 {
	next := s.nodeCount.Add(count)
	if int(next) > len(s.nodes) {
		panic(fmt.Sprintf("bvh: node allocation overflow; %d nodes exceed capacity %d", next, len(s.nodes)))
	}
	return next - count
}

func (s *scheduler) trackLevel(level int) {
	for {
		cur := s.height.Load()
		if int32(level) <= cur || s.height.CompareAndSwap(cur, int32(level)) {
			return
		}
	}
}
