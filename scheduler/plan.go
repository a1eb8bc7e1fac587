// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package scheduler implements the multi-trie job scheduler described
// in spec.md section 4.4: it partitions a sorted, padded bag of
// records into blocks, builds one trie and one k-mer lookup bitmap per
// block, and runs the diagonal all-pairs-block schedule under a
// bounded worker budget.
package scheduler

import (
	"github.com/kshedden/seqcluster/kmerfilter"
	"github.com/kshedden/seqcluster/model"
	"github.com/kshedden/seqcluster/trie"
)

// trieFlag is a trie's scheduling status (spec.md section 4.4, "Trie
// slot status").
type trieFlag int

const (
	flagFree trieFlag = iota
	flagBusy
	flagDone
)

// job is one plan item: spec.md section 3, "Job".
type job struct {
	// queryBlock is the index of the block to query against trie.
	queryBlock int

	// build is true for the one job per trie (j==0) that also
	// inserts queryBlock into trie and lookup before searching it.
	build bool
}

// partition is one trie's full state: its owning block, its trie and
// lookup bitmap (built lazily by the build job), and its job list.
type partition struct {
	block block
	jobs  []job

	trie   *trie.Trie
	lookup *kmerfilter.Lookup

	flag       trieFlag
	currentJob int
}

// block is a contiguous range [Start, End) of the sorted bag.
type block struct {
	Start, End int
}

// Plan is the full schedule computed for one run: partition count,
// block boundaries, and the per-trie job lists from spec.md section
// 4.4's diagonal schedule.
type Plan struct {
	N          int
	W          int
	H          int
	M          int
	Tau        int
	partitions []*partition
	records    []*model.Record
}

// blockBoundaries computes block i's range per spec.md section 4.4:
// block i covers [Q*i + min(i,R), Q*(i+1) + min(i+1,R)) where Q = n/N,
// R = n mod N.
func blockBoundaries(n, N int) []block {
	q, r := n/N, n%N
	blocks := make([]block, N)
	for i := 0; i < N; i++ {
		start := q*i + min(i, r)
		end := q*(i+1) + min(i+1, r)
		blocks[i] = block{Start: start, End: end}
	}
	return blocks
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// partitionCount applies spec.md section 4.4's rule: N = 3W + (1 if W
// even else 0), guaranteeing N odd; falls back to N=1, W=1 if n < N.
func partitionCount(n, w int) (N, W int) {
	N = 3 * w
	if w%2 == 0 {
		N++
	}
	if n < N {
		return 1, 1
	}
	return N, w
}

// NewPlan builds the schedule for a sorted, padded bag of n records of
// common padded length h and median unpadded length m (as returned by
// preprocess.Pad), using up to w workers. tau is the edit-distance
// threshold.
func NewPlan(records []*model.Record, h, m, tau, w int) *Plan {
	n := len(records)
	N, W := partitionCount(n, w)

	blocks := blockBoundaries(n, N)

	partitions := make([]*partition, N)
	for i := range partitions {
		njobs := (N + 1) / 2
		jobs := make([]job, njobs)
		for j := 0; j < njobs; j++ {
			jobs[j] = job{
				queryBlock: (i + j) % N,
				build:      j == 0,
			}
		}
		partitions[i] = &partition{block: blocks[i], jobs: jobs, flag: flagFree}
	}

	return &Plan{
		N:          N,
		W:          W,
		H:          h,
		M:          m,
		Tau:        tau,
		partitions: partitions,
		records:    records,
	}
}

func seqBytes(records []*model.Record, blk block) [][]byte {
	out := make([][]byte, blk.End-blk.Start)
	for i := range out {
		out[i] = records[blk.Start+i].Seq
	}
	return out
}

// ArenaSize returns the exact node count partition i's trie needs,
// computed from its owning block (spec.md section 4.4, "Per-trie
// arena sizing").
func (p *Plan) ArenaSize(i int) int {
	blk := p.partitions[i].block
	return trie.ArenaSize(seqBytes(p.records, blk), p.H)
}
