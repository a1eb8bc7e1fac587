// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package preprocess implements the length-normalizing preprocessor
// (spec.md section 4.1): a parallel, duplicate-merging sort over a bag
// of sequence records, followed by left-padding to a common length.
//
// The sort is destructive in the sense the teacher's scan-based
// uniqify step is: it consumes the input slice and returns a new,
// generally smaller, slice holding one record per distinct sequence,
// with merged duplicates' counts summed into the surviving record. No
// slot is set to nil and there is no tail to compact: the returned
// slice holds only the survivors.
package preprocess

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/kshedden/seqcluster/model"
)

// less implements the sort comparator from spec.md section 4.1: shorter
// sequence first, then lexicographic byte comparison among equal
// lengths.
func less(a, b *model.Record) bool {
	if len(a.Seq) != len(b.Seq) {
		return len(a.Seq) < len(b.Seq)
	}
	return bytes.Compare(a.Seq, b.Seq) < 0
}

func equal(a, b *model.Record) bool {
	return len(a.Seq) == len(b.Seq) && bytes.Equal(a.Seq, b.Seq)
}

// SortAndMerge sorts records under the comparator above and merges
// consecutive records that compare equal, summing their counts into a
// single survivor. It fans out over up to workerBudget goroutines using
// a power-of-two partition tree: each recursive split spawns two
// sub-tasks while budget remains, and falls back to sequential
// recursion once the per-level worker quota is exhausted.
//
// workerBudget=1 produces byte-for-byte (field-for-field) the same
// result as any larger budget, since the merge step is commutative and
// the recursion shape is identical either way -- only whether the two
// halves run concurrently differs.
func SortAndMerge(records []*model.Record, workerBudget int) []*model.Record {
	if workerBudget < 1 {
		workerBudget = 1
	}
	if len(records) <= 1 {
		return records
	}
	budget := int32(workerBudget)
	return msort(records, &budget)
}

// msort recursively sorts and merges, consuming one unit of budget per
// fan-out (two goroutines spawned). budget is shared and decremented
// atomically so that the total number of concurrently running
// goroutines across the whole tree stays bounded by the original
// workerBudget.
func msort(records []*model.Record, budget *int32) []*model.Record {
	if len(records) <= 1 {
		return records
	}

	mid := len(records) / 2
	left := records[:mid]
	right := records[mid:]

	var l, r []*model.Record

	if atomic.AddInt32(budget, -1) >= 0 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			l = msort(left, budget)
		}()
		go func() {
			defer wg.Done()
			r = msort(right, budget)
		}()
		wg.Wait()
	} else {
		atomic.AddInt32(budget, 1) // give back the unit we failed to spend
		l = msort(left, budget)
		r = msort(right, budget)
	}

	return merge(l, r)
}

// merge merges two sorted, internally-deduplicated runs into one
// sorted, deduplicated run, summing counts whenever the heads of the
// two runs compare equal. Uses O(len(l)+len(r)) auxiliary storage.
func merge(l, r []*model.Record) []*model.Record {
	out := make([]*model.Record, 0, len(l)+len(r))

	i, j := 0, 0
	for i < len(l) && j < len(r) {
		switch {
		case equal(l[i], r[j]):
			l[i].Count += r[j].Count
			out = append(out, l[i])
			i++
			j++
		case less(l[i], r[j]):
			out = append(out, l[i])
			i++
		default:
			out = append(out, r[j])
			j++
		}
	}
	out = append(out, l[i:]...)
	out = append(out, r[j:]...)

	return out
}
