// Copyright 2017, Kerby Shedden and the Muscato contributors.

package preprocess

import "github.com/kshedden/seqcluster/model"

// Pad rewrites every record's Seq to a new buffer of length H, left
// padded with ASCII space (0x20), where H is the maximum unpadded
// length across records. It returns H and the median unpadded length M,
// spec.md section 4.1.
//
// M is the smallest length l such that the cumulative occurrence count
// of records with unpadded length <= l is at least half of the total
// occurrence count across the bag -- a count-weighted median, not a
// record-count median, since two records of the same length but very
// different abundances should not count equally.
//
// Pad assumes records is already sorted by (length, bytes) as
// SortAndMerge leaves it. The padding itself does not depend on the
// order, but the single linear scan that computes M does: on unsorted
// input the returned M is not the median.
func Pad(records []*model.Record) (h, m int) {
	if len(records) == 0 {
		return 0, 0
	}

	for _, r := range records {
		if n := len(r.Seq); n > h {
			h = n
		}
	}

	total := 0
	for _, r := range records {
		total += r.Count
	}

	half := (total + 1) / 2
	cum := 0
	found := false
	for _, r := range records {
		cum += r.Count
		if !found && cum >= half {
			m = len(r.Seq)
			found = true
		}
	}
	if !found {
		m = h
	}

	for _, r := range records {
		if len(r.Seq) == h {
			continue
		}
		padded := make([]byte, h)
		for i := 0; i < h-len(r.Seq); i++ {
			padded[i] = ' '
		}
		copy(padded[h-len(r.Seq):], r.Seq)
		r.Seq = padded
	}

	return h, m
}
