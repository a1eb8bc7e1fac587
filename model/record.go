// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package model defines the sequence record and bag types shared by
// every stage of the clustering core: the preprocessor, the k-mer
// lookup bitmap, the trie, and the scheduler.
package model

// Record represents one unique input sequence after deduplication.
//
// Before preprocessing completes, Seq holds the raw unpadded bytes read
// from the input. After preprocess.Pad runs, Seq holds the left-padded
// form shared by every record in the bag (length H, spec.md section 3).
type Record struct {
	// Seq is the sequence bytes, owned by this record.
	Seq []byte

	// Count is the number of input occurrences merged into this
	// record. Always positive.
	Count int

	// Info is an optional opaque tag carried through from the input
	// (e.g. a paired-end read name). Empty if the input carried none.
	Info string
}

// Unpad strips ASCII space padding from the left of seq, returning the
// original unpadded bytes. It does not copy when there is no padding.
func Unpad(seq []byte) []byte {
	i := 0
	for i < len(seq) && seq[i] == ' ' {
		i++
	}
	return seq[i:]
}

// UnpaddedLen returns the length of the record's unpadded sequence, independent
// of whether Seq has already been padded.
func (r *Record) UnpaddedLen() int {
	return len(Unpad(r.Seq))
}
