// Copyright 2017, Kerby Shedden and the Muscato contributors.

package model

// Bag is an ordered collection of sequence records, owned by whichever
// stage currently holds it: created by the (out-of-scope) parser,
// mutated in place by the preprocessor, then owned by the scheduler for
// the remainder of the run.
type Bag struct {
	Records []*Record
}

// NewBag wraps an existing slice of records as a Bag. The bag takes
// ownership of the slice.
func NewBag(records []*Record) *Bag {
	return &Bag{Records: records}
}

// Len returns the number of records currently in the bag.
func (b *Bag) Len() int {
	return len(b.Records)
}

// TotalCount returns the sum of every record's occurrence count.
func (b *Bag) TotalCount() int {
	var n int
	for _, r := range b.Records {
		n += r.Count
	}
	return n
}
