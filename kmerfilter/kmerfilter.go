// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package kmerfilter implements the k-mer lookup bitmap prefilter
// (spec.md section 4.3): a per-partition, no-false-negative screen that
// lets the scheduler skip trie searches for queries that provably
// cannot have a within-tau neighbor.
//
// The bit sets backing each k-mer slice reuse the same bit-array library
// the teacher's muscato_screen command uses for its Bloom filter
// sketches (github.com/golang-collections/go-datastructures/bitarray);
// unlike a Bloom filter, the k-mers here are looked up by their literal
// 2-bit encoding rather than by hash, since the alphabet is fixed and
// tiny.
package kmerfilter

import (
	"fmt"

	"github.com/golang-collections/go-datastructures/bitarray"
)

// KMax bounds the per-slice k-mer length so that a slice's bit array
// never exceeds 2^(2*KMax) bits (spec.md section 4.3: "2*k <= 2*K_MAX <=
// ~22").
const KMax = 11

// Lookup is the set of tau+1 k-mer bitmaps for one trie partition.
type Lookup struct {
	h   int
	tau int

	// sliceLen[i] is the length in bases of k-mer slice i.
	sliceLen []int

	// sliceEnd[i] is the exclusive end offset (in the padded, length-H
	// coordinate system) of slice i; slice i covers
	// [sliceEnd[i]-sliceLen[i], sliceEnd[i]).  Slice 0 is nearest the
	// tail (the end of the padded sequence, spec.md section 4.3:
	// "iterating from the tail toward the head").
	sliceEnd []int

	bits []bitarray.BitArray
}

// New builds an empty Lookup for sequences of common padded length h,
// median unpadded length m, and edit-distance threshold tau.
func New(h, m, tau int) *Lookup {
	n := tau + 1

	total := m
	if total > h {
		total = h
	}
	if total < 0 {
		total = 0
	}

	base := total / n
	rem := total % n

	sliceLen := make([]int, n)
	for i := 0; i < n; i++ {
		l := base
		if i < rem {
			l++
		}
		if l > KMax {
			l = KMax
		}
		sliceLen[i] = l
	}

	sliceEnd := make([]int, n)
	end := h
	for i := 0; i < n; i++ {
		sliceEnd[i] = end
		end -= sliceLen[i]
	}

	bits := make([]bitarray.BitArray, n)
	for i, l := range sliceLen {
		size := uint64(1) << uint(2*l)
		if size == 0 {
			size = 1
		}
		bits[i] = bitarray.NewBitArray(size)
	}

	return &Lookup{h: h, tau: tau, sliceLen: sliceLen, sliceEnd: sliceEnd, bits: bits}
}

// encode2bit maps a DNA base to its 2-bit code: A=0, C=1, G=2, T=3;
// ASCII space (the left-padding symbol) also counts as A, per spec.md
// section 3 ("padding counts as A"). ok is false for any other byte.
func encode2bit(b byte) (code uint64, ok bool) {
	switch b {
	case 'A', 'a', ' ':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	default:
		return 0, false
	}
}

// encodeSlice computes the 2-bit packed encoding of seq[start:end]. ok
// is false if any byte in the range is outside {A,C,G,T,pad} or the
// range falls outside [0, len(seq)).
func encodeSlice(seq []byte, start, end int) (code uint64, ok bool) {
	if start < 0 || end > len(seq) || start > end {
		return 0, false
	}
	for i := start; i < end; i++ {
		c, valid := encode2bit(seq[i])
		if !valid {
			return 0, false
		}
		code = code<<2 | c
	}
	return code, true
}

// Insert sets, for each k-mer slice of seq, the bit corresponding to
// that slice's 2-bit encoding. seq must have length h. A slice is
// skipped only if it contains a byte outside {A,C,G,T,pad}.
func (l *Lookup) Insert(seq []byte) error {
	if len(seq) != l.h {
		return fmt.Errorf("kmerfilter: Insert: sequence length %d != %d", len(seq), l.h)
	}
	for i, sl := range l.sliceLen {
		if sl == 0 {
			continue
		}
		start := l.sliceEnd[i] - sl
		code, ok := encodeSlice(seq, start, l.sliceEnd[i])
		if !ok {
			continue
		}
		if err := l.bits[i].SetBit(code); err != nil {
			return err
		}
	}
	return nil
}

// Probe reports whether seq might have a within-tau neighbor already
// inserted into l. It never returns a false "miss": if a true neighbor
// within distance tau was inserted, at least one of the shifted slice
// probes below is guaranteed to hit the bit that neighbor set (spec.md
// section 4.3's invariant). A "hit" therefore means "search the trie";
// a "miss" means the trie search can be safely skipped.
func (l *Lookup) Probe(seq []byte) (hit bool, err error) {
	if len(seq) != l.h {
		return false, fmt.Errorf("kmerfilter: Probe: sequence length %d != %d", len(seq), l.h)
	}

	anyValid := false
	for i, sl := range l.sliceLen {
		if sl == 0 {
			continue
		}
		tol := l.tau - i
		end0 := l.sliceEnd[i]
		for shift := -tol; shift <= tol; shift++ {
			start := end0 - sl + shift
			end := end0 + shift
			code, ok := encodeSlice(seq, start, end)
			if !ok {
				continue
			}
			anyValid = true
			set, err := l.bits[i].GetBit(code)
			if err != nil {
				return false, err
			}
			if set {
				return true, nil
			}
		}
	}

	if !anyValid {
		return false, fmt.Errorf("kmerfilter: Probe: sequence %q ends mid-probe for every slice", seq)
	}

	return false, nil
}
