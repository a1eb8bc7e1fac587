// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package trie implements the partitioned, arena-backed approximate
// match index described in spec.md sections 3 and 4.2. There is no
// external trie module in this retrieval pack that already implements
// bounded edit-distance descent with DP-row reuse, so this package is
// original engineering written to satisfy that black-box contract (see
// DESIGN.md) rather than an adaptation of a teacher file.
package trie

import (
	"fmt"

	"github.com/kshedden/seqcluster/model"
)

// numSymbols is the trie's fixed branching factor: A, C, G, T, and the
// left-padding symbol (ASCII space), the five bytes that ever appear in
// a padded sequence record.
const numSymbols = 5

func symbolIndex(b byte) (int, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	case ' ':
		return 4, true
	default:
		return 0, false
	}
}

// node is one trie node, stored by value in the arena so that insertion
// never allocates (spec.md section 3, Trie invariant iii).
type node struct {
	children [numSymbols]int32 // index into the arena, -1 if absent
	term     *model.Record     // nil until Commit is called for this node
}

// Trie is a per-partition index over fixed-length (length H) sequences.
type Trie struct {
	h     int
	arena []node
	used  int32
	root  int32
}

// New allocates a trie for sequences of exactly length h, with an arena
// sized for exactly arenaSize additional nodes beyond the root. Callers
// compute arenaSize from the sorted block they are about to insert,
// using ArenaSize below, so that insertion never reallocates.
func New(h, arenaSize int) *Trie {
	t := &Trie{
		h:     h,
		arena: make([]node, 1, arenaSize+1),
	}
	for i := range t.arena[0].children {
		t.arena[0].children[i] = -1
	}
	t.root = 0
	return t
}

// ArenaSize computes the exact number of non-root nodes a trie needs to
// hold every sequence in a sorted, length-H block: the sum over
// consecutive pairs of (H - commonPrefixLength), plus H nodes for the
// very first sequence (its whole path, terminal node included).
func ArenaSize(seqs [][]byte, h int) int {
	if len(seqs) == 0 {
		return 0
	}
	n := h
	for i := 1; i < len(seqs); i++ {
		n += h - commonPrefixLen(seqs[i-1], seqs[i])
	}
	return n
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Insert adds seq (length H) to the trie, allocating any nodes along
// its path that do not already exist, and returns a handle to the
// terminal node. The terminal's back-reference is left nil ("dark")
// until Commit is called -- this is the two-step reserve/commit API
// spec.md section 9 calls for, so that a query never matches itself:
// the caller must search for a record before calling Commit for it.
func (t *Trie) Insert(seq []byte) (handle int32, err error) {
	if len(seq) != t.h {
		return -1, fmt.Errorf("trie: Insert: sequence length %d != %d", len(seq), t.h)
	}

	cur := t.root
	for _, b := range seq {
		sym, ok := symbolIndex(b)
		if !ok {
			return -1, fmt.Errorf("trie: Insert: invalid symbol %q", b)
		}
		child := t.arena[cur].children[sym]
		if child == -1 {
			child = t.alloc()
			t.arena[cur].children[sym] = child
		}
		cur = child
	}
	return cur, nil
}

func (t *Trie) alloc() int32 {
	idx := int32(len(t.arena))
	t.arena = append(t.arena, node{})
	for i := range t.arena[idx].children {
		t.arena[idx].children[i] = -1
	}
	t.used++
	return idx
}

// Commit sets handle's back-reference to rec, making it visible to
// subsequent searches. Precondition: the search for rec itself must
// already have completed (spec.md section 3, Trie invariant i).
func (t *Trie) Commit(handle int32, rec *model.Record) {
	t.arena[handle].term = rec
}
