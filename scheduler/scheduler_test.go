// Copyright 2017, Kerby Shedden and the Muscato contributors.

package scheduler

import (
	"io"
	"log"
	"sort"
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/kshedden/seqcluster/model"
	"github.com/kshedden/seqcluster/preprocess"
	"github.com/stretchr/testify/require"
)

var discardLogger = log.New(io.Discard, "", 0)

func runCluster(t *testing.T, seqs []string, counts []int, tau, w int) []model.Pair {
	t.Helper()
	recs := make([]*model.Record, len(seqs))
	for i, s := range seqs {
		c := 1
		if counts != nil {
			c = counts[i]
		}
		recs[i] = &model.Record{Seq: []byte(s), Count: c}
	}

	recs = preprocess.SortAndMerge(recs, w)
	h, m := preprocess.Pad(recs)

	plan := NewPlan(recs, h, m, tau, w)

	sink := &model.MemSink{}
	require.NoError(t, plan.Run(sink, discardLogger, false))

	return sink.Pairs
}

func pairKey(p model.Pair) (string, string, int) {
	a, b := p.LabelA, p.LabelB
	if a > b {
		a, b = b, a
	}
	return a, b, p.Dist
}

func normalizePairs(pairs []model.Pair) [][3]interface{} {
	out := make([][3]interface{}, len(pairs))
	for i, p := range pairs {
		a, b, d := pairKey(p)
		out[i] = [3]interface{}{a, b, d}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0].(string) < out[j][0].(string)
		}
		if out[i][1] != out[j][1] {
			return out[i][1].(string) < out[j][1].(string)
		}
		return out[i][2].(int) < out[j][2].(int)
	})
	return out
}

// TestScenarioOneFromSpec mirrors spec.md section 8 scenario 1.
func TestScenarioOneFromSpec(t *testing.T) {
	pairs := runCluster(t, []string{"ACGT", "ACGT", "ACGA"}, []int{1, 2, 1}, 1, 1)
	require.Len(t, pairs, 1)
	require.Equal(t, "ACGT", pairs[0].LabelA)
	require.Equal(t, "ACGA", pairs[0].LabelB)
	require.Equal(t, 1, pairs[0].Dist)
}

// TestScenarioTwoFromSpec mirrors spec.md section 8 scenario 2.
func TestScenarioTwoFromSpec(t *testing.T) {
	pairs := runCluster(t, []string{"AAAA", "AAAT", "AATT", "ATTT", "TTTT"}, nil, 1, 2)
	require.Len(t, pairs, 4)

	want := [][3]interface{}{
		{"AAAA", "AAAT", 1},
		{"AAAT", "AATT", 1},
		{"AATT", "ATTT", 1},
		{"ATTT", "TTTT", 1},
	}
	require.Equal(t, want, normalizePairs(pairs))
}

// TestScenarioThreeFromSpec mirrors spec.md section 8 scenario 3.
func TestScenarioThreeFromSpec(t *testing.T) {
	pairs := runCluster(t, []string{"ACGT", "ACG", "AC", "A"}, nil, 2, 1)

	got := normalizePairs(pairs)
	contains := func(a, b string, d int) bool {
		for _, p := range got {
			if p[0] == a && p[1] == b && p[2] == d {
				return true
			}
		}
		return false
	}

	require.True(t, contains("A", "AC", 1))
	require.True(t, contains("AC", "ACG", 1))
	require.True(t, contains("ACG", "ACGT", 1))
	require.True(t, contains("A", "ACG", 2))
	require.True(t, contains("AC", "ACGT", 2))
}

// TestScenarioFourFromSpec mirrors spec.md section 8 scenario 4: the
// emitted pair set must be identical for W=1 and W=4.
func TestScenarioFourFromSpec(t *testing.T) {
	seqs := make([]string, 1000)
	alphabet := []byte{'A', 'C', 'G', 'T'}
	x := uint32(12345)
	for i := range seqs {
		b := make([]byte, 20)
		for j := range b {
			x = x*1664525 + 1013904223
			b[j] = alphabet[(x>>16)%4]
		}
		seqs[i] = string(b)
	}

	p1 := runCluster(t, seqs, nil, 2, 1)
	p4 := runCluster(t, seqs, nil, 2, 4)

	require.Equal(t, normalizePairs(p1), normalizePairs(p4))
}

// TestScenarioFiveFromSpec mirrors spec.md section 8 scenario 5.
func TestScenarioFiveFromSpec(t *testing.T) {
	seqs := make([]string, 10)
	counts := make([]int, 10)
	for i := range seqs {
		seqs[i] = "ACGT"
		counts[i] = 1
	}
	pairs := runCluster(t, seqs, counts, 0, 1)
	require.Empty(t, pairs)
}

// TestScenarioSixFromSpec mirrors spec.md section 8 scenario 6: when a
// record carries an Info label, emitted triples use the label, not the
// sequence.
func TestScenarioSixFromSpec(t *testing.T) {
	recs := []*model.Record{
		{Seq: []byte("ACGT"), Count: 1, Info: "r1/r2"},
		{Seq: []byte("ACGA"), Count: 1, Info: "r3/r4"},
	}
	recs = preprocess.SortAndMerge(recs, 1)
	h, m := preprocess.Pad(recs)
	plan := NewPlan(recs, h, m, 1, 1)

	sink := &model.MemSink{}
	require.NoError(t, plan.Run(sink, discardLogger, false))

	require.Len(t, sink.Pairs, 1)
	labels := []string{sink.Pairs[0].LabelA, sink.Pairs[0].LabelB}
	sort.Strings(labels)
	require.Equal(t, []string{"r1/r2", "r3/r4"}, labels)
}

func TestNoSelfMatches(t *testing.T) {
	pairs := runCluster(t, []string{"ACGT", "ACGA", "ACGC", "ACGG"}, nil, 3, 2)
	for _, p := range pairs {
		require.NotEqual(t, p.LabelA, p.LabelB)
	}
}

// TestEveryPairEmittedOnceAndDistanceCorrect cross-checks every emitted
// pair's distance against an independent Levenshtein oracle and
// verifies invariant 6: no unordered pair appears twice.
func TestEveryPairEmittedOnceAndDistanceCorrect(t *testing.T) {
	seqs := []string{
		"AAAAAAAAAA", "AAAAAAAAAT", "AAAAAAAATT", "AAAAAAATTT",
		"AAAAAATTTT", "AAAAATTTTT", "AAAACTTTTT", "AAAAGTTTTT",
		"CCCCCCCCCC", "CCCCCCCCCA",
	}
	tau := 2
	pairs := runCluster(t, seqs, nil, tau, 3)

	seen := map[[2]string]bool{}
	for _, p := range pairs {
		a, b, d := pairKey(p)
		key := [2]string{a, b}
		require.False(t, seen[key], "pair %v emitted more than once", key)
		seen[key] = true

		want := matchr.Levenshtein(a, b)
		require.Equal(t, want, d, "pair (%s,%s)", a, b)
		require.LessOrEqual(t, d, tau)
		require.GreaterOrEqual(t, d, 1)
	}

	// Brute-force cross-check: every true within-tau pair must have
	// been found.
	for i := 0; i < len(seqs); i++ {
		for j := i + 1; j < len(seqs); j++ {
			d := matchr.Levenshtein(seqs[i], seqs[j])
			if d <= tau {
				a, b := seqs[i], seqs[j]
				if a > b {
					a, b = b, a
				}
				require.True(t, seen[[2]string{a, b}], "missing true pair (%s,%s) dist %d", a, b, d)
			}
		}
	}
}

func TestBlockBoundariesCoverWholeRangeExactlyOnce(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7, 23, 100} {
		for _, w := range []int{1, 2, 3, 5} {
			N, _ := partitionCount(n, w)
			blocks := blockBoundaries(n, N)
			require.Equal(t, 0, blocks[0].Start)
			for i := 1; i < len(blocks); i++ {
				require.Equal(t, blocks[i-1].End, blocks[i].Start)
			}
			require.Equal(t, n, blocks[len(blocks)-1].End)
		}
	}
}

func TestPartitionCountIsOdd(t *testing.T) {
	for w := 1; w <= 8; w++ {
		N, _ := partitionCount(1000, w)
		require.Equal(t, 1, N%2)
	}
}

func TestPartitionCountFallsBackWhenInputSmall(t *testing.T) {
	N, W := partitionCount(2, 4)
	require.Equal(t, 1, N)
	require.Equal(t, 1, W)
}
