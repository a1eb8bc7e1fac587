// Copyright 2017, Kerby Shedden and the Muscato contributors.

package gendat

import (
	"testing"

	"github.com/antzucaro/matchr"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesExpectedCounts(t *testing.T) {
	p := Params{NumBase: 5, SeqLen: 20, NeighborsPerBase: 3, Dist: 1, NumNoise: 4, Seed: 1}
	recs := Generate(p)
	require.Len(t, recs, 5*(1+3)+4)
	for _, r := range recs {
		require.Len(t, r.Seq, 20)
		require.Equal(t, 1, r.Count)
	}
}

func TestGenerateIsReproducibleForSameSeed(t *testing.T) {
	p := Params{NumBase: 3, SeqLen: 15, NeighborsPerBase: 2, Dist: 2, NumNoise: 2, Seed: 42}
	a := Generate(p)
	b := Generate(p)
	require.Len(t, a, len(b))
	for i := range a {
		require.Equal(t, string(a[i].Seq), string(b[i].Seq))
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	p1 := Params{NumBase: 3, SeqLen: 15, NeighborsPerBase: 2, Dist: 2, NumNoise: 2, Seed: 1}
	p2 := p1
	p2.Seed = 2
	a := Generate(p1)
	b := Generate(p2)

	diff := false
	for i := range a {
		if string(a[i].Seq) != string(b[i].Seq) {
			diff = true
			break
		}
	}
	require.True(t, diff)
}

func TestGenerateNeighborsAreNearPlantedDistance(t *testing.T) {
	p := Params{NumBase: 8, SeqLen: 25, NeighborsPerBase: 4, Dist: 2, NumNoise: 0, Seed: 7}
	recs := Generate(p)

	stride := 1 + p.NeighborsPerBase
	for i := 0; i < p.NumBase; i++ {
		seed := recs[i*stride]
		for j := 1; j <= p.NeighborsPerBase; j++ {
			neighbor := recs[i*stride+j]
			d := matchr.Levenshtein(string(seed.Seq), string(neighbor.Seq))
			require.LessOrEqual(t, d, p.Dist, "neighbor must be at most the planted distance away")
		}
	}
}
