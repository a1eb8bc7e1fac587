// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package gendat generates synthetic sequence bags for tests and
// benchmarks, adapted from the teacher's cmd/muscato_gendat generator.
// Where the teacher plants exact read copies inside a separate
// collection of genes (two collections, exact-match planting), this
// package plants controlled-edit-distance neighbors within a single
// bag, since the core under test here finds within-bag neighbor pairs
// rather than cross-collection exact hits.
package gendat

import (
	"math/rand"

	"github.com/kshedden/seqcluster/model"
)

var bases = []byte{'A', 'T', 'G', 'C'}

// genRand fills seq (reusing its backing array if long enough) with n
// uniformly random bases, exactly as the teacher's genRand does.
func genRand(n int, seq []byte, rng *rand.Rand) []byte {
	if cap(seq) < n {
		seq = make([]byte, n)
	}
	seq = seq[:n]
	for j := 0; j < n; j++ {
		seq[j] = bases[rng.Intn(len(bases))]
	}
	return seq
}

// mutate returns a copy of seq with exactly d independent single-base
// substitutions applied at distinct positions, so the result is almost
// always at edit distance d from seq (collisions that reduce the true
// distance are rare and harmless for test data).
func mutate(seq []byte, d int, rng *rand.Rand) []byte {
	out := make([]byte, len(seq))
	copy(out, seq)
	if d <= 0 || len(out) == 0 {
		return out
	}
	positions := rng.Perm(len(out))
	if d > len(positions) {
		d = len(positions)
	}
	for _, p := range positions[:d] {
		orig := out[p]
		for {
			b := bases[rng.Intn(len(bases))]
			if b != orig {
				out[p] = b
				break
			}
		}
	}
	return out
}

// Params controls the shape of a generated bag.
type Params struct {
	// NumBase is the number of independent random "seed" sequences.
	NumBase int

	// SeqLen is the length of every generated sequence.
	SeqLen int

	// NeighborsPerBase is the number of mutated neighbors planted
	// per seed, each at edit distance Dist from its seed.
	NeighborsPerBase int

	// Dist is the edit distance each planted neighbor has from its
	// seed sequence.
	Dist int

	// NumNoise is the number of additional pure-random sequences
	// added with no planted relationship to anything else, mirroring
	// the teacher's "second half ... random, few or no matches" gene
	// half.
	NumNoise int

	// Seed is the PRNG seed, for reproducible test fixtures.
	Seed int64
}

// Generate builds a bag of records per Params: NumBase random seed
// sequences, each with NeighborsPerBase planted neighbors at edit
// distance Dist, plus NumNoise unrelated random sequences. Every
// record has Count 1; duplicates are left for the caller's
// preprocessing stage to merge, exactly as real parser output would
// need to be.
func Generate(p Params) []*model.Record {
	rng := rand.New(rand.NewSource(p.Seed))

	total := p.NumBase*(1+p.NeighborsPerBase) + p.NumNoise
	records := make([]*model.Record, 0, total)

	buf := make([]byte, p.SeqLen)
	for i := 0; i < p.NumBase; i++ {
		buf = genRand(p.SeqLen, buf, rng)
		seed := make([]byte, p.SeqLen)
		copy(seed, buf)
		records = append(records, &model.Record{Seq: seed, Count: 1})

		for j := 0; j < p.NeighborsPerBase; j++ {
			records = append(records, &model.Record{Seq: mutate(seed, p.Dist, rng), Count: 1})
		}
	}

	for i := 0; i < p.NumNoise; i++ {
		buf = genRand(p.SeqLen, buf, rng)
		noise := make([]byte, p.SeqLen)
		copy(noise, buf)
		records = append(records, &model.Record{Seq: noise, Count: 1})
	}

	return records
}
