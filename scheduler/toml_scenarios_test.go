// Copyright 2017, Kerby Shedden and the Muscato contributors.

package scheduler

import (
	"os"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

// tomlScenario mirrors the teacher's tests/tests.toml Test struct,
// reshaped from "compiled-binary args + output files to diff" to
// "in-memory input + expected pair set to compare directly".
type tomlScenario struct {
	Name        string
	Seqs        []string
	Counts      []int
	Tau         int
	Workers     int
	ExpectPairs [][3]interface{}
}

func loadScenarios(t *testing.T) []tomlScenario {
	t.Helper()
	b, err := os.ReadFile("tests.toml")
	require.NoError(t, err)

	var v struct {
		Test []tomlScenario
	}
	_, err = toml.Decode(string(b), &v)
	require.NoError(t, err)
	return v.Test
}

func TestTomlScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			pairs := runCluster(t, sc.Seqs, sc.Counts, sc.Tau, sc.Workers)
			got := normalizePairs(pairs)

			want := make([][3]interface{}, len(sc.ExpectPairs))
			for i, p := range sc.ExpectPairs {
				// toml decodes integers as int64.
				want[i] = [3]interface{}{p[0], p[1], int(p[2].(int64))}
			}
			if len(want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, want, got)
		})
	}
}
