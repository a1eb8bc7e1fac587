// Copyright 2017, Kerby Shedden and the Muscato contributors.

package model

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTSVSinkEmit(t *testing.T) {
	var buf bytes.Buffer
	sink, flush := NewTSVSink(&buf, false)

	require.NoError(t, sink.Emit(Pair{LabelA: "ACGT", LabelB: "ACGA", Dist: 1}))
	require.NoError(t, sink.Emit(Pair{LabelA: "AC", LabelB: "ACG", Dist: 1}))
	require.NoError(t, flush())

	want := "ACGT\tACGA\t1\nAC\tACG\t1\n"
	require.Equal(t, want, buf.String())
}

func TestTSVSinkConcurrent(t *testing.T) {
	var buf bytes.Buffer
	sink, flush := NewTSVSink(&buf, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, sink.Emit(Pair{LabelA: "A", LabelB: "B", Dist: 1}))
		}()
	}
	wg.Wait()
	require.NoError(t, flush())

	require.Equal(t, 50, strings.Count(buf.String(), "\n"))
}

func TestMemSinkConcurrent(t *testing.T) {
	sink := &MemSink{}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink.Emit(Pair{LabelA: "A", LabelB: "B", Dist: 1})
		}(i)
	}
	wg.Wait()

	require.Len(t, sink.Pairs, 100)
}

func TestUnpad(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  ACGT", "ACGT"},
		{"ACGT", "ACGT"},
		{"    ", ""},
		{"", ""},
	}
	for _, c := range cases {
		got := string(Unpad([]byte(c.in)))
		require.Equal(t, c.want, got)
	}
}
