// Copyright 2017, Kerby Shedden and the Muscato contributors.

package model

import (
	"bufio"
	"io"
	"strconv"
	"sync"

	"github.com/golang/snappy"
)

// Pair is one emitted result: two distinct sequences within edit
// distance Dist of each other, 1 <= Dist <= tau (spec.md section 6).
type Pair struct {
	LabelA string
	LabelB string
	Dist   int
}

// Sink receives pairs emitted by the scheduler's workers. A single sink
// is shared by every worker goroutine and every trie in a run, so
// implementations must accept concurrent calls to Emit (spec.md
// section 5: "the pair sink is assumed lock-free or internally
// synchronized").
type Sink interface {
	Emit(Pair) error
}

// TSVSink writes pairs as tab-separated (label_a, label_b, dist)
// records, one per line, serializing concurrent writers under a mutex
// -- the same "serialize writes under a sink mutex" option spec.md
// section 5 names explicitly.
type TSVSink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	buf []byte
}

// NewTSVSink wraps w as a Sink. If compressed is true, writes are
// passed through a snappy.BufferedWriter first, matching the on-disk
// ".sz" convention the teacher engine uses for its large intermediate
// and result files.
func NewTSVSink(w io.Writer, compressed bool) (*TSVSink, func() error) {
	if compressed {
		sw := snappy.NewBufferedWriter(w)
		bw := bufio.NewWriter(sw)
		return &TSVSink{w: bw}, func() error {
			if err := bw.Flush(); err != nil {
				return err
			}
			if err := flushSink(sw); err != nil {
				return err
			}
			return sw.Close()
		}
	}
	bw := bufio.NewWriter(w)
	return &TSVSink{w: bw}, bw.Flush
}

func flushSink(sw *snappy.Writer) error {
	return sw.Flush()
}

// Emit writes one pair. Safe for concurrent use.
func (s *TSVSink) Emit(p Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.WriteString(p.LabelA); err != nil {
		return err
	}
	if err := s.w.WriteByte('\t'); err != nil {
		return err
	}
	if _, err := s.w.WriteString(p.LabelB); err != nil {
		return err
	}
	if err := s.w.WriteByte('\t'); err != nil {
		return err
	}
	s.buf = strconv.AppendInt(s.buf[:0], int64(p.Dist), 10)
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// MemSink collects pairs in memory, for tests and for callers (e.g. a
// future clustering stage) that want the pair stream without a file
// round-trip.
type MemSink struct {
	mu    sync.Mutex
	Pairs []Pair
}

func (s *MemSink) Emit(p Pair) error {
	s.mu.Lock()
	s.Pairs = append(s.Pairs, p)
	s.mu.Unlock()
	return nil
}
