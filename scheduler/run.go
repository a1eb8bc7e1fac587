// Copyright 2017, Kerby Shedden and the Muscato contributors.

package scheduler

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/kshedden/seqcluster/kmerfilter"
	"github.com/kshedden/seqcluster/model"
	"github.com/kshedden/seqcluster/trie"
)

// Run executes the plan's jobs to completion, starting one worker
// goroutine per dispatched job with at most p.W of them running at
// once, and using this calling goroutine as the coordinator, per
// spec.md section 4.4's dispatch loop and section 5's concurrency
// model. Every emitted pair is sent to sink. logger receives
// progress messages when verbose is true, and a warning for every
// query whose hit tower overflowed regardless of verbose.
//
// Run assigns a fresh run identifier to each call so that concurrent
// runs (e.g. in tests) produce distinguishable log lines.
func (p *Plan) Run(sink model.Sink, logger *log.Logger, verbose bool) error {
	runID := uuid.New().String()

	if verbose {
		logger.Printf("run %s: starting, N=%d W=%d n=%d H=%d tau=%d", runID, p.N, p.W, len(p.records), p.H, p.Tau)
	}

	var mu sync.Mutex
	cond := sync.NewCond(&mu)

	active := 0
	done := 0
	var workErr error

	// A trie's arena and lookup bitmap are constructed lazily by
	// that trie's build job, so the dispatch loop can start before
	// any trie exists. Every job allocates its own SearchState and
	// hit tower.

	// Single round-robin cursor over the N tries, one step per
	// dispatch-loop iteration, matching spec.md section 4.4's
	// dispatch loop: check one trie, maybe dispatch one job, then
	// block on the condition variable while active==W. A lap
	// counter additionally parks the coordinator once a full
	// revolution finds nothing dispatchable, so it never busy-spins
	// holding the lock while every remaining trie is BUSY.
	mu.Lock()
	cursor := 0
	idleLap := 0
	for done < p.N {
		i := cursor
		cursor = (cursor + 1) % p.N
		part := p.partitions[i]

		progressed := false
		if part.flag == flagFree {
			if part.currentJob == len(part.jobs) {
				part.flag = flagDone
				done++
				progressed = true
				if verbose {
					logger.Printf("run %s: trie %d done", runID, i)
				}
			} else {
				jb := part.jobs[part.currentJob]
				part.currentJob++
				part.flag = flagBusy
				active++
				progressed = true

				go func(i int, part *partition, jb job) {
					err := p.runJob(i, part, jb, sink, logger, verbose, runID)

					mu.Lock()
					if err != nil && workErr == nil {
						workErr = err
					}
					part.flag = flagFree
					active--
					cond.Signal()
					mu.Unlock()
				}(i, part, jb)
			}
		}

		if progressed {
			idleLap = 0
		} else {
			idleLap++
		}

		for active == p.W || (idleLap >= p.N && active > 0) {
			cond.Wait()
			idleLap = 0
		}
	}
	mu.Unlock()

	if verbose {
		logger.Printf("run %s: all %d tries done", runID, p.N)
	}

	return workErr
}

// runJob executes one job's worker body, spec.md section 4.4 "Per-job
// execution (worker body)".
func (p *Plan) runJob(trieIdx int, part *partition, jb job, sink model.Sink, logger *log.Logger, verbose bool, runID string) error {
	if jb.build {
		part.trie = trie.New(p.H, p.ArenaSize(trieIdx))
		part.lookup = kmerfilter.New(p.H, p.M, p.Tau)
	}

	blk := p.records[p.blockOf(jb.queryBlock).Start:p.blockOf(jb.queryBlock).End]

	state := trie.NewSearchState(p.H)
	tower := make([][]*model.Record, p.Tau+1)
	for d := range tower {
		tower[d] = make([]*model.Record, 0, 64)
	}

	var prevSearched []byte
	var handles []int32
	if jb.build {
		handles = make([]int32, len(blk))
	}

	for i, rec := range blk {
		hit, err := part.lookup.Probe(rec.Seq)
		if err != nil {
			return err
		}
		doSearch := hit

		if jb.build {
			handle, err := part.trie.Insert(rec.Seq)
			if err != nil {
				return err
			}
			handles[i] = handle
			if err := part.lookup.Insert(rec.Seq); err != nil {
				return err
			}
		}

		if doSearch {
			trail := 0
			if i+1 < len(blk) {
				trail = lcp(rec.Seq, blk[i+1].Seq)
			}
			start := 0
			if prevSearched != nil {
				start = lcp(rec.Seq, prevSearched)
			}

			incomplete, err := part.trie.Search(state, rec.Seq, p.Tau, tower, start, trail)
			if err != nil {
				return err
			}
			if incomplete {
				logger.Printf("run %s: trie %d: hit tower overflow for query %q; search incomplete", runID, trieIdx, string(model.Unpad(rec.Seq)))
			}

			for d := 1; d <= p.Tau; d++ {
				for _, m := range tower[d] {
					if err := sink.Emit(model.Pair{
						LabelA: label(rec),
						LabelB: label(m),
						Dist:   d,
					}); err != nil {
						return err
					}
				}
			}

			prevSearched = rec.Seq
		}

		if jb.build {
			part.trie.Commit(handles[i], rec)
		}
	}

	return nil
}

func (p *Plan) blockOf(i int) block {
	return p.partitions[i].block
}

func lcp(a, b []byte) int {
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

func label(rec *model.Record) string {
	if rec.Info != "" {
		return rec.Info
	}
	return string(model.Unpad(rec.Seq))
}
