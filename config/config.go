// Copyright 2017, Kerby Shedden and the Muscato contributors.

// Package config holds the handful of options spec.md section 6 names
// as the core's recognized configuration, plus the ambient options
// (logging, profiling, output compression) every stage of this engine
// needs, generalized from the teacher's utils.Config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// TauAuto is the negative sentinel for Config.Tau meaning "derive tau
// from the median unpadded length" (spec.md section 6).
const TauAuto = -1

// Config is the set of options the core consumes. Unlike the teacher's
// process-wide *utils.Config global, a Config here is an explicit value
// threaded from main into the scheduler plan, so a run is re-entrant
// and testable (spec.md section 9, "Process-wide state").
type Config struct {
	// Tau is the edit-distance threshold, or TauAuto to derive it
	// from the median unpadded length M (spec.md section 6).
	Tau int

	// Threads is the worker budget W. Threads <= 0 means "use all
	// available CPUs", resolved by ResolveThreads below.
	Threads int

	// Verbose enables progress logging only; it has no effect on
	// the emitted pairs.
	Verbose bool

	// LogDir names a log directory, mirroring the teacher's
	// muscato_logs/ convention. It is decoded from the configuration
	// file only: the seqcluster command does not read it, creates no
	// log file, and logs to stderr alone.
	LogDir string

	// KeepLogs corresponds to the teacher's NoCleanTmp field. It is
	// decoded from the configuration file only: nothing reads it,
	// and no step of this engine removes LogDir.
	KeepLogs bool

	// CPUProfile, if non-empty, is the directory a pprof CPU
	// profile is written to for the duration of the run.
	CPUProfile string

	// CompressOutput writes the pair stream through snappy instead
	// of plain text. Default false, since spec.md section 6's pair
	// sink contract is plain tab-separated text.
	CompressOutput bool
}

// ReadConfig decodes a JSON configuration file.
func ReadConfig(path string) (*Config, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	cfg := new(Config)
	dec := json.NewDecoder(fid)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: ReadConfig: %w", err)
	}
	return cfg, nil
}

// ResolveTau applies spec.md section 6's auto-derivation rule:
// tau = 8 if M > 160 else 2 + M/30.
func (c *Config) ResolveTau(m int) int {
	if c.Tau != TauAuto {
		return c.Tau
	}
	if m > 160 {
		return 8
	}
	return 2 + m/30
}

// ResolveThreads returns the worker budget to use: Threads if positive,
// otherwise the calling thread's CPU affinity mask size. This mirrors
// the teacher's use of golang.org/x/sys/unix for low-level POSIX
// queries (the teacher calls unix.Mkfifo for its FIFO pipeline; this
// engine has no multi-process pipeline, so the same package is used
// here for unix.SchedGetaffinity instead, which -- unlike
// runtime.NumCPU -- reflects any cgroup or taskset CPU restriction the
// process is actually running under); runtime.NumCPU is the fallback
// when the syscall is unavailable.
func (c *Config) ResolveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil && set.Count() > 0 {
		return set.Count()
	}
	return runtime.NumCPU()
}

// Validate checks the fields spec.md section 6 requires to be
// consistent before a run starts.
func (c *Config) Validate() error {
	if c.Tau != TauAuto && c.Tau < 0 {
		return fmt.Errorf("config: Tau must be non-negative or %d (auto), got %d", TauAuto, c.Tau)
	}
	return nil
}
