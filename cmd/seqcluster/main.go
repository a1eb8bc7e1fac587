// Copyright 2017, Kerby Shedden and the Muscato contributors.

// seqcluster is the command-line entry point for the clustering core:
// it loads a sequence bag, preprocesses it, builds the partitioned
// trie/lookup index, runs the scheduler, and writes the resulting
// neighbor pairs.
//
// Minimal input format, since full input parsing is explicitly out of
// scope for the core (spec section 6 names it an external
// collaborator): one record per line, tab-separated
// `seq[\tcount[\tinfo]]`. count defaults to 1 if omitted; info
// defaults to empty (the unpadded sequence is then used as the emitted
// label). Input may optionally be snappy-compressed.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/golang/snappy"
	"github.com/kshedden/seqcluster/config"
	"github.com/kshedden/seqcluster/model"
	"github.com/kshedden/seqcluster/preprocess"
	"github.com/kshedden/seqcluster/scheduler"
	"github.com/pkg/profile"
)

var logger *log.Logger

func handleArgs() (*config.Config, string, string) {
	configFileName := flag.String("ConfigFileName", "", "JSON file containing configuration parameters")
	tau := flag.Int("Tau", config.TauAuto, "Edit-distance threshold (non-negative; omit or use -1 for auto)")
	threads := flag.Int("Threads", 0, "Worker budget (0 means use all available CPUs)")
	verbose := flag.Bool("Verbose", false, "Enable progress logging")
	compressOutput := flag.Bool("CompressOutput", false, "Write output pairs snappy-compressed")
	cpuProfile := flag.String("CPUProfile", "", "Directory to write a CPU profile to")
	input := flag.String("Input", "", "Input sequence file (required)")
	output := flag.String("Output", "", "Output pair file (required)")
	flag.Parse()

	var cfg *config.Config
	if *configFileName != "" {
		c, err := config.ReadConfig(*configFileName)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	} else {
		cfg = &config.Config{Tau: config.TauAuto}
	}

	if *tau != config.TauAuto {
		cfg.Tau = *tau
	}
	if *threads != 0 {
		cfg.Threads = *threads
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *compressOutput {
		cfg.CompressOutput = true
	}
	if *cpuProfile != "" {
		cfg.CPUProfile = *cpuProfile
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Input not provided, see -help for more information.")
		os.Exit(1)
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Output not provided, see -help for more information.")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	return cfg, *input, *output
}

// readBag loads the minimal input format described above into a Bag.
// name ending in ".sz" is read through snappy.
func readBag(name string) (*model.Bag, error) {
	fid, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fid.Close()

	var r io.Reader = fid
	if len(name) > 3 && name[len(name)-3:] == ".sz" {
		r = snappy.NewReader(fid)
	}

	var records []*model.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte{'\t'})

		seq := make([]byte, len(fields[0]))
		copy(seq, fields[0])
		if err := validateDNA(seq); err != nil {
			return nil, err
		}

		count := 1
		if len(fields) > 1 && len(fields[1]) > 0 {
			c, err := strconv.Atoi(string(fields[1]))
			if err != nil {
				return nil, fmt.Errorf("seqcluster: invalid count %q: %w", fields[1], err)
			}
			count = c
		}

		info := ""
		if len(fields) > 2 {
			info = string(fields[2])
		}

		records = append(records, &model.Record{Seq: seq, Count: count, Info: info})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return model.NewBag(records), nil
}

func validateDNA(seq []byte) error {
	if len(seq) == 0 {
		return fmt.Errorf("seqcluster: empty sequence")
	}
	for _, b := range seq {
		switch b {
		case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		default:
			return fmt.Errorf("seqcluster: invalid DNA character %q", b)
		}
	}
	return nil
}

func run(cfg *config.Config, input, output string) error {
	logger.Printf("Starting seqcluster...\n")

	logger.Printf("Reading input from %s...\n", input)
	bag, err := readBag(input)
	if err != nil {
		return err
	}
	if bag.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Empty input, no pairs emitted.")
		os.Exit(1)
	}

	logger.Printf("Preprocessing %d records (%d total occurrences)...\n", bag.Len(), bag.TotalCount())
	w := cfg.ResolveThreads()
	bag.Records = preprocess.SortAndMerge(bag.Records, w)
	h, m := preprocess.Pad(bag.Records)
	logger.Printf("H=%d M=%d unique=%d\n", h, m, bag.Len())

	tau := cfg.ResolveTau(m)
	logger.Printf("tau=%d threads=%d\n", tau, w)

	plan := scheduler.NewPlan(bag.Records, h, m, tau, w)
	logger.Printf("N=%d partitions\n", plan.N)

	fid, err := os.Create(output)
	if err != nil {
		return err
	}
	defer fid.Close()

	sink, closeSink := model.NewTSVSink(fid, cfg.CompressOutput)

	logger.Printf("Running scheduler...\n")
	runErr := plan.Run(sink, logger, cfg.Verbose)

	if err := closeSink(); err != nil && runErr == nil {
		runErr = err
	}

	logger.Printf("Done.\n")
	return runErr
}

func main() {
	cfg, input, output := handleArgs()

	logger = log.New(os.Stderr, "", log.Ltime)

	if cfg.CPUProfile != "" {
		p := profile.Start(profile.ProfilePath(cfg.CPUProfile))
		defer p.Stop()
	}

	if err := run(cfg, input, output); err != nil {
		panic(err)
	}
}
