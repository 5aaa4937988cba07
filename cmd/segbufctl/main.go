// Command segbufctl drives a segbuf pool from the command line: a stress
// subcommand that hammers a shared SegmentPool from concurrent producers, and
// a stats subcommand that samples pool counters on an interval.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/agilira/go-timecache"
	"github.com/creachadair/taskgroup"

	"github.com/agilira/segbuf"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "stress":
		err = runStress(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "segbufctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: segbufctl <stress|stats> [flags]")
}

// runStress drives a SegmentPool from a bounded pool of concurrent producer
// goroutines, each filling and draining its own Buffer for a fixed duration,
// then reports the pool's final counters.
func runStress(args []string) error {
	fs := flag.NewFlagSet("stress", flag.ExitOnError)
	workers := fs.Int("workers", 8, "number of concurrent producers")
	duration := fs.String("duration", "2s", "how long to run")
	globalMax := fs.String("global-max", "", "pool global tier cap, e.g. 4MB (default from PoolConfig)")
	perThreadMax := fs.String("per-thread-max", "", "pool per-P tier cap, e.g. 256KB (default from PoolConfig)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dur, err := segbuf.ParseDuration(*duration)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}

	cfg := segbuf.DefaultPoolConfig()
	if *globalMax != "" {
		cfg.GlobalMaxBytes = *globalMax
	}
	if *perThreadMax != "" {
		cfg.PerThreadMaxBytes = *perThreadMax
	}
	pool := segbuf.NewSegmentPool(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	g, run := taskgroup.New(nil).Limit(*workers)
	for i := 0; i < *workers; i++ {
		i := i
		run(func() error {
			stressWorker(ctx, pool, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := pool.Stats()
	fmt.Printf("workers=%d duration=%s\n", *workers, dur)
	fmt.Printf("pooled_bytes=%d allocated=%d hits=%d drops=%d\n",
		stats.PooledBytes, stats.Allocated, stats.Hits, stats.Drops)
	return nil
}

// stressWorker repeatedly writes a random chunk into its own buffer, reads it
// back out, and occasionally transfers a prefix into a scratch buffer before
// clearing both, until ctx is done.
func stressWorker(ctx context.Context, pool *segbuf.SegmentPool, seed int) {
	rnd := rand.New(rand.NewSource(int64(seed) + 1))
	buf := segbuf.NewBuffer(pool)
	scratch := segbuf.NewBuffer(pool)
	chunk := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n := 1 + rnd.Intn(len(chunk))
		buf.Write(chunk[:n])

		if buf.Size() > 1024 && rnd.Intn(3) == 0 {
			if err := scratch.TransferFrom(buf, buf.Size()/2); err == nil {
				scratch.Clear()
			}
		}

		var drain [256]byte
		for buf.Size() >= int64(len(drain)) {
			if err := buf.ReadTo(drain[:]); err != nil {
				break
			}
		}
		buf.Clear()
	}
}

// runStats samples a freshly created pool's counters on an interval using
// go-timecache's cached clock, the way lethe paces its own periodic work.
func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	interval := fs.String("interval", "1s", "sampling interval")
	samples := fs.Int("samples", 5, "number of samples to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	d, err := segbuf.ParseDuration(*interval)
	if err != nil {
		return fmt.Errorf("interval: %w", err)
	}

	pool := segbuf.NewSegmentPool(segbuf.DefaultPoolConfig())
	clock := timecache.NewWithResolution(time.Millisecond)
	defer clock.Stop()

	for i := 0; i < *samples; i++ {
		start := clock.CachedTime()
		stats := pool.Stats()
		fmt.Printf("[%s] pooled_bytes=%d allocated=%d hits=%d drops=%d\n",
			start.Format(time.RFC3339), stats.PooledBytes, stats.Allocated, stats.Hits, stats.Drops)
		time.Sleep(d)
	}
	return nil
}
