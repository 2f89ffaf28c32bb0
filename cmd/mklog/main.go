// mklog writes a synthetic upload client service log for manual runs of
// netstats uploads. Attempts are mostly successful; some fail part way,
// some find every chunk already stored.
// Usage: go run ./cmd/mklog --out testdata/client.log --attempts 50 --payment-type merkle
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/gyeh/testnetstats/internal/model"
	"github.com/gyeh/testnetstats/internal/report"
	"github.com/gyeh/testnetstats/internal/uploadlog"
)

const divider = "=========================================="

func main() {
	out := flag.String("out", "testdata/client.log", "output log file")
	attempts := flag.Int("attempts", 20, "number of upload attempts to write")
	payment := flag.String("payment-type", "single-node", "payment type: single-node or merkle")
	seed := flag.Uint64("seed", 1, "random seed")
	failRate := flag.Float64("fail-rate", 0.2, "fraction of attempts that fail")
	check := flag.Bool("check", false, "parse the written log back and print the summary")
	flag.Parse()

	mode, err := model.ParsePaymentType(*payment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}

	g := &generator{
		w:        bufio.NewWriter(f),
		rng:      rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)),
		clock:    time.Date(2025, time.November, 14, 0, 41, 52, 0, time.UTC),
		mode:     mode,
		failRate: *failRate,
	}
	for i := 0; i < *attempts; i++ {
		g.attempt(i)
		g.noise()
	}
	if err := g.w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d attempts (%s) to %s\n", *attempts, mode, *out)

	if *check {
		l, err := uploadlog.ReadLog(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read back: %v\n", err)
			os.Exit(1)
		}
		parsed := slices.Collect(l.Attempts(mode))
		fmt.Printf("Boundaries: %d, parsed attempts: %d\n", l.Boundaries(), len(parsed))
		report.PrintSummary(os.Stdout, report.Summarize(parsed))
	}
}

type generator struct {
	w        *bufio.Writer
	rng      *rand.Rand
	clock    time.Time
	mode     model.PaymentType
	failRate float64
}

func (g *generator) line(format string, args ...any) {
	fmt.Fprintf(g.w, "%s %s\n", g.clock.Format(time.Stamp), fmt.Sprintf(format, args...))
}

func (g *generator) tick(max time.Duration) {
	g.clock = g.clock.Add(time.Duration(g.rng.Int64N(int64(max))) + time.Millisecond)
}

func (g *generator) hex64() string {
	return fmt.Sprintf("%016x%016x%016x%016x", g.rng.Uint64(), g.rng.Uint64(), g.rng.Uint64(), g.rng.Uint64())
}

func (g *generator) noise() {
	for n := g.rng.IntN(4); n > 0; n-- {
		g.tick(30 * time.Second)
		g.line("INFO client: heartbeat peers=%d", 20+g.rng.IntN(200))
	}
}

func (g *generator) attempt(i int) {
	start := g.clock
	name := fmt.Sprintf("/srv/uploads/batch-%03d/file-%05d.bin", i/10, i)
	sizeKB := 64 + g.rng.Int64N(512*1024)
	total := int(sizeKB/4096) + 3
	failed := g.rng.Float64() < g.failRate
	allExist := !failed && g.rng.IntN(10) == 0

	g.line(divider)
	g.line("Uploading Content")
	g.line(divider)
	g.line("File/Directory: %s", name)
	g.line("Size: %dKB", sizeKB)

	switch g.mode {
	case model.PaymentMerkle:
		g.tick(5 * time.Second)
		g.line("Encrypted %d/%d chunks in %.1fs", total, total, g.rng.Float64()*10)
		if !allExist {
			g.line("Starting upload of %d chunks in 1 Merkle Tree", total)
		}
	default:
		g.line("Processing estimated total %d chunks", total)
	}

	if allExist {
		g.line("All %d chunks already exist on the network, nothing to upload", total)
	} else {
		stored := total
		if failed {
			stored = g.rng.IntN(total)
		}
		for c := 1; c <= stored; c++ {
			g.tick(2 * time.Second)
			if g.rng.IntN(20) == 0 {
				g.line("WARN chunk upload timed out, retrying")
				g.line("Retry succeeded for chunk: %s", g.hex64())
				continue
			}
			g.line("(%d/%d) Chunk stored at: %s", c, total, g.hex64())
		}
	}

	g.tick(time.Second)
	if failed {
		g.line("Failed to upload %s: quote expired", name)
	} else {
		g.line("Successfully uploaded: %s", name)
		g.line("At address: %s", g.hex64())
	}
	g.line("Elapsed time: %.3f seconds", g.clock.Sub(start).Seconds())
}
