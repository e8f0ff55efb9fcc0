// Command rxhash is the mining/benchmark harness for the rxvm proof-of-work
// core: it seeds a VM (light cache or full dataset), claims nonces from a
// shared atomic counter across a worker pool, and logs each digest at debug
// level alongside a periodic hash-rate report. Flag-based CLI, grounded on
// the teacher's cmd/strawberry/main.go.
package main

import (
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	icrypto "github.com/extenami/RandomX/internal/crypto"
	"github.com/extenami/RandomX/internal/rxvm"
	"github.com/extenami/RandomX/pkg/log"
)

func main() {
	var (
		seedHex    = flag.String("seed", "", "hex-encoded seed (required)")
		nonceStart = flag.Uint64("nonce-start", 0, "first nonce to claim")
		count      = flag.Uint64("count", 1, "number of nonces to hash")
		threads    = flag.Int("threads", 1, "number of worker goroutines")
		full       = flag.Bool("full", false, "materialize the full 4 GiB dataset instead of light-cache mode")
		async      = flag.Bool("async", false, "enable the async prefetch worker (light mode only)")
		logLevel   = flag.String("log-level", "info", "log level: debug|info|warn|error")
	)
	flag.Parse()

	level, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(1)
	}
	log.Init(log.Options{LogLevel: level, Type: log.ConsoleLogger})

	if *seedHex == "" {
		fmt.Fprintln(os.Stderr, "missing required -seed")
		os.Exit(1)
	}
	seed, err := icrypto.StringToHex(*seedHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -seed: %v\n", err)
		os.Exit(1)
	}

	if err := run(seed, *nonceStart, *count, *threads, *full, *async); err != nil {
		log.Root.Error().Err(err).Msg("rxhash failed")
		os.Exit(1)
	}
}

func run(seed []byte, nonceStart, count uint64, threads int, full, async bool) error {
	cache, err := rxvm.NewCache(icrypto.SeedHash(seed), rxvm.AesExpander{})
	if err != nil {
		return fmt.Errorf("building cache: %w", err)
	}
	log.Cache.Info().Msg("cache ready")

	var dataset *rxvm.Dataset
	mode := rxvm.ModeLight
	if async {
		mode = rxvm.ModeLightAsync
	}
	if full {
		dataset, err = rxvm.NewDataset(cache, threads)
		if err != nil {
			return fmt.Errorf("building dataset: %w", err)
		}
		mode = rxvm.ModeFull
		log.Dataset.Info().Msg("dataset ready")
	}

	var nextNonce atomic.Uint64
	nextNonce.Store(nonceStart)
	end := nonceStart + count

	rate := log.NewHashRateTracker(log.Miner, 5*time.Second)

	var g errgroup.Group
	for w := 0; w < threads; w++ {
		w := w
		g.Go(func() error {
			vm, err := rxvm.NewVM(mode, cache, dataset)
			if err != nil {
				return &rxvm.ErrWorker{Worker: w, Err: err}
			}
			defer vm.Close()

			for {
				nonce := nextNonce.Add(1) - 1
				if nonce >= end {
					return nil
				}
				var nonceBlob [4]byte
				binary.LittleEndian.PutUint32(nonceBlob[:], uint32(nonce))
				digest := vm.Execute(seed, nonceBlob[:])
				log.Miner.Debug().
					Uint64("nonce", nonce).
					Str("digest", hex.EncodeToString(digest[:])).
					Msg("hashed nonce")
				rate.Add(1)
			}
		})
	}
	return g.Wait()
}
