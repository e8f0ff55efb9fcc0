package log

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is an instance of zerolog.Logger
type Logger struct {
	zerolog.Logger
}

type LoggerType uint8

const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

var (
	Root    zerolog.Logger
	VM      zerolog.Logger
	Cache   zerolog.Logger
	Dataset zerolog.Logger
	Miner   zerolog.Logger
)

// Options for Logger
type Options struct {
	// Enable Debug loglevel, default Info
	LogLevel zerolog.Level
	Type     LoggerType
}

func ParseLogLevel(loglevel string) (zerolog.Level, error) {
	return zerolog.ParseLevel(loglevel)
}

func Init(opts Options) {
	switch opts.Type {
	case ConsoleLogger:
		Root = zerolog.New(newConsoleWriter()).Level(opts.LogLevel).
			With().Timestamp().Logger()
	default:
		Root = zerolog.New(os.Stdout).Level(opts.LogLevel).
			With().Timestamp().Logger()
	}
	VM = Root.With().Str("component", "vm").Logger()
	Cache = Root.With().Str("component", "cache").Logger()
	Dataset = Root.With().Str("component", "dataset").Logger()
	Miner = Root.With().Str("component", "miner").Logger()
}

// HashRateTracker accumulates completed hashes from one or more mining
// workers and logs a throughput line at most once per interval, the way
// CPU/GPU miner CLIs report aggregate "H/s" rather than one line per nonce.
// Safe for concurrent use by multiple worker goroutines sharing one tracker.
type HashRateTracker struct {
	logger   zerolog.Logger
	interval time.Duration
	start    time.Time
	window   atomic.Uint64
	total    atomic.Uint64
	lastEmit atomic.Int64 // UnixNano
}

// NewHashRateTracker returns a tracker that reports to logger on the given
// interval.
func NewHashRateTracker(logger zerolog.Logger, interval time.Duration) *HashRateTracker {
	h := &HashRateTracker{logger: logger, interval: interval, start: time.Now()}
	h.lastEmit.Store(h.start.UnixNano())
	return h
}

// Add records n freshly computed hashes and, once interval has elapsed
// since the last report, logs the window's hash rate and the running total.
func (h *HashRateTracker) Add(n uint64) {
	h.window.Add(n)
	h.total.Add(n)

	now := time.Now()
	last := h.lastEmit.Load()
	if now.Sub(time.Unix(0, last)) < h.interval {
		return
	}
	if !h.lastEmit.CompareAndSwap(last, now.UnixNano()) {
		return // a concurrent caller already claimed this window
	}

	elapsed := now.Sub(time.Unix(0, last)).Seconds()
	window := h.window.Swap(0)
	rate := float64(window) / elapsed
	h.logger.Info().
		Float64("hashes_per_sec", rate).
		Uint64("total_hashes", h.total.Load()).
		Dur("uptime", now.Sub(h.start)).
		Msg("hash rate")
}

// hotPathFields are the fields a miner operator scans a scrolling console
// for between long-running VM executions: the nonce under test, its
// resulting digest, and the periodic hash-rate report. They're given an
// upper-case, unquoted key so they stand out from general-purpose fields
// (component, error context, ...) sharing the same log stream.
var hotPathFields = map[string]bool{
	"nonce":          true,
	"digest":         true,
	"hashes_per_sec": true,
	"total_hashes":   true,
}

func newConsoleWriter() zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	cw.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("message: \"%s\" |", i)
	}

	cw.FormatFieldName = func(i interface{}) string {
		name := fmt.Sprintf("%s", i)
		if hotPathFields[name] {
			return fmt.Sprintf("%s=", strings.ToUpper(name))
		}
		return fmt.Sprintf("\"%s\": ", name)
	}

	cw.FormatFieldValue = func(i interface{}) string {
		return fmt.Sprintf("\"%s\" |", i)
	}

	cw.FormatErrFieldValue = func(i interface{}) string {
		return fmt.Sprintf(" %s |", i)
	}
	return cw
}
