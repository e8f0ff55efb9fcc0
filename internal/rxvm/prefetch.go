package rxvm

// asyncWorker overlaps the next iteration's dataset line derivation with
// the current iteration's interpretation (spec §4.H). It models the
// producer/consumer pair as a single-slot rendezvous: two capacity-1
// channels standing in for the request and ready handshakes named in
// spec §9's design note ("a bounded channel with capacity 1 suffices").
type asyncWorker struct {
	cache *Cache

	request chan uint64
	ready   chan [CacheLineSize]byte

	prepared   bool
	preparedAt uint64
}

// newAsyncWorker starts a worker goroutine bound to cache. The worker runs
// until stop is called; it owns no other state and derives lines purely
// from the requested index, so it needs no synchronization beyond the two
// channels.
func newAsyncWorker(cache *Cache) *asyncWorker {
	w := &asyncWorker{
		cache:   cache,
		request: make(chan uint64, 1),
		ready:   make(chan [CacheLineSize]byte, 1),
	}
	go w.run()
	return w
}

func (w *asyncWorker) run() {
	for idx := range w.request {
		var line [CacheLineSize]byte
		w.cache.GetLine(idx, line[:])
		w.ready <- line
	}
}

// prepareBlock submits a non-blocking request to derive the line at index.
func (w *asyncWorker) prepareBlock(index uint64) {
	w.request <- index
	w.prepared = true
	w.preparedAt = index
}

// getBlock blocks until the most recently prepared block is ready. Calling
// it for an index that was not the last one prepared is a programming
// error (spec §4.H), surfaced as ErrMisuse rather than silently returning
// stale data.
func (w *asyncWorker) getBlock(index uint64) [CacheLineSize]byte {
	if !w.prepared || w.preparedAt != index {
		panic(&ErrMisuse{Reason: "asyncWorker.getBlock: requested index does not match the prepared block"})
	}
	line := <-w.ready
	w.prepared = false
	return line
}

// stop tears down the worker goroutine. Safe to call once, after which no
// further prepareBlock calls may be made.
func (w *asyncWorker) stop() {
	close(w.request)
}
