package server

import (
	"context"
	"lunastars/internal/db"
	"lunastars/internal/metrics"
	"time"

	"go.uber.org/zap"
)

const flushInterval = 500 * time.Millisecond

// collectionWriter buffers collection rows and writes them in batches.
type collectionWriter struct {
	db        *db.DB
	buffer    chan db.CollectionEvent
	flush     chan chan struct{}
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func newCollectionWriter(database *db.DB, batchSize int, logger *zap.Logger, m *metrics.Metrics) *collectionWriter {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &collectionWriter{
		db:        database,
		buffer:    make(chan db.CollectionEvent, 1000),
		flush:     make(chan chan struct{}),
		batchSize: batchSize,
		logger:    logger,
		metrics:   m,
	}
}

// Add queues ev without blocking. It reports false when the buffer is full.
func (w *collectionWriter) Add(ev db.CollectionEvent) bool {
	select {
	case w.buffer <- ev:
		return true
	default:
		w.logger.Warn("collection buffer full, dropping event", zap.String("play", ev.PlayID))
		return false
	}
}

// Flush writes everything queued so far and waits for it, or for ctx.
func (w *collectionWriter) Flush(ctx context.Context) {
	done := make(chan struct{})
	select {
	case w.flush <- done:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Run writes batches until ctx is done, then writes whatever is left.
func (w *collectionWriter) Run(ctx context.Context) error {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]db.CollectionEvent, 0, w.batchSize)
	write := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.db.BatchRecordCollections(batch); err != nil {
			w.metrics.BatchErrors.Inc()
			w.logger.Warn("batch record collections, retrying one by one", zap.Error(err), zap.Int("size", len(batch)))
			w.writeEach(batch)
		} else {
			w.metrics.BatchesWritten.Inc()
		}
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case ev := <-w.buffer:
				batch = append(batch, ev)
			default:
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			drain()
			write()
			return nil
		case ev := <-w.buffer:
			batch = append(batch, ev)
			if len(batch) >= w.batchSize {
				write()
			}
		case done := <-w.flush:
			drain()
			write()
			close(done)
		case <-ticker.C:
			write()
		}
	}
}

// writeEach records rows individually so one bad row does not lose the batch.
func (w *collectionWriter) writeEach(batch []db.CollectionEvent) {
	for _, ev := range batch {
		if err := w.db.RecordCollection(ev); err != nil {
			w.logger.Error("record collection", zap.String("play", ev.PlayID), zap.Int("item", ev.ItemID), zap.Error(err))
		}
	}
}
