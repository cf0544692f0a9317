// Package indexer delivers outbox tasks from the relational store to the search index.
//
// Every file or note mutation records a storage.IndexTask in the same transaction as the
// row change. After the commit the service calls Flush, which tries a few quick deliveries.
// Whatever is still undelivered stays in the outbox and is retried by Run with an
// exponentially growing delay.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/searchindex"
	"lessonarchiver/internal/storage"
)

const (
	flushTries    = 3
	flushInterval = 50 * time.Millisecond
	maxRetryDelay = time.Hour
)

// Options tunes the background worker.
type Options struct {
	// Interval is the polling period and the first retry delay.
	Interval time.Duration
	// BatchSize caps the tasks delivered per poll.
	BatchSize int
}

// Indexer delivers index tasks.
type Indexer struct {
	store     *storage.Store
	index     searchindex.Index
	interval  time.Duration
	batchSize int
	now       func() time.Time
	newRetry  func() backoff.BackOff
}

// New creates a new Indexer.
func New(store *storage.Store, index searchindex.Index, opts Options) *Indexer {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	return &Indexer{
		store:     store,
		index:     index,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		now:       time.Now,
		newRetry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = flushInterval
			b.MaxInterval = time.Second
			return b
		},
	}
}

// Task builds an outbox task. Its first worker attempt is one interval away so the
// worker does not race the Flush that follows the commit.
func (ix *Indexer) Task(kind storage.IndexKind, op storage.IndexOp, entityID, ownerID string) *storage.IndexTask {
	return &storage.IndexTask{
		Kind:          kind,
		Op:            op,
		EntityID:      entityID,
		OwnerID:       ownerID,
		NextAttemptAt: ix.now().Add(ix.interval),
	}
}

// Flush delivers tasks that were just committed. Failures are logged and rescheduled,
// never returned: the row change already succeeded.
func (ix *Indexer) Flush(ctx context.Context, tasks ...*storage.IndexTask) Stats {
	logger := contextutil.LoggerFromContext(ctx)
	var stats Stats

	for _, task := range tasks {
		converted, err := backoff.Retry(ctx, func() (bool, error) {
			return ix.deliver(ctx, task)
		},
			backoff.WithBackOff(ix.newRetry()),
			backoff.WithMaxTries(flushTries),
			backoff.WithNotify(func(err error, next time.Duration) {
				logger.WarnContext(ctx, "index delivery failed, retrying", "kind", task.Kind, "id", task.EntityID, "retry_in", next, "error", err)
			}),
		)
		ix.settle(ctx, task, converted, err, &stats)
	}
	return stats
}

// RunOnce delivers every due task once, up to the batch size.
func (ix *Indexer) RunOnce(ctx context.Context) (Stats, error) {
	var stats Stats

	tasks, err := ix.store.Outbox().Due(ctx, ix.now(), ix.batchSize)
	if err != nil {
		return stats, fmt.Errorf("failed to load due index tasks: %w", err)
	}
	for i := range tasks {
		if ctx.Err() != nil {
			break
		}
		task := &tasks[i]
		converted, err := ix.deliver(ctx, task)
		ix.settle(ctx, task, converted, err, &stats)
	}
	return stats, nil
}

// Run polls the outbox until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "index worker started", "interval", ix.interval, "batch_size", ix.batchSize)

	ticker := time.NewTicker(ix.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "index worker stopped")
			return nil
		case <-ticker.C:
			stats, err := ix.RunOnce(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "index worker poll failed", "error", err)
				continue
			}
			if stats.Attempted() > 0 {
				logger.InfoContext(ctx, "index worker delivered tasks",
					"delivered", stats.Delivered,
					"converted", stats.Converted,
					"rescheduled", stats.Rescheduled,
				)
			}
		}
	}
}

// Pending counts undelivered tasks.
func (ix *Indexer) Pending(ctx context.Context) (int64, error) {
	return ix.store.Outbox().Pending(ctx)
}

// settle removes a delivered task or pushes a failed one back.
func (ix *Indexer) settle(ctx context.Context, task *storage.IndexTask, converted bool, deliverErr error, stats *Stats) {
	logger := contextutil.LoggerFromContext(ctx)

	if deliverErr == nil {
		stats.Delivered++
		if converted {
			stats.Converted++
		}
		if err := ix.store.Outbox().Done(ctx, task.ID); err != nil {
			logger.ErrorContext(ctx, "failed to remove delivered index task", "task", task.ID, "error", err)
		}
		return
	}

	stats.Rescheduled++
	next := ix.now().Add(ix.retryDelay(task.Attempts))
	logger.WarnContext(ctx, "index delivery deferred",
		"kind", task.Kind,
		"op", task.Op,
		"id", task.EntityID,
		"attempts", task.Attempts+1,
		"next_attempt_at", next,
		"error", deliverErr,
	)
	if err := ix.store.Outbox().Reschedule(ctx, task, deliverErr, next); err != nil {
		logger.ErrorContext(ctx, "failed to reschedule index task", "task", task.ID, "error", err)
	}
}

// retryDelay doubles the interval per earlier attempt, capped at an hour.
func (ix *Indexer) retryDelay(attempts int) time.Duration {
	delay := ix.interval
	for i := 0; i < attempts && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	return min(delay, maxRetryDelay)
}

// deliver applies one task to the index. An upsert of a row that no longer exists
// becomes a delete, reported as converted.
func (ix *Indexer) deliver(ctx context.Context, task *storage.IndexTask) (bool, error) {
	kind := searchindex.Kind(task.Kind)

	if task.Op == storage.IndexDelete {
		return false, ix.index.Delete(ctx, kind, task.EntityID, task.OwnerID)
	}

	doc, err := ix.document(ctx, task)
	if errors.Is(err, storage.ErrNotFound) {
		return true, ix.index.Delete(ctx, kind, task.EntityID, task.OwnerID)
	}
	if err != nil {
		return false, err
	}
	return false, ix.index.Upsert(ctx, doc)
}

func (ix *Indexer) document(ctx context.Context, task *storage.IndexTask) (searchindex.Document, error) {
	switch task.Kind {
	case storage.IndexFile:
		file, err := ix.store.Files(task.OwnerID).FindByID(ctx, task.EntityID)
		if err != nil {
			return searchindex.Document{}, err
		}
		return searchindex.FileDocument(file.ID, file.OwnerID, file.FileName), nil
	case storage.IndexNote:
		note, err := ix.store.Notes(task.OwnerID).FindByID(ctx, task.EntityID)
		if err != nil {
			return searchindex.Document{}, err
		}
		return searchindex.NoteDocument(note.ID, note.OwnerID, note.Title, note.Body), nil
	default:
		return searchindex.Document{}, backoff.Permanent(fmt.Errorf("unknown index kind %q", task.Kind))
	}
}
