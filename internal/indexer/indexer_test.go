package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/mock/gomock"

	"lessonarchiver/internal/searchindex"
	"lessonarchiver/internal/searchindex/mocks"
	"lessonarchiver/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.Open(storage.Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = storage.Close(db)
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return storage.NewStore(db)
}

func newTestIndexer(t *testing.T, index searchindex.Index) (*Indexer, *storage.Store) {
	t.Helper()

	store := newTestStore(t)
	ix := New(store, index, Options{Interval: time.Minute, BatchSize: 10})
	ix.newRetry = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return ix, store
}

// commit stores a file row and its task the way a service transaction would.
func commit(t *testing.T, ix *Indexer, store *storage.Store, owner string, op storage.IndexOp) (*storage.File, *storage.IndexTask) {
	t.Helper()
	ctx := context.Background()

	file := &storage.File{RemoteID: "uploads/1-syllabus.pdf", FileName: "syllabus.pdf"}
	var task *storage.IndexTask
	err := store.Transaction(ctx, func(tx *storage.Store) error {
		if err := tx.Files(owner).New(ctx, file); err != nil {
			return err
		}
		task = ix.Task(storage.IndexFile, op, file.ID, owner)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	return file, task
}

func TestIndexer_Flush(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("qdrant unavailable")

	tests := []struct {
		name        string
		deleteRow   bool
		mockSetup   func(m *mocks.MockIndex, file *storage.File)
		want        Stats
		wantPending int64
	}{
		{
			name: "upsert delivered",
			mockSetup: func(m *mocks.MockIndex, file *storage.File) {
				m.EXPECT().
					Upsert(gomock.Any(), searchindex.FileDocument(file.ID, "owner-1", "syllabus.pdf")).
					Return(nil)
			},
			want: Stats{Delivered: 1},
		},
		{
			name: "failure is kept for the worker",
			mockSetup: func(m *mocks.MockIndex, file *storage.File) {
				m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(boom).Times(flushTries)
			},
			want:        Stats{Rescheduled: 1},
			wantPending: 1,
		},
		{
			name:      "upsert of a deleted row becomes a delete",
			deleteRow: true,
			mockSetup: func(m *mocks.MockIndex, file *storage.File) {
				m.EXPECT().Delete(gomock.Any(), searchindex.KindFile, file.ID, "owner-1").Return(nil)
			},
			want: Stats{Delivered: 1, Converted: 1},
		},
		{
			name: "second attempt succeeds",
			mockSetup: func(m *mocks.MockIndex, file *storage.File) {
				gomock.InOrder(
					m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(boom),
					m.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
			want: Stats{Delivered: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			index := mocks.NewMockIndex(ctrl)
			ix, store := newTestIndexer(t, index)
			file, task := commit(t, ix, store, "owner-1", storage.IndexUpsert)
			if tt.deleteRow {
				if _, err := store.Files("owner-1").Delete(ctx, file.ID); err != nil {
					t.Fatalf("Delete() error = %v", err)
				}
			}
			tt.mockSetup(index, file)

			if got := ix.Flush(ctx, task); got != tt.want {
				t.Errorf("Flush() = %+v, want %+v", got, tt.want)
			}

			pending, err := ix.Pending(ctx)
			if err != nil {
				t.Fatalf("Pending() error = %v", err)
			}
			if pending != tt.wantPending {
				t.Errorf("Pending() = %d, want %d", pending, tt.wantPending)
			}
		})
	}
}

func TestIndexer_RunOnce_RedeliversRescheduled(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	index := mocks.NewMockIndex(ctrl)
	ix, store := newTestIndexer(t, index)
	start := time.Now()
	ix.now = func() time.Time { return start }

	_, task := commit(t, ix, store, "owner-1", storage.IndexDelete)

	index.EXPECT().Delete(gomock.Any(), searchindex.KindFile, task.EntityID, "owner-1").Return(errors.New("timeout")).Times(flushTries)
	if got := ix.Flush(ctx, task); got.Rescheduled != 1 {
		t.Fatalf("Flush() = %+v, want one rescheduled task", got)
	}

	stats, err := ix.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if stats.Attempted() != 0 {
		t.Errorf("RunOnce() before the retry delay attempted %d tasks, want 0", stats.Attempted())
	}

	ix.now = func() time.Time { return start.Add(2 * time.Minute) }
	index.EXPECT().Delete(gomock.Any(), searchindex.KindFile, task.EntityID, "owner-1").Return(nil)
	stats, err = ix.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if stats.Delivered != 1 {
		t.Errorf("RunOnce() = %+v, want one delivered task", stats)
	}

	tasks, err := store.Outbox().Due(ctx, start.Add(24*time.Hour), 10)
	if err != nil {
		t.Fatalf("Due() error = %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Due() after delivery returned %d tasks, want 0", len(tasks))
	}
}

func TestIndexer_RetryDelay(t *testing.T) {
	ix := New(nil, nil, Options{Interval: 30 * time.Second})

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{attempts: 0, want: 30 * time.Second},
		{attempts: 1, want: time.Minute},
		{attempts: 3, want: 4 * time.Minute},
		{attempts: 20, want: time.Hour},
	}

	for _, tt := range tests {
		if got := ix.retryDelay(tt.attempts); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestIndexer_Task(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ix := New(nil, nil, Options{Interval: time.Minute})
	ix.now = func() time.Time { return now }

	task := ix.Task(storage.IndexNote, storage.IndexUpsert, "n1", "o1")
	if task.Kind != storage.IndexNote || task.Op != storage.IndexUpsert || task.EntityID != "n1" || task.OwnerID != "o1" {
		t.Errorf("Task() = %+v", task)
	}
	if !task.NextAttemptAt.Equal(now.Add(time.Minute)) {
		t.Errorf("Task() NextAttemptAt = %v, want %v", task.NextAttemptAt, now.Add(time.Minute))
	}
}

func TestIndexer_RunStopsOnCancel(t *testing.T) {
	ix, _ := newTestIndexer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- ix.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
