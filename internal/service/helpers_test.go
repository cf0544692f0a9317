package service_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lessonarchiver/internal/indexer"
	"lessonarchiver/internal/storage"
)

func init() {
	// Keep service logging out of test output.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

// newTestStore opens a migrated SQLite database in a temp dir.
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

// newTestUser creates a user and returns its id.
func newTestUser(t *testing.T, s *storage.Store, notaryID string) string {
	t.Helper()

	user, err := s.Users().FindOrCreate(testContext(), notaryID)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	return user.ID
}

// recordingIndexer records flushed tasks instead of delivering them, so they stay in the outbox.
type recordingIndexer struct {
	mu      sync.Mutex
	flushed []storage.IndexTask
}

func (r *recordingIndexer) Task(kind storage.IndexKind, op storage.IndexOp, entityID, ownerID string) *storage.IndexTask {
	return &storage.IndexTask{
		Kind:          kind,
		Op:            op,
		EntityID:      entityID,
		OwnerID:       ownerID,
		NextAttemptAt: time.Now().Add(time.Minute),
	}
}

func (r *recordingIndexer) Flush(_ context.Context, tasks ...*storage.IndexTask) indexer.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range tasks {
		if task != nil {
			r.flushed = append(r.flushed, *task)
		}
	}
	return indexer.Stats{}
}

func (r *recordingIndexer) tasks() []storage.IndexTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.IndexTask(nil), r.flushed...)
}

// seedFile inserts a file row directly, bypassing the object store.
func seedFile(t *testing.T, s *storage.Store, ownerID, name string, uploadedAt time.Time) *storage.File {
	t.Helper()

	file := &storage.File{
		RemoteID:   "uploads/" + name,
		FileName:   name,
		UploadedAt: uploadedAt,
	}
	if err := s.Files(ownerID).New(testContext(), file); err != nil {
		t.Fatalf("Files().New() error = %v", err)
	}
	return file
}

// seedTag inserts a tag directly.
func seedTag(t *testing.T, s *storage.Store, ownerID, name string, parentID *string) *storage.Tag {
	t.Helper()

	tag := &storage.Tag{Name: name, ParentID: parentID}
	if err := s.Tags(ownerID).New(testContext(), tag); err != nil {
		t.Fatalf("Tags().New() error = %v", err)
	}
	return tag
}

func ptr[T any](v T) *T {
	return &v
}
