package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_service.go -package=mocks -mock_names=NoteService=MockNoteService lessonarchiver/internal/service NoteService

import (
	"context"
	"errors"
	"strings"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/storage"
)

// NoteInput is the editable content of a note.
type NoteInput struct {
	Title string
	Body  string
	Tags  []string
}

// NoteService manages notes.
type NoteService interface {
	// Create creates a note.
	Create(ctx context.Context, ownerID string, in NoteInput) (Note, error)
	// Get returns a note.
	Get(ctx context.Context, ownerID, id string) (Note, error)
	// List returns notes most recently updated first.
	List(ctx context.Context, ownerID string, page Page) ([]Note, error)
	// Update replaces a note's title, body and tags.
	Update(ctx context.Context, ownerID, id string, in NoteInput) (Note, error)
	// Delete deletes a note and returns it as it was.
	Delete(ctx context.Context, ownerID, id string) (Note, error)
}

// noteService implements NoteService.
type noteService struct {
	store   *storage.Store
	indexer Indexer
}

// NewNoteService creates a new NoteService.
func NewNoteService(store *storage.Store, indexer Indexer) NoteService {
	return &noteService{store: store, indexer: indexer}
}

// Create creates a note.
func (s *noteService) Create(ctx context.Context, ownerID string, in NoteInput) (Note, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := in.validate(); err != nil {
		return Note{}, err
	}

	note := &storage.Note{Title: in.Title, Body: in.Body}
	var task *storage.IndexTask
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		tags, err := resolveNoteTags(ctx, tx, ownerID, in.Tags)
		if err != nil {
			return err
		}
		notes := tx.Notes(ownerID)
		if err := notes.New(ctx, note); err != nil {
			return err
		}
		if err := notes.ReplaceTags(ctx, note, tags); err != nil {
			return err
		}
		task = s.indexer.Task(storage.IndexNote, storage.IndexUpsert, note.ID, ownerID)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		return Note{}, storageError(err, "Note")
	}
	s.indexer.Flush(ctx, task)

	logger.InfoContext(ctx, "note created", "note_id", note.ID)
	return s.Get(ctx, ownerID, note.ID)
}

// Get returns a note.
func (s *noteService) Get(ctx context.Context, ownerID, id string) (Note, error) {
	note, err := s.store.Notes(ownerID).Get(ctx, id)
	if err != nil {
		return Note{}, storageError(err, "Note")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), note.Tags)
	if err != nil {
		return Note{}, storageError(err, "Tag")
	}
	return newNote(tree, note), nil
}

// List returns notes most recently updated first.
func (s *noteService) List(ctx context.Context, ownerID string, page Page) ([]Note, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.store.Notes(ownerID).List(ctx, page.storage(), nil)
	if err != nil {
		return nil, storageError(err, "Note")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), noteTags(rows))
	if err != nil {
		return nil, storageError(err, "Tag")
	}
	notes := make([]Note, len(rows))
	for i := range rows {
		notes[i] = newNote(tree, &rows[i])
	}
	return notes, nil
}

// Update replaces a note's title, body and tags.
func (s *noteService) Update(ctx context.Context, ownerID, id string, in NoteInput) (Note, error) {
	if err := in.validate(); err != nil {
		return Note{}, err
	}

	var task *storage.IndexTask
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		tags, err := resolveNoteTags(ctx, tx, ownerID, in.Tags)
		if err != nil {
			return err
		}
		notes := tx.Notes(ownerID)
		note, err := notes.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Note")
		}
		note.Title = in.Title
		note.Body = in.Body
		if err := notes.Save(ctx, note); err != nil {
			return err
		}
		if err := notes.ReplaceTags(ctx, note, tags); err != nil {
			return err
		}
		task = s.indexer.Task(storage.IndexNote, storage.IndexUpsert, note.ID, ownerID)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		return Note{}, storageError(err, "Note")
	}
	s.indexer.Flush(ctx, task)
	return s.Get(ctx, ownerID, id)
}

// Delete removes the note, its cabinet entries and its index document.
func (s *noteService) Delete(ctx context.Context, ownerID, id string) (Note, error) {
	logger := contextutil.LoggerFromContext(ctx)

	deleted, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Note{}, err
	}

	var task *storage.IndexTask
	err = s.store.Transaction(ctx, func(tx *storage.Store) error {
		if _, err := tx.Notes(ownerID).Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Cabinets(ownerID).DropMaterial(ctx, storage.MaterialNote, id); err != nil {
			return err
		}
		task = s.indexer.Task(storage.IndexNote, storage.IndexDelete, id, ownerID)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		return Note{}, storageError(err, "Note")
	}
	s.indexer.Flush(ctx, task)

	logger.InfoContext(ctx, "note deleted", "note_id", id)
	return deleted, nil
}

func (in NoteInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "cannot be empty"}
	}
	return nil
}

// resolveNoteTags rejects unknown tags as bad input rather than a missing resource.
func resolveNoteTags(ctx context.Context, tx *storage.Store, ownerID string, ids []string) ([]storage.Tag, error) {
	tags, err := tx.Tags(ownerID).Resolve(ctx, ids)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &ValidationError{Field: "tags", Message: "unknown tag"}
	}
	return tags, err
}
