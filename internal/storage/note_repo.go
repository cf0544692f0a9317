package storage

import "context"

// NoteRepo provides owner-scoped note operations.
type NoteRepo struct {
	*Scope[Note, *Note]
}

// Get gets a note with its tags.
func (r *NoteRepo) Get(ctx context.Context, id string) (*Note, error) {
	return r.FindByID(ctx, id, Preload("Tags"))
}

// List returns notes most recently updated first, optionally filtered by the pinned flag.
func (r *NoteRepo) List(ctx context.Context, page Page, pinned *bool) ([]Note, error) {
	return r.Find(ctx,
		Preload("Tags"),
		pinnedFilter(pinned),
		orderDesc("updated_at"),
		Paginate(page),
	)
}

// ByIDs returns the notes among ids. Unknown ids are skipped.
func (r *NoteRepo) ByIDs(ctx context.Context, ids []string) ([]Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Find(ctx, Preload("Tags"), idIn(ids))
}

// ReplaceTags sets the note's tags to exactly tags.
func (r *NoteRepo) ReplaceTags(ctx context.Context, note *Note, tags []Tag) error {
	return replaceTags(ctx, r.db, note, tags)
}
