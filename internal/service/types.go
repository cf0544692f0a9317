package service

import (
	"context"
	"io"
	"time"

	"lessonarchiver/internal/identity"
	"lessonarchiver/internal/indexer"
	"lessonarchiver/internal/storage"
)

// MaxPageSize is the largest page a listing returns.
const MaxPageSize = 20

// Indexer mirrors committed file and note changes into the search index.
type Indexer interface {
	// Task builds the outbox row to enqueue alongside a row change.
	Task(kind storage.IndexKind, op storage.IndexOp, entityID, ownerID string) *storage.IndexTask
	// Flush delivers tasks after their transaction committed.
	Flush(ctx context.Context, tasks ...*storage.IndexTask) indexer.Stats
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) validate() error {
	if p.Limit < 0 || p.Limit > MaxPageSize {
		return &ValidationError{Field: "limit", Message: "must be between 0 and 20"}
	}
	if p.Offset < 0 {
		return &ValidationError{Field: "offset", Message: "cannot be negative"}
	}
	return nil
}

func (p Page) storage() storage.Page {
	return storage.Page{Limit: p.Limit, Offset: p.Offset}
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Claims identity.Claims
}

// TagRef is one step of a tag path.
type TagRef struct {
	ID   string
	Name string
}

// Tag is a tag with its path from the root.
type Tag struct {
	ID       string
	Name     string
	ParentID *string
	Path     []TagRef
}

// File is an uploaded file.
type File struct {
	ID            string
	FileName      string
	ContentLength int64
	SHA1          string
	UploadedAt    time.Time
	Pinned        bool
	Tags          []Tag
}

// Note is a text note.
type Note struct {
	ID        string
	Title     string
	Body      string
	UpdatedAt time.Time
	Pinned    bool
	Tags      []Tag
}

// Cabinet is a folder of ordered materials.
type Cabinet struct {
	ID          string
	Name        string
	Description *string
	ParentID    *string
}

// Material is either a file or a note. Exactly one of File and Note is set, matching Kind.
type Material struct {
	Kind storage.MaterialKind
	File *File
	Note *Note
}

// Time is the instant materials are ordered by: upload time for files, last update for notes.
func (m Material) Time() time.Time {
	if m.File != nil {
		return m.File.UploadedAt
	}
	if m.Note != nil {
		return m.Note.UpdatedAt
	}
	return time.Time{}
}

// Grant is a time-boxed download capability.
type Grant struct {
	Token     string
	ExpiresAt time.Time
}

// SearchResult groups the matches of a materials search.
type SearchResult struct {
	Query string
	Notes []Note
	Files []File
}

// Download is an open file body. The caller closes Body.
type Download struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// tagTree loads the owner's tags for path rendering, skipping the query when none of
// the rows carry tags.
func tagTree(ctx context.Context, repo *storage.TagRepo, tagged ...[]storage.Tag) (map[string]storage.Tag, error) {
	for _, tags := range tagged {
		if len(tags) > 0 {
			return repo.Tree(ctx)
		}
	}
	return nil, nil
}

func newTag(tree map[string]storage.Tag, tag storage.Tag) Tag {
	path := storage.TagPath(tree, tag.ID)
	if len(path) == 0 {
		path = []storage.Tag{tag}
	}
	refs := make([]TagRef, len(path))
	for i, t := range path {
		refs[i] = TagRef{ID: t.ID, Name: t.Name}
	}
	return Tag{ID: tag.ID, Name: tag.Name, ParentID: tag.ParentID, Path: refs}
}

func newTags(tree map[string]storage.Tag, tags []storage.Tag) []Tag {
	out := make([]Tag, len(tags))
	for i, tag := range tags {
		out[i] = newTag(tree, tag)
	}
	return out
}

func newFile(tree map[string]storage.Tag, f *storage.File) File {
	return File{
		ID:            f.ID,
		FileName:      f.FileName,
		ContentLength: f.ContentLength,
		SHA1:          f.SHA1,
		UploadedAt:    f.UploadedAt,
		Pinned:        f.Pinned,
		Tags:          newTags(tree, f.Tags),
	}
}

func newNote(tree map[string]storage.Tag, n *storage.Note) Note {
	return Note{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		UpdatedAt: n.UpdatedAt,
		Pinned:    n.Pinned,
		Tags:      newTags(tree, n.Tags),
	}
}

func newCabinet(c *storage.Cabinet) Cabinet {
	return Cabinet{ID: c.ID, Name: c.Name, Description: c.Description, ParentID: c.ParentID}
}

func newCabinets(rows []storage.Cabinet) []Cabinet {
	out := make([]Cabinet, len(rows))
	for i := range rows {
		out[i] = newCabinet(&rows[i])
	}
	return out
}

func fileTags(files []storage.File) []storage.Tag {
	var tags []storage.Tag
	for _, f := range files {
		tags = append(tags, f.Tags...)
	}
	return tags
}

func noteTags(notes []storage.Note) []storage.Tag {
	var tags []storage.Tag
	for _, n := range notes {
		tags = append(tags, n.Tags...)
	}
	return tags
}
