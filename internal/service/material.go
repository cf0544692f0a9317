package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_material_service.go -package=mocks -mock_names=MaterialService=MockMaterialService lessonarchiver/internal/service MaterialService

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/searchindex"
	"lessonarchiver/internal/storage"
)

// searchLimit caps the hits taken from each index per search.
const searchLimit = 20

// maxMaterialOffset bounds List offsets, since each side reads offset+limit rows.
const maxMaterialOffset = 10000

// MaterialService lists and searches files and notes together.
type MaterialService interface {
	// List returns files and notes merged newest first, optionally only pinned or unpinned ones.
	List(ctx context.Context, ownerID string, page Page, pinned *bool) ([]Material, error)
	// Search runs a full-text query over the owner's files and notes.
	Search(ctx context.Context, ownerID, q string) (SearchResult, error)
}

// materialService implements MaterialService.
type materialService struct {
	store *storage.Store
	index searchindex.Index
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(store *storage.Store, index searchindex.Index) MaterialService {
	return &materialService{store: store, index: index}
}

// List merges both listings. Each side is read up to offset+limit rows so the merged
// window is exact.
func (s *materialService) List(ctx context.Context, ownerID string, page Page, pinned *bool) ([]Material, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	if page.Offset > maxMaterialOffset {
		return nil, &ValidationError{Field: "offset", Message: "must be at most 10000"}
	}
	if page.Limit == 0 {
		return []Material{}, nil
	}

	window := storage.Page{Limit: page.Offset + page.Limit}
	files, err := s.store.Files(ownerID).List(ctx, window, pinned)
	if err != nil {
		return nil, storageError(err, "File")
	}
	notes, err := s.store.Notes(ownerID).List(ctx, window, pinned)
	if err != nil {
		return nil, storageError(err, "Note")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), fileTags(files), noteTags(notes))
	if err != nil {
		return nil, storageError(err, "Tag")
	}

	merged := make([]Material, 0, len(files)+len(notes))
	for i := range files {
		f := newFile(tree, &files[i])
		merged = append(merged, Material{Kind: storage.MaterialFile, File: &f})
	}
	for i := range notes {
		n := newNote(tree, &notes[i])
		merged = append(merged, Material{Kind: storage.MaterialNote, Note: &n})
	}
	slices.SortStableFunc(merged, func(a, b Material) int {
		return b.Time().Compare(a.Time())
	})

	if page.Offset >= len(merged) {
		return []Material{}, nil
	}
	end := min(page.Offset+page.Limit, len(merged))
	return merged[page.Offset:end], nil
}

// Search queries the file and note indexes concurrently, then loads the hits from the
// database in score order. Hits whose rows are gone are dropped.
func (s *materialService) Search(ctx context.Context, ownerID, q string) (SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q = strings.TrimSpace(q)
	if q == "" {
		return SearchResult{}, &ValidationError{Field: "q", Message: "cannot be empty"}
	}

	var files []storage.File
	var notes []storage.Note

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.search(gctx, searchindex.KindFile, ownerID, q)
		if err != nil {
			return err
		}
		rows, err := s.store.Files(ownerID).ByIDs(gctx, ids)
		if err != nil {
			return storageError(err, "File")
		}
		files = inHitOrder(ids, rows, func(f storage.File) string { return f.ID })
		return nil
	})
	g.Go(func() error {
		ids, err := s.search(gctx, searchindex.KindNote, ownerID, q)
		if err != nil {
			return err
		}
		rows, err := s.store.Notes(ownerID).ByIDs(gctx, ids)
		if err != nil {
			return storageError(err, "Note")
		}
		notes = inHitOrder(ids, rows, func(n storage.Note) string { return n.ID })
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "material search failed", "error", err)
		return SearchResult{}, err
	}

	tree, err := tagTree(ctx, s.store.Tags(ownerID), fileTags(files), noteTags(notes))
	if err != nil {
		return SearchResult{}, storageError(err, "Tag")
	}

	result := SearchResult{
		Query: q,
		Notes: make([]Note, len(notes)),
		Files: make([]File, len(files)),
	}
	for i := range notes {
		result.Notes[i] = newNote(tree, &notes[i])
	}
	for i := range files {
		result.Files[i] = newFile(tree, &files[i])
	}

	logger.InfoContext(ctx, "material search", "query_length", len(q), "files", len(files), "notes", len(notes))
	return result, nil
}

func (s *materialService) search(ctx context.Context, kind searchindex.Kind, ownerID, q string) ([]string, error) {
	hits, err := s.index.Search(ctx, kind, ownerID, q, searchLimit)
	if err != nil {
		return nil, externalError(err, "failed to search "+string(kind)+"s")
	}
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// inHitOrder orders rows like ids, dropping ids without a row.
func inHitOrder[T any](ids []string, rows []T, id func(T) string) []T {
	byID := make(map[string]T, len(rows))
	for _, row := range rows {
		byID[id(row)] = row
	}
	ordered := make([]T, 0, len(rows))
	for _, hitID := range ids {
		if row, ok := byID[hitID]; ok {
			ordered = append(ordered, row)
			delete(byID, hitID)
		}
	}
	return ordered
}
