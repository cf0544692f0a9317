package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_tag_service.go -package=mocks -mock_names=TagService=MockTagService lessonarchiver/internal/service TagService

import (
	"context"
	"errors"
	"strings"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/storage"
)

// TagInput names a new tag and optionally its parent.
type TagInput struct {
	Name     string
	ParentID *string
}

// TagService manages the tag tree.
type TagService interface {
	// List returns tags whose name contains q, case-insensitively.
	List(ctx context.Context, ownerID, q string) ([]Tag, error)
	// Create creates a tag under an optional parent.
	Create(ctx context.Context, ownerID string, in TagInput) (Tag, error)
	// Delete deletes a tag and its descendants, returning the tag as it was.
	Delete(ctx context.Context, ownerID, id string) (Tag, error)
}

// tagService implements TagService.
type tagService struct {
	store *storage.Store
}

// NewTagService creates a new TagService.
func NewTagService(store *storage.Store) TagService {
	return &tagService{store: store}
}

// List returns matching tags with their paths.
func (s *tagService) List(ctx context.Context, ownerID, q string) ([]Tag, error) {
	repo := s.store.Tags(ownerID)
	rows, err := repo.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, storageError(err, "Tag")
	}
	tree, err := tagTree(ctx, repo, rows)
	if err != nil {
		return nil, storageError(err, "Tag")
	}
	return newTags(tree, rows), nil
}

// Create creates a tag. Sibling names are unique. The lookup gives the common case a clean
// conflict; concurrent root creates are caught by the root name index.
func (s *tagService) Create(ctx context.Context, ownerID string, in TagInput) (Tag, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Tag{}, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	tag := &storage.Tag{Name: name, ParentID: in.ParentID}
	var tree map[string]storage.Tag
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		tags := tx.Tags(ownerID)
		if in.ParentID != nil {
			if _, err := tags.FindByID(ctx, *in.ParentID); err != nil {
				return storageError(err, "Parent tag")
			}
		}
		_, err := tags.FindSibling(ctx, in.ParentID, name)
		switch {
		case err == nil:
			return &ConflictError{Resource: "Tag"}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		if err := tags.New(ctx, tag); err != nil {
			return err
		}
		tree, err = tags.Tree(ctx)
		return err
	})
	if err != nil {
		return Tag{}, storageError(err, "Tag")
	}

	logger.InfoContext(ctx, "tag created", "tag_id", tag.ID)
	return newTag(tree, *tag), nil
}

// Delete deletes a tag. Children go with it through the parent foreign key.
func (s *tagService) Delete(ctx context.Context, ownerID, id string) (Tag, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var deleted Tag
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		tags := tx.Tags(ownerID)
		tree, err := tags.Tree(ctx)
		if err != nil {
			return err
		}
		tag, err := tags.Delete(ctx, id)
		if err != nil {
			return err
		}
		deleted = newTag(tree, *tag)
		return nil
	})
	if err != nil {
		return Tag{}, storageError(err, "Tag")
	}

	logger.InfoContext(ctx, "tag deleted", "tag_id", id)
	return deleted, nil
}
