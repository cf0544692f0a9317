package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileRepo provides owner-scoped file operations.
type FileRepo struct {
	*Scope[File, *File]
}

// Get gets a file with its tags.
func (r *FileRepo) Get(ctx context.Context, id string) (*File, error) {
	return r.FindByID(ctx, id, Preload("Tags"))
}

// List returns files newest first, optionally filtered by the pinned flag.
func (r *FileRepo) List(ctx context.Context, page Page, pinned *bool) ([]File, error) {
	return r.Find(ctx,
		Preload("Tags"),
		pinnedFilter(pinned),
		orderDesc("uploaded_at"),
		Paginate(page),
	)
}

// ByIDs returns the files among ids, in no particular order. Unknown ids are skipped.
func (r *FileRepo) ByIDs(ctx context.Context, ids []string) ([]File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.Find(ctx, Preload("Tags"), idIn(ids))
}

// ReplaceTags sets the file's tags to exactly tags.
func (r *FileRepo) ReplaceTags(ctx context.Context, file *File, tags []Tag) error {
	return replaceTags(ctx, r.db, file, tags)
}

func replaceTags(ctx context.Context, db *gorm.DB, owner any, tags []Tag) error {
	assoc := db.WithContext(ctx).Model(owner).Association("Tags")
	if len(tags) == 0 {
		return translate(assoc.Clear())
	}
	return translate(assoc.Replace(tags))
}

func pinnedFilter(pinned *bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pinned == nil {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "pinned"}, Value: *pinned})
	}
}

func orderDesc(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Desc: true},
			{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}},
		}})
	}
}

func idIn(ids []string) func(*gorm.DB) *gorm.DB {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.IN{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Values: values})
	}
}
