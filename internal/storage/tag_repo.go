package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// TagRepo provides owner-scoped tag operations.
type TagRepo struct {
	*Scope[Tag, *Tag]
}

// Search returns tags whose name contains q, case-insensitively. An empty q matches every tag.
func (r *TagRepo) Search(ctx context.Context, q string) ([]Tag, error) {
	return r.Find(ctx, func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db.Order("name")
		}
		return db.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(q))+"%").Order("name")
	})
}

// FindSibling gets the tag named name under parentID, or under no parent when parentID is nil.
func (r *TagRepo) FindSibling(ctx context.Context, parentID *string, name string) (*Tag, error) {
	var tag Tag
	err := r.Query(ctx).Scopes(childOf(parentID)).Where("name = ?", name).First(&tag).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

// Resolve gets every tag in ids. Any id the owner does not have yields ErrNotFound.
func (r *TagRepo) Resolve(ctx context.Context, ids []string) ([]Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	tags, err := r.Find(ctx, idIn(ids))
	if err != nil {
		return nil, err
	}
	if len(tags) != len(unique) {
		return nil, ErrNotFound
	}
	return tags, nil
}

// Tree returns every tag of the owner keyed by id.
func (r *TagRepo) Tree(ctx context.Context) (map[string]Tag, error) {
	tags, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	tree := make(map[string]Tag, len(tags))
	for _, tag := range tags {
		tree[tag.ID] = tag
	}
	return tree, nil
}

// TagPath returns the chain of tags from the root down to id, using tree for lookups.
// A parent missing from tree ends the walk.
func TagPath(tree map[string]Tag, id string) []Tag {
	var path []Tag
	seen := make(map[string]bool)
	for cur, ok := tree[id]; ok && !seen[cur.ID]; {
		seen[cur.ID] = true
		path = append(path, cur)
		if cur.ParentID == nil {
			break
		}
		cur, ok = tree[*cur.ParentID]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func childOf(parentID *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if parentID == nil {
			return db.Where("parent_id IS NULL")
		}
		return db.Where("parent_id = ?", *parentID)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
