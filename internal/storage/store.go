package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a record is not found or is owned by someone else.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("record already exists")
)

// translate maps gorm errors onto the storage sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

// Store gives access to every repository over one connection or transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a transaction-bound Store. The transaction commits if fn
// returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Users returns the user repository.
func (s *Store) Users() *UserRepo {
	return &UserRepo{db: s.db}
}

// Files returns the file repository scoped to ownerID.
func (s *Store) Files(ownerID string) *FileRepo {
	return &FileRepo{Scope: WithOwner[File](s.db, ownerID)}
}

// Notes returns the note repository scoped to ownerID.
func (s *Store) Notes(ownerID string) *NoteRepo {
	return &NoteRepo{Scope: WithOwner[Note](s.db, ownerID)}
}

// Tags returns the tag repository scoped to ownerID.
func (s *Store) Tags(ownerID string) *TagRepo {
	return &TagRepo{Scope: WithOwner[Tag](s.db, ownerID)}
}

// Cabinets returns the cabinet repository scoped to ownerID.
func (s *Store) Cabinets(ownerID string) *CabinetRepo {
	return &CabinetRepo{Scope: WithOwner[Cabinet](s.db, ownerID)}
}

// Grants returns the file grant repository scoped to ownerID.
func (s *Store) Grants(ownerID string) *GrantRepo {
	return &GrantRepo{Scope: WithOwner[FileGrant](s.db, ownerID)}
}

// Outbox returns the index task repository.
func (s *Store) Outbox() *OutboxRepo {
	return &OutboxRepo{db: s.db}
}

// ownedRow is satisfied by pointers to models embedding Owned.
type ownedRow[T any] interface {
	*T
	GetOwnerID() string
	SetOwnerID(id string)
}

// Scope binds every query on T to a single owner. Rows owned by anyone else are
// indistinguishable from rows that do not exist.
type Scope[T any, P ownedRow[T]] struct {
	db      *gorm.DB
	ownerID string
}

// WithOwner returns a Scope over T for ownerID.
func WithOwner[T any, P ownedRow[T]](db *gorm.DB, ownerID string) *Scope[T, P] {
	return &Scope[T, P]{db: db, ownerID: ownerID}
}

// OwnerID returns the owner this scope is bound to.
func (s *Scope[T, P]) OwnerID() string {
	return s.ownerID
}

// Query returns a query builder on T already filtered by owner.
func (s *Scope[T, P]) Query(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(new(T)).Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "owner_id"},
		Value:  s.ownerID,
	})
}

// New creates row, stamping it with the scope's owner whatever the caller set.
func (s *Scope[T, P]) New(ctx context.Context, row P) error {
	row.SetOwnerID(s.ownerID)
	return translate(s.db.WithContext(ctx).Create(row).Error)
}

// Find returns every owned row matching the given gorm scopes.
func (s *Scope[T, P]) Find(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var rows []T
	if err := s.Query(ctx).Scopes(scopes...).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

// All returns every owned row.
func (s *Scope[T, P]) All(ctx context.Context) ([]T, error) {
	return s.Find(ctx)
}

// FindByID returns the row with id if the scope's owner owns it, ErrNotFound otherwise.
// Ids that are not UUIDs are reported as not found.
func (s *Scope[T, P]) FindByID(ctx context.Context, id string, scopes ...func(*gorm.DB) *gorm.DB) (P, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := P(new(T))
	err := s.Query(ctx).Scopes(scopes...).
		Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id}).
		First(row).Error
	if err != nil {
		return nil, translate(err)
	}
	return row, nil
}

// Save writes every field of row. Rows owned by another user are refused with ErrNotFound.
func (s *Scope[T, P]) Save(ctx context.Context, row P) error {
	if row.GetOwnerID() != s.ownerID {
		return ErrNotFound
	}
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Save(row).Error)
}

// Delete removes the owned row with id and returns it as it was before deletion.
func (s *Scope[T, P]) Delete(ctx context.Context, id string) (P, error) {
	row, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return nil, translate(err)
	}
	return row, nil
}

// Preload eager-loads an association, for use with Find and FindByID.
func Preload(association string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	}
}

// Paginate applies limit and offset.
func Paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(p.Limit).Offset(p.Offset)
	}
}
