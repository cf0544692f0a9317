package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrantTTL is how long a file grant stays usable after creation.
const GrantTTL = 30 * time.Minute

// Model is the primary key shared by every entity table.
type Model struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`
}

// BeforeCreate assigns a UUID if the caller did not pick one.
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Owned stamps a row with the user it belongs to.
type Owned struct {
	OwnerID string `gorm:"type:varchar(36);not null;index"`
}

// GetOwnerID returns the owning user id.
func (o *Owned) GetOwnerID() string { return o.OwnerID }

// SetOwnerID sets the owning user id.
func (o *Owned) SetOwnerID(id string) { o.OwnerID = id }

// User maps an identity-provider subject to a local id.
type User struct {
	Model
	NotaryID  string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// File is an uploaded object stored in the object store.
type File struct {
	Model
	Owned
	RemoteID      string `gorm:"not null"`
	FileName      string `gorm:"not null"`
	ContentLength int64
	SHA1          string    `gorm:"column:sha1"`
	UploadedAt    time.Time `gorm:"autoCreateTime;index"`
	Pinned        bool      `gorm:"not null;default:false"`
	Tags          []Tag     `gorm:"many2many:file_tags;constraint:OnDelete:CASCADE"`
}

// Note is a user-authored text document.
type Note struct {
	Model
	Owned
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"index"`
	Pinned    bool      `gorm:"not null;default:false"`
	Tags      []Tag     `gorm:"many2many:note_tags;constraint:OnDelete:CASCADE"`
}

// Tag is a node in a user's tag tree.
// (parent_id, name) is unique; a parent always belongs to the same owner, so the index is
// owner-scoped for child tags. Root tags have a NULL parent and are checked with FindSibling.
type Tag struct {
	Model
	Owned
	Name     string  `gorm:"not null;uniqueIndex:idx_tag_parent_name"`
	ParentID *string `gorm:"type:varchar(36);uniqueIndex:idx_tag_parent_name"`
	Parent   *Tag    `gorm:"constraint:OnDelete:CASCADE"`
}

// Cabinet is a folder in a user's cabinet tree holding ordered materials.
type Cabinet struct {
	Model
	Owned
	Name        string  `gorm:"not null;uniqueIndex:idx_cabinet_parent_name"`
	Description *string
	ParentID    *string           `gorm:"type:varchar(36);uniqueIndex:idx_cabinet_parent_name"`
	Parent      *Cabinet          `gorm:"constraint:OnDelete:CASCADE"`
	Materials   []CabinetMaterial `gorm:"constraint:OnDelete:CASCADE"`
}

// MaterialKind discriminates what a cabinet material points at.
type MaterialKind string

const (
	MaterialFile MaterialKind = "file"
	MaterialNote MaterialKind = "note"
)

// CabinetMaterial is one ordered entry in a cabinet: a file or a note, never both.
type CabinetMaterial struct {
	Model
	CabinetID  string       `gorm:"type:varchar(36);not null;index"`
	Position   int          `gorm:"not null"`
	Kind       MaterialKind `gorm:"type:varchar(8);not null"`
	MaterialID string       `gorm:"type:varchar(36);not null;index"`
}

// FileGrant is a time-boxed capability to download one file without authenticating.
type FileGrant struct {
	Model
	Owned
	FileID    string `gorm:"type:varchar(36);not null;index"`
	File      File   `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns the id and the default expiry.
func (g *FileGrant) BeforeCreate(tx *gorm.DB) error {
	if err := g.Model.BeforeCreate(tx); err != nil {
		return err
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	if g.ExpiresAt.IsZero() {
		g.ExpiresAt = g.CreatedAt.Add(GrantTTL)
	}
	return nil
}

// IsExpired reports whether the grant can no longer be used at now.
func (g *FileGrant) IsExpired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

// IndexKind names the search index a task targets.
type IndexKind string

const (
	IndexFile IndexKind = "file"
	IndexNote IndexKind = "note"
)

// IndexOp is the operation an index task applies.
type IndexOp string

const (
	IndexUpsert IndexOp = "upsert"
	IndexDelete IndexOp = "delete"
)

// IndexTask is an outbox row recording a pending search index write.
// It is inserted in the same transaction as the row change it mirrors.
type IndexTask struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	Kind          IndexKind `gorm:"type:varchar(8);not null"`
	Op            IndexOp   `gorm:"type:varchar(8);not null"`
	EntityID      string    `gorm:"type:varchar(36);not null"`
	OwnerID       string    `gorm:"type:varchar(36);not null"`
	Attempts      int       `gorm:"not null;default:0"`
	LastError     string
	NextAttemptAt time.Time `gorm:"index"`
	CreatedAt     time.Time
}
