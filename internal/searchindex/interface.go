// Package searchindex keeps a per-owner full-text index of files and notes in Qdrant.
package searchindex

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks lessonarchiver/internal/searchindex Index

import "context"

// Kind names one of the indexed document collections.
type Kind string

const (
	KindFile Kind = "file"
	KindNote Kind = "note"
)

// Kinds lists every collection the index manages.
var Kinds = []Kind{KindFile, KindNote}

// Field is a piece of document text with its relevance weight.
type Field struct {
	Name   string
	Text   string
	Weight float32
}

// Document is one indexed entity.
type Document struct {
	Kind    Kind
	ID      string
	OwnerID string
	Fields  []Field
}

// Hit is a search result.
type Hit struct {
	ID    string
	Score float32
}

// Index defines the interface for search index operations.
// Every call is partitioned by owner; an owner never sees another owner's documents.
type Index interface {
	// EnsureCollections creates any missing collection. Safe to call repeatedly.
	EnsureCollections(ctx context.Context) error

	// Upsert writes doc, replacing any earlier version with the same id.
	Upsert(ctx context.Context, doc Document) error

	// Delete removes the document with id from the owner's partition.
	Delete(ctx context.Context, kind Kind, id, ownerID string) error

	// Search returns up to limit hits for query ordered by descending score.
	Search(ctx context.Context, kind Kind, ownerID, query string, limit int) ([]Hit, error)

	// Ping checks the index is reachable.
	Ping(ctx context.Context) error
}

// FileDocument builds the index document for a file. The file name is weighted ×3.
func FileDocument(id, ownerID, fileName string) Document {
	return Document{
		Kind:    KindFile,
		ID:      id,
		OwnerID: ownerID,
		Fields: []Field{
			{Name: "fileName", Text: fileName, Weight: 3},
		},
	}
}

// NoteDocument builds the index document for a note. The title is weighted ×3 and the
// Markdown body is indexed as plain text.
func NoteDocument(id, ownerID, title, body string) Document {
	return Document{
		Kind:    KindNote,
		ID:      id,
		OwnerID: ownerID,
		Fields: []Field{
			{Name: "title", Text: title, Weight: 3},
			{Name: "body", Text: MarkdownText(body), Weight: 1},
		},
	}
}
