package handlers

import (
	"strconv"
	"time"

	"lessonarchiver/internal/service"
)

// TagPathPart is one step of a tag path.
type TagPathPart struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagResponse is a tag with its path from the root.
type TagResponse struct {
	ID   string        `json:"id"`
	Name string        `json:"name"`
	Path []TagPathPart `json:"path"`
}

// FileResponse describes an uploaded file.
type FileResponse struct {
	Type          string        `json:"type"`
	ID            string        `json:"id"`
	FileName      string        `json:"fileName"`
	ContentLength string        `json:"contentLength"`
	SHA1          string        `json:"sha1"`
	UploadedAt    time.Time     `json:"uploadedAt"`
	Pinned        bool          `json:"pinned"`
	Tags          []TagResponse `json:"tags"`
}

// NoteResponse describes a note.
type NoteResponse struct {
	Type      string        `json:"type"`
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Pinned    bool          `json:"pinned"`
	Tags      []TagResponse `json:"tags"`
}

// CabinetResponse describes a cabinet.
type CabinetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// GrantResponse is a download grant.
type GrantResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SearchResponse groups the matches of a materials search.
type SearchResponse struct {
	Q     string         `json:"q"`
	Notes []NoteResponse `json:"notes"`
	Files []FileResponse `json:"files"`
}

func toTagResponse(tag service.Tag) TagResponse {
	path := make([]TagPathPart, len(tag.Path))
	for i, ref := range tag.Path {
		path[i] = TagPathPart{ID: ref.ID, Name: ref.Name}
	}
	return TagResponse{ID: tag.ID, Name: tag.Name, Path: path}
}

func toTagResponses(tags []service.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, tag := range tags {
		out[i] = toTagResponse(tag)
	}
	return out
}

func toFileResponse(f service.File) FileResponse {
	return FileResponse{
		Type:          "file",
		ID:            f.ID,
		FileName:      f.FileName,
		ContentLength: strconv.FormatInt(f.ContentLength, 10),
		SHA1:          f.SHA1,
		UploadedAt:    f.UploadedAt,
		Pinned:        f.Pinned,
		Tags:          toTagResponses(f.Tags),
	}
}

func toFileResponses(files []service.File) []FileResponse {
	out := make([]FileResponse, len(files))
	for i, f := range files {
		out[i] = toFileResponse(f)
	}
	return out
}

func toNoteResponse(n service.Note) NoteResponse {
	return NoteResponse{
		Type:      "note",
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		UpdatedAt: n.UpdatedAt,
		Pinned:    n.Pinned,
		Tags:      toTagResponses(n.Tags),
	}
}

func toNoteResponses(notes []service.Note) []NoteResponse {
	out := make([]NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = toNoteResponse(n)
	}
	return out
}

func toCabinetResponse(c service.Cabinet) CabinetResponse {
	return CabinetResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

func toCabinetResponses(cabinets []service.Cabinet) []CabinetResponse {
	out := make([]CabinetResponse, len(cabinets))
	for i, c := range cabinets {
		out[i] = toCabinetResponse(c)
	}
	return out
}

// toMaterialResponses renders each material as a FileResponse or NoteResponse,
// told apart by their type field.
func toMaterialResponses(materials []service.Material) []any {
	out := make([]any, 0, len(materials))
	for _, m := range materials {
		switch {
		case m.File != nil:
			out = append(out, toFileResponse(*m.File))
		case m.Note != nil:
			out = append(out, toNoteResponse(*m.Note))
		}
	}
	return out
}
