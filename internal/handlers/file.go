package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/service"
)

// FileHandler handles uploads, downloads and file metadata.
type FileHandler struct {
	files service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// UpdateFileRequest is the body of PUT /file/{id}.
type UpdateFileRequest struct {
	Pinned bool     `json:"pinned"`
	Tags   []string `json:"tags"`
}

// Upload handles POST /file/upload. Every file part is stored on its own; parts
// that fail are logged and skipped, and the files stored so far are returned.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	reader, err := r.MultipartReader()
	if err != nil {
		logger.WarnContext(ctx, "upload is not multipart", "error", err)
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	uploaded := []FileResponse{}
	var lastErr error
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to read multipart body", "error", err)
			lastErr = err
			break
		}
		if part.FileName() == "" {
			logger.WarnContext(ctx, "skipping non-file part", "field", part.FormName())
			_ = part.Close()
			continue
		}

		file, err := h.files.Upload(ctx, owner, service.UploadInput{
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        part,
		})
		_ = part.Close()
		if err != nil {
			logger.ErrorContext(ctx, "failed to upload file part", "file_name", part.FileName(), "error", err)
			lastErr = err
			continue
		}
		uploaded = append(uploaded, toFileResponse(file))
	}

	if len(uploaded) == 0 {
		if lastErr != nil {
			http.Error(w, "Upload failed: "+lastErr.Error(), http.StatusInternalServerError)
			return
		}
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	writeJSON(ctx, w, http.StatusOK, uploaded)
}

// List handles GET /files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	page, ok := parsePage(w, r)
	if !ok {
		return
	}
	files, err := h.files.List(ctx, owner, page)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list files")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFileResponses(files))
}

// Info handles GET /file/{id}/info.
func (h *FileHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	file, err := h.files.Get(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFileResponse(file))
}

// Download handles GET /file/{id}.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	download, err := h.files.Open(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to download file")
		return
	}
	h.stream(w, r, download)
}

// Update handles PUT /file/{id}.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req UpdateFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	file, err := h.files.Update(ctx, owner, chi.URLParam(r, "id"), service.FileUpdate{Pinned: req.Pinned, Tags: req.Tags})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toFileResponse(file))
}

// CreateGrant handles POST /file/grant/{id}.
func (h *FileHandler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	grant, err := h.files.CreateGrant(ctx, owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create grant")
		return
	}
	writeJSON(ctx, w, http.StatusOK, GrantResponse{Token: grant.Token, ExpiresAt: grant.ExpiresAt})
}

// OpenGrant handles GET /file/grant/{grantId}. The grant itself is the credential.
func (h *FileHandler) OpenGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	download, err := h.files.OpenGrant(ctx, chi.URLParam(r, "grantId"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to download file")
		return
	}
	h.stream(w, r, download)
}

func (h *FileHandler) stream(w http.ResponseWriter, r *http.Request, download service.Download) {
	ctx := r.Context()
	defer download.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	if download.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(download.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, download.Body); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "download interrupted", "file_name", download.FileName, "error", err)
	}
}
