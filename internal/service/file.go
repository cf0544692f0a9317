package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_service.go -package=mocks -mock_names=FileService=MockFileService lessonarchiver/internal/service FileService

import (
	"context"
	"crypto/sha1"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/objectstore"
	"lessonarchiver/internal/storage"
)

const (
	defaultContentType = "application/octet-stream"
	defaultUploadName  = "upload"
)

// UploadInput is one file part of an upload request.
type UploadInput struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// FileUpdate replaces a file's pinned flag and tags.
type FileUpdate struct {
	Pinned bool
	Tags   []string
}

// FileService manages uploaded files.
type FileService interface {
	// Upload stores one file part and records it.
	Upload(ctx context.Context, ownerID string, in UploadInput) (File, error)
	// Get returns a file's metadata.
	Get(ctx context.Context, ownerID, id string) (File, error)
	// List returns files newest first.
	List(ctx context.Context, ownerID string, page Page) ([]File, error)
	// Update replaces the pinned flag and tags of a file.
	Update(ctx context.Context, ownerID, id string, in FileUpdate) (File, error)
	// Open opens an owned file's content.
	Open(ctx context.Context, ownerID, id string) (Download, error)
	// CreateGrant issues a download grant for an owned file.
	CreateGrant(ctx context.Context, ownerID, fileID string) (Grant, error)
	// OpenGrant opens the file a grant points at, if the grant is still valid.
	OpenGrant(ctx context.Context, grantID string) (Download, error)
}

// fileService implements FileService.
type fileService struct {
	store   *storage.Store
	objects objectstore.Store
	indexer Indexer
	tmpDir  string
	now     func() time.Time
}

// NewFileService creates a new FileService. Uploads are spooled under tmpDir, or the
// system temp directory when tmpDir is empty.
func NewFileService(store *storage.Store, objects objectstore.Store, indexer Indexer, tmpDir string) FileService {
	return &fileService{
		store:   store,
		objects: objects,
		indexer: indexer,
		tmpDir:  tmpDir,
		now:     time.Now,
	}
}

// Upload spools the part to a temporary file while hashing it, sends it to the object
// store, then records the file and its index task in one transaction.
func (s *fileService) Upload(ctx context.Context, ownerID string, in UploadInput) (File, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := cleanFileName(in.FileName)
	tmp, err := os.CreateTemp(s.tmpDir, "upload-*-"+strings.ReplaceAll(name, "*", "_"))
	if err != nil {
		return File{}, WrapError(err, "failed to create temporary file")
	}
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.WarnContext(ctx, "failed to remove temporary upload", "path", tmp.Name(), "error", err)
		}
	}()

	digest := sha1.New()
	size, err := io.Copy(io.MultiWriter(tmp, digest), in.Body)
	if err != nil {
		return File{}, WrapError(err, "failed to read upload")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return File{}, WrapError(err, "failed to rewind upload")
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	obj, err := s.objects.Upload(ctx, objectstore.Upload{
		Key:         "uploads/" + uuid.NewString() + "-" + name,
		ContentType: contentType,
		Body:        tmp,
		Size:        size,
		SHA1:        digest.Sum(nil),
		Metadata: map[string]string{
			objectstore.MetaOriginalName: name,
			objectstore.MetaOwner:        ownerID,
		},
	})
	if err != nil {
		return File{}, externalError(err, "failed to store upload")
	}

	file := &storage.File{
		RemoteID:      obj.RemoteID,
		FileName:      name,
		ContentLength: obj.Size,
		SHA1:          obj.SHA1,
	}
	var task *storage.IndexTask
	err = s.store.Transaction(ctx, func(tx *storage.Store) error {
		if err := tx.Files(ownerID).New(ctx, file); err != nil {
			return err
		}
		task = s.indexer.Task(storage.IndexFile, storage.IndexUpsert, file.ID, ownerID)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to record upload", "remote_id", obj.RemoteID, "error", err)
		return File{}, storageError(err, "File")
	}
	s.indexer.Flush(ctx, task)

	logger.InfoContext(ctx, "file uploaded", "file_id", file.ID, "remote_id", obj.RemoteID, "size", obj.Size)
	return newFile(nil, file), nil
}

// Get returns a file's metadata.
func (s *fileService) Get(ctx context.Context, ownerID, id string) (File, error) {
	file, err := s.store.Files(ownerID).Get(ctx, id)
	if err != nil {
		return File{}, storageError(err, "File")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), file.Tags)
	if err != nil {
		return File{}, storageError(err, "Tag")
	}
	return newFile(tree, file), nil
}

// List returns files newest first.
func (s *fileService) List(ctx context.Context, ownerID string, page Page) ([]File, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.store.Files(ownerID).List(ctx, page.storage(), nil)
	if err != nil {
		return nil, storageError(err, "File")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), fileTags(rows))
	if err != nil {
		return nil, storageError(err, "Tag")
	}
	files := make([]File, len(rows))
	for i := range rows {
		files[i] = newFile(tree, &rows[i])
	}
	return files, nil
}

// Update replaces the pinned flag and tags of a file.
func (s *fileService) Update(ctx context.Context, ownerID, id string, in FileUpdate) (File, error) {
	var task *storage.IndexTask
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		tags, err := tx.Tags(ownerID).Resolve(ctx, in.Tags)
		if err != nil {
			return storageError(err, "Tag")
		}
		files := tx.Files(ownerID)
		file, err := files.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "File")
		}
		file.Pinned = in.Pinned
		if err := files.Save(ctx, file); err != nil {
			return err
		}
		if err := files.ReplaceTags(ctx, file, tags); err != nil {
			return err
		}
		task = s.indexer.Task(storage.IndexFile, storage.IndexUpsert, file.ID, ownerID)
		return tx.Outbox().Enqueue(ctx, task)
	})
	if err != nil {
		return File{}, storageError(err, "File")
	}
	s.indexer.Flush(ctx, task)
	return s.Get(ctx, ownerID, id)
}

// Open opens an owned file's content.
func (s *fileService) Open(ctx context.Context, ownerID, id string) (Download, error) {
	file, err := s.store.Files(ownerID).FindByID(ctx, id)
	if err != nil {
		return Download{}, storageError(err, "File")
	}
	return s.open(ctx, file)
}

// CreateGrant issues a download grant for an owned file.
func (s *fileService) CreateGrant(ctx context.Context, ownerID, fileID string) (Grant, error) {
	file, err := s.store.Files(ownerID).FindByID(ctx, fileID)
	if err != nil {
		return Grant{}, storageError(err, "File")
	}
	grant := &storage.FileGrant{FileID: file.ID, CreatedAt: s.now()}
	if err := s.store.Grants(ownerID).New(ctx, grant); err != nil {
		return Grant{}, storageError(err, "Grant")
	}
	return Grant{Token: grant.ID, ExpiresAt: grant.ExpiresAt}, nil
}

// OpenGrant opens the file a grant points at. Expiry is checked on every use.
func (s *fileService) OpenGrant(ctx context.Context, grantID string) (Download, error) {
	grant, err := s.store.RedeemGrant(ctx, grantID)
	if err != nil {
		return Download{}, storageError(err, "Grant")
	}
	if grant.IsExpired(s.now()) {
		return Download{}, ErrGrantExpired
	}
	return s.open(ctx, &grant.File)
}

func (s *fileService) open(ctx context.Context, file *storage.File) (Download, error) {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := s.objects.Info(ctx, file.RemoteID)
	if err != nil {
		return Download{}, objectError(ctx, err, file)
	}
	body, err := s.objects.Download(ctx, file.RemoteID)
	if err != nil {
		return Download{}, objectError(ctx, err, file)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	logger.DebugContext(ctx, "opened file", "file_id", file.ID, "size", info.Size)
	return Download{
		FileName:    file.FileName,
		ContentType: contentType,
		Size:        info.Size,
		Body:        body,
	}, nil
}

func objectError(ctx context.Context, err error, file *storage.File) error {
	if errors.Is(err, objectstore.ErrNotFound) {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "file content missing from object store", "file_id", file.ID, "remote_id", file.RemoteID)
		return &NotFoundError{Resource: "File content"}
	}
	return externalError(err, "failed to read file content")
}

// cleanFileName keeps the last path element of a client supplied name.
func cleanFileName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return defaultUploadName
	}
	return name
}
