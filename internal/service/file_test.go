package service_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"lessonarchiver/internal/objectstore"
	"lessonarchiver/internal/objectstore/mocks"
	"lessonarchiver/internal/service"
	"lessonarchiver/internal/storage"
)

// storedUpload keeps what the object store mock received.
type storedUpload struct {
	upload objectstore.Upload
	data   []byte
}

func acceptUpload(got *storedUpload) func(context.Context, objectstore.Upload) (objectstore.Object, error) {
	return func(_ context.Context, up objectstore.Upload) (objectstore.Object, error) {
		data, err := io.ReadAll(up.Body)
		if err != nil {
			return objectstore.Object{}, err
		}
		got.upload = up
		got.data = data
		return objectstore.Object{RemoteID: up.Key, SHA1: hex.EncodeToString(up.SHA1), Size: up.Size}, nil
	}
}

func TestFileService_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	ix := &recordingIndexer{}
	tmpDir := t.TempDir()
	svc := service.NewFileService(store, objects, ix, tmpDir)
	owner := newTestUser(t, store, "owner")

	content := []byte("%PDF-1.7 lecture notes")
	sum := sha1.Sum(content)

	var got storedUpload
	objects.EXPECT().Upload(gomock.Any(), gomock.Any()).DoAndReturn(acceptUpload(&got))

	file, err := svc.Upload(testContext(), owner, service.UploadInput{
		FileName:    `C:\Users\ada\week 1.pdf`,
		ContentType: "application/pdf",
		Body:        bytes.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if file.FileName != "week 1.pdf" {
		t.Errorf("Upload() FileName = %v, want week 1.pdf", file.FileName)
	}
	if file.SHA1 != hex.EncodeToString(sum[:]) {
		t.Errorf("Upload() SHA1 = %v, want %v", file.SHA1, hex.EncodeToString(sum[:]))
	}
	if file.ContentLength != int64(len(content)) {
		t.Errorf("Upload() ContentLength = %v, want %v", file.ContentLength, len(content))
	}
	if !bytes.Equal(got.data, content) {
		t.Errorf("object store received %q, want %q", got.data, content)
	}
	if !strings.HasPrefix(got.upload.Key, "uploads/") || !strings.HasSuffix(got.upload.Key, "-week 1.pdf") {
		t.Errorf("object key = %v, want uploads/{uuid}-week 1.pdf", got.upload.Key)
	}
	if got.upload.ContentType != "application/pdf" {
		t.Errorf("object content type = %v, want application/pdf", got.upload.ContentType)
	}
	if got.upload.Metadata[objectstore.MetaOriginalName] != "week 1.pdf" || got.upload.Metadata["owner"] != owner {
		t.Errorf("object metadata = %v", got.upload.Metadata)
	}

	row, err := store.Files(owner).Get(testContext(), file.ID)
	if err != nil {
		t.Fatalf("Files().Get() error = %v", err)
	}
	if row.RemoteID != got.upload.Key {
		t.Errorf("RemoteID = %v, want %v", row.RemoteID, got.upload.Key)
	}

	tasks := ix.tasks()
	if len(tasks) != 1 || tasks[0].EntityID != file.ID || tasks[0].Op != storage.IndexUpsert || tasks[0].Kind != storage.IndexFile {
		t.Errorf("flushed tasks = %+v, want one file upsert for %v", tasks, file.ID)
	}
	pending, err := store.Outbox().Pending(testContext())
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if pending != 1 {
		t.Errorf("Pending() = %v, want 1", pending)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %d", len(entries))
	}
}

func TestFileService_Upload_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	tmpDir := t.TempDir()
	svc := service.NewFileService(store, objects, &recordingIndexer{}, tmpDir)
	owner := newTestUser(t, store, "owner")

	objects.EXPECT().Upload(gomock.Any(), gomock.Any()).Return(objectstore.Object{}, errors.New("bucket unavailable"))

	_, err := svc.Upload(testContext(), owner, service.UploadInput{FileName: "a.txt", Body: strings.NewReader("a")})
	if !errors.Is(err, service.ErrExternalService) {
		t.Fatalf("Upload() error = %v, want ErrExternalService", err)
	}

	files, err := svc.List(testContext(), owner, service.Page{Limit: 20})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("List() = %d files, want 0", len(files))
	}
	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %d", len(entries))
	}
}

func TestFileService_Upload_DefaultsNameAndType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	svc := service.NewFileService(store, objects, &recordingIndexer{}, t.TempDir())
	owner := newTestUser(t, store, "owner")

	var got storedUpload
	objects.EXPECT().Upload(gomock.Any(), gomock.Any()).DoAndReturn(acceptUpload(&got))

	file, err := svc.Upload(testContext(), owner, service.UploadInput{FileName: "", Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if file.FileName != "upload" {
		t.Errorf("Upload() FileName = %v, want upload", file.FileName)
	}
	if got.upload.ContentType != "application/octet-stream" {
		t.Errorf("object content type = %v, want application/octet-stream", got.upload.ContentType)
	}
}

func TestFileService_List(t *testing.T) {
	store := newTestStore(t)
	svc := service.NewFileService(store, nil, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	other := newTestUser(t, store, "other")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		seedFile(t, store, owner, name, base.Add(time.Duration(i)*time.Hour))
	}
	seedFile(t, store, other, "foreign.pdf", base.Add(10*time.Hour))

	tests := []struct {
		name      string
		page      service.Page
		wantNames []string
		wantErr   error
	}{
		{name: "newest first", page: service.Page{Limit: 20}, wantNames: []string{"c.pdf", "b.pdf", "a.pdf"}},
		{name: "offset", page: service.Page{Limit: 1, Offset: 1}, wantNames: []string{"b.pdf"}},
		{name: "empty page", page: service.Page{Limit: 0}, wantNames: []string{}},
		{name: "limit too large", page: service.Page{Limit: 21}, wantErr: service.ErrInvalidInput},
		{name: "negative offset", page: service.Page{Limit: 1, Offset: -1}, wantErr: service.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := svc.List(testContext(), owner, tt.page)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("List() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			names := make([]string, len(files))
			for i, f := range files {
				names[i] = f.FileName
			}
			if strings.Join(names, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("List() = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestFileService_Get_OtherOwner(t *testing.T) {
	store := newTestStore(t)
	svc := service.NewFileService(store, nil, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	other := newTestUser(t, store, "other")

	file := seedFile(t, store, owner, "private.pdf", time.Now())

	if _, err := svc.Get(testContext(), other, file.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(testContext(), owner, "not-a-uuid"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestFileService_Update(t *testing.T) {
	store := newTestStore(t)
	ix := &recordingIndexer{}
	svc := service.NewFileService(store, nil, ix, "")
	owner := newTestUser(t, store, "owner")

	file := seedFile(t, store, owner, "lecture.pdf", time.Now())
	physics := seedTag(t, store, owner, "physics", nil)
	quantum := seedTag(t, store, owner, "quantum", &physics.ID)

	got, err := svc.Update(testContext(), owner, file.ID, service.FileUpdate{Pinned: true, Tags: []string{quantum.ID}})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !got.Pinned {
		t.Errorf("Update() Pinned = false, want true")
	}
	if len(got.Tags) != 1 || got.Tags[0].ID != quantum.ID {
		t.Fatalf("Update() Tags = %+v, want [quantum]", got.Tags)
	}
	wantPath := []service.TagRef{{ID: physics.ID, Name: "physics"}, {ID: quantum.ID, Name: "quantum"}}
	if len(got.Tags[0].Path) != 2 || got.Tags[0].Path[0] != wantPath[0] || got.Tags[0].Path[1] != wantPath[1] {
		t.Errorf("Update() tag path = %+v, want %+v", got.Tags[0].Path, wantPath)
	}
	if len(ix.tasks()) != 1 {
		t.Errorf("flushed tasks = %d, want 1", len(ix.tasks()))
	}

	cleared, err := svc.Update(testContext(), owner, file.ID, service.FileUpdate{Pinned: false})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if cleared.Pinned || len(cleared.Tags) != 0 {
		t.Errorf("Update() = %+v, want unpinned without tags", cleared)
	}
}

func TestFileService_Update_Errors(t *testing.T) {
	store := newTestStore(t)
	svc := service.NewFileService(store, nil, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	other := newTestUser(t, store, "other")

	file := seedFile(t, store, owner, "lecture.pdf", time.Now())
	foreignTag := seedTag(t, store, other, "foreign", nil)

	tests := []struct {
		name     string
		id       string
		in       service.FileUpdate
		wantText string
	}{
		{
			name:     "unknown tag",
			id:       file.ID,
			in:       service.FileUpdate{Pinned: true, Tags: []string{foreignTag.ID}},
			wantText: "Tag not found",
		},
		{
			name:     "unknown file",
			id:       "00000000-0000-0000-0000-000000000000",
			in:       service.FileUpdate{Pinned: true},
			wantText: "File not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(testContext(), owner, tt.id, tt.in)
			if !errors.Is(err, service.ErrNotFound) {
				t.Fatalf("Update() error = %v, want ErrNotFound", err)
			}
			if err.Error() != tt.wantText {
				t.Errorf("Update() error = %q, want %q", err.Error(), tt.wantText)
			}
		})
	}

	got, err := svc.Get(testContext(), owner, file.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Pinned {
		t.Errorf("failed Update() changed Pinned")
	}
}

func TestFileService_Open(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	svc := service.NewFileService(store, objects, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	file := seedFile(t, store, owner, "slides.pdf", time.Now())

	objects.EXPECT().Info(gomock.Any(), file.RemoteID).Return(objectstore.ObjectInfo{ContentType: "application/pdf", Size: 5}, nil)
	objects.EXPECT().Download(gomock.Any(), file.RemoteID).Return(io.NopCloser(strings.NewReader("hello")), nil)

	dl, err := svc.Open(testContext(), owner, file.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer dl.Body.Close()

	data, _ := io.ReadAll(dl.Body)
	if string(data) != "hello" || dl.ContentType != "application/pdf" || dl.FileName != "slides.pdf" || dl.Size != 5 {
		t.Errorf("Open() = %+v with body %q", dl, data)
	}
}

func TestFileService_Open_MissingContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	svc := service.NewFileService(store, objects, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	file := seedFile(t, store, owner, "gone.pdf", time.Now())

	objects.EXPECT().Info(gomock.Any(), file.RemoteID).Return(objectstore.ObjectInfo{}, objectstore.ErrNotFound)

	if _, err := svc.Open(testContext(), owner, file.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Open() error = %v, want ErrNotFound", err)
	}
}

func TestFileService_Grants(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	objects := mocks.NewMockStore(ctrl)
	store := newTestStore(t)
	svc := service.NewFileService(store, objects, &recordingIndexer{}, "")
	owner := newTestUser(t, store, "owner")
	other := newTestUser(t, store, "other")
	file := seedFile(t, store, owner, "handout.pdf", time.Now())

	if _, err := svc.CreateGrant(testContext(), other, file.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("CreateGrant() by another owner error = %v, want ErrNotFound", err)
	}

	grant, err := svc.CreateGrant(testContext(), owner, file.ID)
	if err != nil {
		t.Fatalf("CreateGrant() error = %v", err)
	}
	if ttl := time.Until(grant.ExpiresAt); ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Errorf("CreateGrant() expires in %v, want about 30m", ttl)
	}

	objects.EXPECT().Info(gomock.Any(), file.RemoteID).Return(objectstore.ObjectInfo{ContentType: "application/pdf", Size: 3}, nil)
	objects.EXPECT().Download(gomock.Any(), file.RemoteID).Return(io.NopCloser(strings.NewReader("pdf")), nil)

	dl, err := svc.OpenGrant(testContext(), grant.Token)
	if err != nil {
		t.Fatalf("OpenGrant() error = %v", err)
	}
	_ = dl.Body.Close()
	if dl.FileName != "handout.pdf" {
		t.Errorf("OpenGrant() FileName = %v, want handout.pdf", dl.FileName)
	}

	stale := &storage.FileGrant{FileID: file.ID, CreatedAt: time.Now().Add(-time.Hour)}
	if err := store.Grants(owner).New(testContext(), stale); err != nil {
		t.Fatalf("Grants().New() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "expired", token: stale.ID, wantErr: service.ErrGrantExpired},
		{name: "unknown", token: "00000000-0000-0000-0000-000000000000", wantErr: service.ErrNotFound},
		{name: "malformed", token: "nope", wantErr: service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.OpenGrant(testContext(), tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("OpenGrant() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
