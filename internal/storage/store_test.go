package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScope_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := newTestUser(t, s, "alice")
	bob := newTestUser(t, s, "bob")

	note := &Note{Title: "Lecture 1", Body: "intro"}
	note.OwnerID = bob
	if err := s.Notes(alice).New(ctx, note); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if note.OwnerID != alice {
		t.Errorf("New() owner = %v, want %v", note.OwnerID, alice)
	}

	tests := []struct {
		name    string
		owner   string
		id      string
		wantErr error
	}{
		{name: "owner reads", owner: alice, id: note.ID},
		{name: "other owner gets not found", owner: bob, id: note.ID, wantErr: ErrNotFound},
		{name: "unknown id", owner: alice, id: "00000000-0000-0000-0000-000000000000", wantErr: ErrNotFound},
		{name: "malformed id", owner: alice, id: "not-a-uuid", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Notes(tt.owner).Get(ctx, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.Title != "Lecture 1" {
				t.Errorf("Get() title = %v, want %v", got.Title, "Lecture 1")
			}
		})
	}

	if _, err := s.Notes(bob).Delete(ctx, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() by other owner error = %v, want %v", err, ErrNotFound)
	}
	if err := s.Notes(bob).Save(ctx, note); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save() by other owner error = %v, want %v", err, ErrNotFound)
	}

	all, err := s.Notes(bob).All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("All() for other owner returned %d rows, want 0", len(all))
	}

	deleted, err := s.Notes(alice).Delete(ctx, note.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted.ID != note.ID {
		t.Errorf("Delete() returned id %v, want %v", deleted.ID, note.ID)
	}
	if _, err := s.Notes(alice).Get(ctx, note.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestUserRepo_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Users().FindOrCreate(ctx, "notary-1")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	second, err := s.Users().FindOrCreate(ctx, "notary-1")
	if err != nil {
		t.Fatalf("FindOrCreate() second call error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("FindOrCreate() returned %v then %v, want the same user", first.ID, second.ID)
	}

	other, err := s.Users().FindOrCreate(ctx, "notary-2")
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if other.ID == first.ID {
		t.Error("FindOrCreate() returned the same user for different subjects")
	}

	got, err := s.Users().FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.NotaryID != "notary-1" {
		t.Errorf("FindByID() notary id = %v, want %v", got.NotaryID, "notary-1")
	}
}

func TestFileRepo_ListAndTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")
	files := s.Files(owner)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		f := &File{RemoteID: "uploads/" + name, FileName: name, UploadedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := files.New(ctx, f); err != nil {
			t.Fatalf("New() error = %v", err)
		}
	}

	got, err := files.List(ctx, Page{Limit: 2, Offset: 0}, nil)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].FileName != "c.pdf" || got[1].FileName != "b.pdf" {
		t.Fatalf("List() = %v, want c.pdf, b.pdf", fileNames(got))
	}

	tag := &Tag{Name: "math"}
	if err := s.Tags(owner).New(ctx, tag); err != nil {
		t.Fatalf("Tags().New() error = %v", err)
	}
	target := got[1]
	target.Pinned = true
	if err := files.Save(ctx, &target); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := files.ReplaceTags(ctx, &target, []Tag{*tag}); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}

	pinned := true
	got, err = files.List(ctx, Page{Limit: 20}, &pinned)
	if err != nil {
		t.Fatalf("List(pinned) error = %v", err)
	}
	if len(got) != 1 || got[0].ID != target.ID {
		t.Fatalf("List(pinned) = %v, want [b.pdf]", fileNames(got))
	}
	if len(got[0].Tags) != 1 || got[0].Tags[0].Name != "math" {
		t.Errorf("List(pinned) tags = %v, want [math]", got[0].Tags)
	}

	if err := files.ReplaceTags(ctx, &target, nil); err != nil {
		t.Fatalf("ReplaceTags(nil) error = %v", err)
	}
	reloaded, err := files.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(reloaded.Tags) != 0 {
		t.Errorf("Get() tags after clear = %v, want none", reloaded.Tags)
	}

	byIDs, err := files.ByIDs(ctx, []string{target.ID, "00000000-0000-0000-0000-000000000000"})
	if err != nil {
		t.Fatalf("ByIDs() error = %v", err)
	}
	if len(byIDs) != 1 {
		t.Errorf("ByIDs() returned %d rows, want 1", len(byIDs))
	}
}

func TestNoteRepo_UpdatedAtRefreshes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")

	note := &Note{Title: "Draft"}
	if err := s.Notes(owner).New(ctx, note); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	created := note.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	note.Body = "changed"
	if err := s.Notes(owner).Save(ctx, note); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !note.UpdatedAt.After(created) {
		t.Errorf("Save() UpdatedAt = %v, want after %v", note.UpdatedAt, created)
	}
}

func TestTagRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")
	tags := s.Tags(owner)

	root := &Tag{Name: "Science"}
	if err := tags.New(ctx, root); err != nil {
		t.Fatalf("New(root) error = %v", err)
	}
	child := &Tag{Name: "Physics", ParentID: &root.ID}
	if err := tags.New(ctx, child); err != nil {
		t.Fatalf("New(child) error = %v", err)
	}
	leaf := &Tag{Name: "Quantum_Mechanics", ParentID: &child.ID}
	if err := tags.New(ctx, leaf); err != nil {
		t.Fatalf("New(leaf) error = %v", err)
	}

	t.Run("duplicate child conflicts", func(t *testing.T) {
		dup := &Tag{Name: "Physics", ParentID: &root.ID}
		if err := tags.New(ctx, dup); !errors.Is(err, ErrConflict) {
			t.Errorf("New(duplicate) error = %v, want %v", err, ErrConflict)
		}
	})

	t.Run("find root sibling", func(t *testing.T) {
		got, err := tags.FindSibling(ctx, nil, "Science")
		if err != nil {
			t.Fatalf("FindSibling() error = %v", err)
		}
		if got.ID != root.ID {
			t.Errorf("FindSibling() = %v, want %v", got.ID, root.ID)
		}
		if _, err := tags.FindSibling(ctx, nil, "Physics"); !errors.Is(err, ErrNotFound) {
			t.Errorf("FindSibling(non-root) error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("search", func(t *testing.T) {
		searches := []struct {
			q    string
			want int
		}{
			{q: "", want: 3},
			{q: "PHYS", want: 1},
			{q: "m_m", want: 1},
			{q: "%", want: 0},
			{q: "zzz", want: 0},
		}
		for _, tt := range searches {
			got, err := tags.Search(ctx, tt.q)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.q, err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d tags, want %d", tt.q, len(got), tt.want)
			}
		}
	})

	t.Run("path root to self", func(t *testing.T) {
		tree, err := tags.Tree(ctx)
		if err != nil {
			t.Fatalf("Tree() error = %v", err)
		}
		path := TagPath(tree, leaf.ID)
		want := []string{"Science", "Physics", "Quantum_Mechanics"}
		if len(path) != len(want) {
			t.Fatalf("TagPath() length = %d, want %d", len(path), len(want))
		}
		for i, tag := range path {
			if tag.Name != want[i] {
				t.Errorf("TagPath()[%d] = %v, want %v", i, tag.Name, want[i])
			}
		}
	})

	t.Run("resolve", func(t *testing.T) {
		got, err := tags.Resolve(ctx, []string{root.ID, child.ID, root.ID})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Resolve() returned %d tags, want 2", len(got))
		}
		if _, err := tags.Resolve(ctx, []string{root.ID, "00000000-0000-0000-0000-000000000000"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(unknown) error = %v, want %v", err, ErrNotFound)
		}
		if _, err := s.Tags(newTestUser(t, s, "bob")).Resolve(ctx, []string{root.ID}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(foreign) error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("delete cascades to children", func(t *testing.T) {
		if _, err := tags.Delete(ctx, root.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		remaining, err := tags.All(ctx)
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(remaining) != 0 {
			t.Errorf("All() after delete returned %d tags, want 0", len(remaining))
		}
	})
}

func TestCabinetRepo_Materials(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")
	cabinets := s.Cabinets(owner)

	root := &Cabinet{Name: "Semester 1"}
	if err := cabinets.New(ctx, root); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	child := &Cabinet{Name: "Algebra", ParentID: &root.ID}
	if err := cabinets.New(ctx, child); err != nil {
		t.Fatalf("New(child) error = %v", err)
	}

	roots, err := cabinets.Roots(ctx)
	if err != nil {
		t.Fatalf("Roots() error = %v", err)
	}
	if len(roots) != 1 || roots[0].ID != root.ID {
		t.Errorf("Roots() = %v, want [%v]", roots, root.ID)
	}
	children, err := cabinets.Children(ctx, root.ID)
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	if len(children) != 1 || children[0].ID != child.ID {
		t.Errorf("Children() = %v, want [%v]", children, child.ID)
	}

	materials := []CabinetMaterial{
		{Kind: MaterialNote, MaterialID: "11111111-1111-1111-1111-111111111111"},
		{Kind: MaterialFile, MaterialID: "22222222-2222-2222-2222-222222222222"},
	}
	if err := cabinets.ReplaceMaterials(ctx, root, materials); err != nil {
		t.Fatalf("ReplaceMaterials() error = %v", err)
	}
	reordered := []CabinetMaterial{
		{Kind: MaterialFile, MaterialID: "22222222-2222-2222-2222-222222222222"},
		{Kind: MaterialNote, MaterialID: "11111111-1111-1111-1111-111111111111"},
	}
	if err := cabinets.ReplaceMaterials(ctx, root, reordered); err != nil {
		t.Fatalf("ReplaceMaterials() second call error = %v", err)
	}

	got, err := cabinets.Materials(ctx, root.ID)
	if err != nil {
		t.Fatalf("Materials() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Materials() returned %d rows, want 2", len(got))
	}
	for i, m := range got {
		if m.Position != i || m.MaterialID != reordered[i].MaterialID {
			t.Errorf("Materials()[%d] = {%d %v}, want {%d %v}", i, m.Position, m.MaterialID, i, reordered[i].MaterialID)
		}
	}

	if err := cabinets.DropMaterial(ctx, MaterialNote, "11111111-1111-1111-1111-111111111111"); err != nil {
		t.Fatalf("DropMaterial() error = %v", err)
	}
	got, err = cabinets.Materials(ctx, root.ID)
	if err != nil {
		t.Fatalf("Materials() error = %v", err)
	}
	if len(got) != 1 || got[0].Kind != MaterialFile {
		t.Errorf("Materials() after drop = %v, want only the file", got)
	}

	if _, err := s.Cabinets(newTestUser(t, s, "bob")).Materials(ctx, root.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Materials() by other owner error = %v, want %v", err, ErrNotFound)
	}

	if _, err := cabinets.Delete(ctx, root.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := cabinets.FindByID(ctx, child.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID(child) after parent delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestStore_Transaction_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.Notes(owner).New(ctx, &Note{Title: "lost"}); err != nil {
			return err
		}
		if err := tx.Outbox().Enqueue(ctx, &IndexTask{Kind: IndexNote, Op: IndexUpsert, EntityID: "x", OwnerID: owner}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, want %v", err, boom)
	}

	notes, err := s.Notes(owner).All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("All() after rollback returned %d notes, want 0", len(notes))
	}
	pending, err := s.Outbox().Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if pending != 0 {
		t.Errorf("Pending() after rollback = %d, want 0", pending)
	}
}

func TestRedeemGrant(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := newTestUser(t, s, "alice")

	file := &File{RemoteID: "uploads/x", FileName: "x.txt"}
	if err := s.Files(owner).New(ctx, file); err != nil {
		t.Fatalf("New(file) error = %v", err)
	}
	grant := &FileGrant{FileID: file.ID}
	if err := s.Grants(owner).New(ctx, grant); err != nil {
		t.Fatalf("New(grant) error = %v", err)
	}
	if got := grant.ExpiresAt.Sub(grant.CreatedAt); got != GrantTTL {
		t.Errorf("grant lifetime = %v, want %v", got, GrantTTL)
	}

	got, err := s.RedeemGrant(ctx, grant.ID)
	if err != nil {
		t.Fatalf("RedeemGrant() error = %v", err)
	}
	if got.File.RemoteID != "uploads/x" {
		t.Errorf("RedeemGrant() file = %v, want %v", got.File.RemoteID, "uploads/x")
	}
	if got.IsExpired(grant.CreatedAt.Add(time.Minute)) {
		t.Error("IsExpired() = true for a fresh grant")
	}
	if !got.IsExpired(grant.ExpiresAt) {
		t.Error("IsExpired() = false at expiry")
	}

	if _, err := s.RedeemGrant(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RedeemGrant(malformed) error = %v, want %v", err, ErrNotFound)
	}

	if _, err := s.Files(owner).Delete(ctx, file.ID); err != nil {
		t.Fatalf("Delete(file) error = %v", err)
	}
	if _, err := s.RedeemGrant(ctx, grant.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RedeemGrant() after file delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestOutboxRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	outbox := s.Outbox()
	now := time.Now()

	due := &IndexTask{Kind: IndexFile, Op: IndexUpsert, EntityID: "a", OwnerID: "o"}
	later := &IndexTask{Kind: IndexNote, Op: IndexDelete, EntityID: "b", OwnerID: "o", NextAttemptAt: now.Add(time.Hour)}
	if err := outbox.Enqueue(ctx, due, later); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	got, err := outbox.Due(ctx, now.Add(time.Second), 10)
	if err != nil {
		t.Fatalf("Due() error = %v", err)
	}
	if len(got) != 1 || got[0].EntityID != "a" {
		t.Fatalf("Due() = %v, want only task a", got)
	}

	if err := outbox.Reschedule(ctx, &got[0], errors.New("index down"), now.Add(2*time.Hour)); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	got, err = outbox.Due(ctx, now.Add(90*time.Minute), 10)
	if err != nil {
		t.Fatalf("Due() error = %v", err)
	}
	if len(got) != 1 || got[0].EntityID != "b" {
		t.Fatalf("Due() after reschedule = %v, want only task b", got)
	}

	got, err = outbox.Due(ctx, now.Add(3*time.Hour), 10)
	if err != nil {
		t.Fatalf("Due() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Due() returned %d tasks, want 2", len(got))
	}
	if got[0].Attempts != 1 || got[0].LastError != "index down" {
		t.Errorf("rescheduled task = {%d %q}, want {1 %q}", got[0].Attempts, got[0].LastError, "index down")
	}

	for _, task := range got {
		if err := outbox.Done(ctx, task.ID); err != nil {
			t.Fatalf("Done() error = %v", err)
		}
	}
	pending, err := outbox.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if pending != 0 {
		t.Errorf("Pending() = %d, want 0", pending)
	}
}

func fileNames(files []File) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.FileName
	}
	return names
}
