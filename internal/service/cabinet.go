package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_cabinet_service.go -package=mocks -mock_names=CabinetService=MockCabinetService lessonarchiver/internal/service CabinetService

import (
	"context"
	"errors"
	"strings"

	"lessonarchiver/internal/contextutil"
	"lessonarchiver/internal/storage"
)

// CabinetInput describes a new cabinet.
type CabinetInput struct {
	ParentID    *string
	Name        string
	Description *string
}

// CabinetUpdate replaces a cabinet's name, description and ordered materials.
type CabinetUpdate struct {
	Name        string
	Description *string
	Materials   []string
}

// CabinetService manages the cabinet tree and cabinet contents.
type CabinetService interface {
	// Roots returns the cabinets without a parent.
	Roots(ctx context.Context, ownerID string) ([]Cabinet, error)
	// Get returns a cabinet.
	Get(ctx context.Context, ownerID, id string) (Cabinet, error)
	// Children returns the direct children of a cabinet.
	Children(ctx context.Context, ownerID, id string) ([]Cabinet, error)
	// Materials returns a cabinet's materials in order.
	Materials(ctx context.Context, ownerID, id string) ([]Material, error)
	// Create creates a cabinet under an optional parent.
	Create(ctx context.Context, ownerID string, in CabinetInput) (Cabinet, error)
	// Update replaces a cabinet's name, description and materials.
	Update(ctx context.Context, ownerID, id string, in CabinetUpdate) (Cabinet, error)
	// Delete deletes a cabinet and its descendants, returning it as it was.
	Delete(ctx context.Context, ownerID, id string) (Cabinet, error)
}

// cabinetService implements CabinetService.
type cabinetService struct {
	store *storage.Store
}

// NewCabinetService creates a new CabinetService.
func NewCabinetService(store *storage.Store) CabinetService {
	return &cabinetService{store: store}
}

func (s *cabinetService) Roots(ctx context.Context, ownerID string) ([]Cabinet, error) {
	rows, err := s.store.Cabinets(ownerID).Roots(ctx)
	if err != nil {
		return nil, storageError(err, "Cabinet")
	}
	return newCabinets(rows), nil
}

func (s *cabinetService) Get(ctx context.Context, ownerID, id string) (Cabinet, error) {
	cabinet, err := s.store.Cabinets(ownerID).FindByID(ctx, id)
	if err != nil {
		return Cabinet{}, storageError(err, "Cabinet")
	}
	return newCabinet(cabinet), nil
}

func (s *cabinetService) Children(ctx context.Context, ownerID, id string) ([]Cabinet, error) {
	cabinets := s.store.Cabinets(ownerID)
	if _, err := cabinets.FindByID(ctx, id); err != nil {
		return nil, storageError(err, "Cabinet")
	}
	rows, err := cabinets.Children(ctx, id)
	if err != nil {
		return nil, storageError(err, "Cabinet")
	}
	return newCabinets(rows), nil
}

// Materials returns the cabinet's files and notes in position order. Entries whose
// target no longer exists are skipped.
func (s *cabinetService) Materials(ctx context.Context, ownerID, id string) ([]Material, error) {
	rows, err := s.store.Cabinets(ownerID).Materials(ctx, id)
	if err != nil {
		return nil, storageError(err, "Cabinet")
	}

	var fileIDs, noteIDs []string
	for _, m := range rows {
		switch m.Kind {
		case storage.MaterialFile:
			fileIDs = append(fileIDs, m.MaterialID)
		case storage.MaterialNote:
			noteIDs = append(noteIDs, m.MaterialID)
		}
	}

	files, err := s.store.Files(ownerID).ByIDs(ctx, fileIDs)
	if err != nil {
		return nil, storageError(err, "File")
	}
	notes, err := s.store.Notes(ownerID).ByIDs(ctx, noteIDs)
	if err != nil {
		return nil, storageError(err, "Note")
	}
	tree, err := tagTree(ctx, s.store.Tags(ownerID), fileTags(files), noteTags(notes))
	if err != nil {
		return nil, storageError(err, "Tag")
	}

	byID := make(map[string]Material, len(files)+len(notes))
	for i := range files {
		f := newFile(tree, &files[i])
		byID[f.ID] = Material{Kind: storage.MaterialFile, File: &f}
	}
	for i := range notes {
		n := newNote(tree, &notes[i])
		byID[n.ID] = Material{Kind: storage.MaterialNote, Note: &n}
	}

	materials := make([]Material, 0, len(rows))
	for _, m := range rows {
		if material, ok := byID[m.MaterialID]; ok && material.Kind == m.Kind {
			materials = append(materials, material)
		}
	}
	return materials, nil
}

// Create creates a cabinet. Sibling names are unique.
func (s *cabinetService) Create(ctx context.Context, ownerID string, in CabinetInput) (Cabinet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Cabinet{}, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	cabinet := &storage.Cabinet{Name: name, Description: in.Description, ParentID: in.ParentID}
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		cabinets := tx.Cabinets(ownerID)
		if in.ParentID != nil {
			if _, err := cabinets.FindByID(ctx, *in.ParentID); err != nil {
				return storageError(err, "Parent cabinet")
			}
		}
		if err := checkCabinetSibling(ctx, cabinets, in.ParentID, name, ""); err != nil {
			return err
		}
		return cabinets.New(ctx, cabinet)
	})
	if err != nil {
		return Cabinet{}, storageError(err, "Cabinet")
	}

	logger.InfoContext(ctx, "cabinet created", "cabinet_id", cabinet.ID)
	return newCabinet(cabinet), nil
}

// Update rewrites the cabinet and its material list in one transaction. Each material id
// is resolved against the owner's files, then notes; an unknown id aborts the update.
func (s *cabinetService) Update(ctx context.Context, ownerID, id string, in CabinetUpdate) (Cabinet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Cabinet{}, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	var updated *storage.Cabinet
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		cabinets := tx.Cabinets(ownerID)
		cabinet, err := cabinets.FindByID(ctx, id)
		if err != nil {
			return storageError(err, "Cabinet")
		}
		if err := checkCabinetSibling(ctx, cabinets, cabinet.ParentID, name, cabinet.ID); err != nil {
			return err
		}

		materials, err := resolveMaterials(ctx, tx, ownerID, in.Materials)
		if err != nil {
			return err
		}

		cabinet.Name = name
		cabinet.Description = in.Description
		if err := cabinets.Save(ctx, cabinet); err != nil {
			return err
		}
		if err := cabinets.ReplaceMaterials(ctx, cabinet, materials); err != nil {
			return err
		}
		updated = cabinet
		return nil
	})
	if err != nil {
		return Cabinet{}, storageError(err, "Cabinet")
	}

	logger.InfoContext(ctx, "cabinet updated", "cabinet_id", id, "materials", len(in.Materials))
	return newCabinet(updated), nil
}

// Delete deletes a cabinet. Children and materials go with it through foreign keys.
func (s *cabinetService) Delete(ctx context.Context, ownerID, id string) (Cabinet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	cabinet, err := s.store.Cabinets(ownerID).Delete(ctx, id)
	if err != nil {
		return Cabinet{}, storageError(err, "Cabinet")
	}

	logger.InfoContext(ctx, "cabinet deleted", "cabinet_id", id)
	return newCabinet(cabinet), nil
}

// checkCabinetSibling fails with a conflict if another cabinet under parentID is named
// name. selfID is ignored so a cabinet can keep its own name.
func checkCabinetSibling(ctx context.Context, cabinets *storage.CabinetRepo, parentID *string, name, selfID string) error {
	sibling, err := cabinets.FindSibling(ctx, parentID, name)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return err
	case sibling.ID == selfID:
		return nil
	default:
		return &ConflictError{Resource: "Cabinet"}
	}
}

func resolveMaterials(ctx context.Context, tx *storage.Store, ownerID string, ids []string) ([]storage.CabinetMaterial, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	files, err := tx.Files(ownerID).ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	notes, err := tx.Notes(ownerID).ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]storage.MaterialKind, len(files)+len(notes))
	for _, n := range notes {
		kinds[n.ID] = storage.MaterialNote
	}
	for _, f := range files {
		kinds[f.ID] = storage.MaterialFile
	}

	materials := make([]storage.CabinetMaterial, len(ids))
	for i, id := range ids {
		kind, ok := kinds[id]
		if !ok {
			return nil, &NotFoundError{Resource: "Material"}
		}
		materials[i] = storage.CabinetMaterial{Kind: kind, MaterialID: id}
	}
	return materials, nil
}
