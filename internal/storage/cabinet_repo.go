package storage

import (
	"context"

	"gorm.io/gorm"
)

// CabinetRepo provides owner-scoped cabinet operations.
type CabinetRepo struct {
	*Scope[Cabinet, *Cabinet]
}

// Roots returns the cabinets without a parent.
func (r *CabinetRepo) Roots(ctx context.Context) ([]Cabinet, error) {
	return r.Find(ctx, childOf(nil), byName)
}

// Children returns the direct children of parentID.
func (r *CabinetRepo) Children(ctx context.Context, parentID string) ([]Cabinet, error) {
	return r.Find(ctx, childOf(&parentID), byName)
}

// FindSibling gets the cabinet named name under parentID, or under no parent when parentID is nil.
func (r *CabinetRepo) FindSibling(ctx context.Context, parentID *string, name string) (*Cabinet, error) {
	var cabinet Cabinet
	err := r.Query(ctx).Scopes(childOf(parentID)).Where("name = ?", name).First(&cabinet).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cabinet, nil
}

// Materials returns the materials of an owned cabinet in position order.
func (r *CabinetRepo) Materials(ctx context.Context, cabinetID string) ([]CabinetMaterial, error) {
	if _, err := r.FindByID(ctx, cabinetID); err != nil {
		return nil, err
	}
	var materials []CabinetMaterial
	err := r.db.WithContext(ctx).
		Where("cabinet_id = ?", cabinetID).
		Order("position").
		Find(&materials).Error
	if err != nil {
		return nil, translate(err)
	}
	return materials, nil
}

// ReplaceMaterials deletes every material of the cabinet and inserts materials in order,
// numbering positions from zero. Run it inside a transaction.
func (r *CabinetRepo) ReplaceMaterials(ctx context.Context, cabinet *Cabinet, materials []CabinetMaterial) error {
	if cabinet.OwnerID != r.ownerID {
		return ErrNotFound
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("cabinet_id = ?", cabinet.ID).Delete(&CabinetMaterial{}).Error; err != nil {
		return translate(err)
	}
	if len(materials) == 0 {
		return nil
	}
	for i := range materials {
		materials[i].CabinetID = cabinet.ID
		materials[i].Position = i
	}
	return translate(db.Create(&materials).Error)
}

// DropMaterial removes every cabinet entry pointing at a deleted file or note.
func (r *CabinetRepo) DropMaterial(ctx context.Context, kind MaterialKind, materialID string) error {
	err := r.db.WithContext(ctx).
		Where("kind = ? AND material_id = ?", kind, materialID).
		Where("cabinet_id IN (?)", r.Query(ctx).Select("id")).
		Delete(&CabinetMaterial{}).Error
	return translate(err)
}

func byName(db *gorm.DB) *gorm.DB {
	return db.Order("name")
}
