package repository

import (
	"errors"
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"gorm.io/gorm"
)

type ProspectRepository struct {
	DB *gorm.DB
}

func NewProspectRepository(db *gorm.DB) *ProspectRepository {
	return &ProspectRepository{DB: db}
}

func (r *ProspectRepository) Create(p *model.Prospect) error {
	return r.DB.Create(p).Error
}

func (r *ProspectRepository) FindByID(id string) (*model.Prospect, error) {
	var p model.Prospect
	err := r.DB.First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProspectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProspectRepository) Update(p *model.Prospect) error {
	return r.DB.Save(p).Error
}

func (r *ProspectRepository) Delete(id string) error {
	return r.DB.Delete(&model.Prospect{}, "id = ?", id).Error
}

// ListVisible returns board rows: every status except the shadow state.
// Filtering happens at query time so visibility is never cached.
func (r *ProspectRepository) ListVisible(ownerID uint) ([]model.Prospect, error) {
	var prospects []model.Prospect
	err := r.DB.
		Where("owner_id = ? AND status <> ?", ownerID, model.StatusProspect).
		Order("submitted_at DESC").
		Find(&prospects).Error
	return prospects, err
}

// ListShadow returns only shadow-state rows for the import review view.
func (r *ProspectRepository) ListShadow(ownerID uint) ([]model.Prospect, error) {
	var prospects []model.Prospect
	err := r.DB.
		Where("owner_id = ? AND status = ?", ownerID, model.StatusProspect).
		Order("submitted_at DESC").
		Find(&prospects).Error
	return prospects, err
}

func (r *ProspectRepository) ListByStatus(ownerID uint, status model.Status) ([]model.Prospect, error) {
	var prospects []model.Prospect
	err := r.DB.
		Where("owner_id = ? AND status = ?", ownerID, status).
		Order("submitted_at DESC").
		Find(&prospects).Error
	return prospects, err
}

func (r *ProspectRepository) ListPendingSync(ownerID uint) ([]model.Prospect, error) {
	var prospects []model.Prospect
	err := r.DB.
		Where("owner_id = ? AND pending_sync = ?", ownerID, true).
		Order("created_at ASC").
		Find(&prospects).Error
	return prospects, err
}

// MarkSynced clears the pending flag and records the id assigned by the
// hosted store.
func (r *ProspectRepository) MarkSynced(id string, remoteID string) error {
	return r.DB.Model(&model.Prospect{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pending_sync": false,
			"remote_id":    remoteID,
		}).Error
}
