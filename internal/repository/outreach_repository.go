package repository

import (
	"errors"
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"gorm.io/gorm"
)

// OutreachRepository persists outreach logs and templates. Logs are
// append-only: there is deliberately no update or delete method.
type OutreachRepository struct {
	DB *gorm.DB
}

func NewOutreachRepository(db *gorm.DB) *OutreachRepository {
	return &OutreachRepository{DB: db}
}

func (r *OutreachRepository) AppendLog(log *model.OutreachLog) error {
	return r.DB.Create(log).Error
}

// ListLogs returns a prospect's outreach history, newest first.
func (r *OutreachRepository) ListLogs(prospectID string) ([]model.OutreachLog, error) {
	var logs []model.OutreachLog
	err := r.DB.
		Where("prospect_id = ?", prospectID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

func (r *OutreachRepository) FindTemplate(name string) (*model.OutreachTemplate, error) {
	var t model.OutreachTemplate
	err := r.DB.Where("name = ? AND enabled = ?", name, true).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *OutreachRepository) ListTemplates() ([]model.OutreachTemplate, error) {
	var templates []model.OutreachTemplate
	err := r.DB.Where("enabled = ?", true).Order("name ASC").Find(&templates).Error
	return templates, err
}
