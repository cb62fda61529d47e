package service

import (
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/repository"
)

// BoardColumn is one pipeline stage with its prospects, in board order.
type BoardColumn struct {
	Status    model.Status     `json:"status"`
	Label     string           `json:"label"`
	Prospects []model.Prospect `json:"prospects"`
}

// PipelineService builds the board and import review views.
type PipelineService struct {
	prospects *repository.ProspectRepository
}

func NewPipelineService(prospects *repository.ProspectRepository) *PipelineService {
	return &PipelineService{prospects: prospects}
}

// Board groups a scout's visible prospects by status. The shadow state
// never gets a column: its rows are excluded at query time and the
// column list itself skips it.
func (s *PipelineService) Board(ownerID uint) ([]BoardColumn, error) {
	prospects, err := s.prospects.ListVisible(ownerID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[model.Status][]model.Prospect)
	for _, p := range prospects {
		grouped[p.Status] = append(grouped[p.Status], p)
	}

	columns := make([]BoardColumn, 0, len(model.AllStatuses)-1)
	for _, status := range model.AllStatuses {
		if status == model.StatusProspect {
			continue
		}
		col := BoardColumn{Status: status, Label: status.Label(), Prospects: grouped[status]}
		if col.Prospects == nil {
			col.Prospects = []model.Prospect{}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// ImportReview lists only shadow-state prospects awaiting triage.
func (s *PipelineService) ImportReview(ownerID uint) ([]model.Prospect, error) {
	return s.prospects.ListShadow(ownerID)
}

func (s *PipelineService) PendingSync(ownerID uint) ([]model.Prospect, error) {
	return s.prospects.ListPendingSync(ownerID)
}
