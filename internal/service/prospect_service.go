package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"
	"scout_crm_backend/pkg/logger"

	"go.uber.org/zap"
)

type remoteWriter interface {
	InsertProspect(ctx context.Context, p *model.Prospect) (string, error)
	PatchProspect(ctx context.Context, remoteID string, patch ProspectPatch) error
	DeleteRow(ctx context.Context, remoteID string) error
}

type queueSink interface {
	Enqueue(ctx context.Context, p *model.Prospect) error
	SetOnline(ctx context.Context, online bool)
	Online() bool
	Discard(ctx context.Context, localID string) error
}

type prospectStore interface {
	Create(p *model.Prospect) error
	FindByID(id string) (*model.Prospect, error)
	Update(p *model.Prospect) error
	Delete(id string) error
	MarkSynced(id string, remoteID string) error
}

// CreateProspectRequest carries scout-entered prospect details.
type CreateProspectRequest struct {
	Name          string  `json:"name" binding:"required"`
	Position      string  `json:"position" binding:"required"`
	Age           *int    `json:"age"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	GuardianEmail *string `json:"guardianEmail"`
	GuardianPhone *string `json:"guardianPhone"`
	Club          *string `json:"club"`
	Notes         string  `json:"notes"`
	Status        string  `json:"status"`
}

// UpdateProspectRequest patches contact details and notes. Status moves
// go through the transition endpoint, not here.
type UpdateProspectRequest struct {
	Age           *int    `json:"age"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	GuardianEmail *string `json:"guardianEmail"`
	GuardianPhone *string `json:"guardianPhone"`
	Club          *string `json:"club"`
	Notes         *string `json:"notes"`
}

// ProspectService owns prospect CRUD. Writes land locally first; the
// hosted store is updated optimistically, and failed inserts fall back
// to the durable sync queue so no prospect is ever lost to an outage.
type ProspectService struct {
	prospects prospectStore
	remote    remoteWriter
	queue     queueSink
	notifier  Notifier
}

func NewProspectService(prospects prospectStore, remote remoteWriter, queue queueSink, notifier Notifier) *ProspectService {
	return &ProspectService{prospects: prospects, remote: remote, queue: queue, notifier: notifier}
}

func (s *ProspectService) Create(ctx context.Context, ownerID uint, req CreateProspectRequest) (*model.Prospect, error) {
	status := model.StatusLead
	if req.Status != "" {
		status = model.Status(req.Status)
		if !status.Valid() {
			return nil, util.ErrInvalidStatus
		}
	}

	p := &model.Prospect{
		OwnerID:        ownerID,
		Name:           req.Name,
		Position:       req.Position,
		Age:            req.Age,
		Email:          req.Email,
		Phone:          req.Phone,
		GuardianEmail:  req.GuardianEmail,
		GuardianPhone:  req.GuardianPhone,
		Club:           req.Club,
		Notes:          req.Notes,
		Status:         status,
		ActivityStatus: model.ActivityNone,
		SubmittedAt:    time.Now(),
	}
	if err := s.prospects.Create(p); err != nil {
		return nil, err
	}

	s.syncNew(ctx, p)
	return p, nil
}

// CreateShadowBatch stores extracted candidates in the shadow state so
// they appear in import review but never on the board.
func (s *ProspectService) CreateShadowBatch(ctx context.Context, ownerID uint, candidates []Candidate) ([]model.Prospect, error) {
	created := make([]model.Prospect, 0, len(candidates))
	for _, c := range candidates {
		p := &model.Prospect{
			OwnerID:        ownerID,
			Name:           c.Name,
			Position:       c.Position,
			Age:            c.Age,
			Email:          c.Email,
			Phone:          c.Phone,
			Club:           c.Club,
			Notes:          c.Notes,
			Status:         model.StatusProspect,
			ActivityStatus: model.ActivityNone,
			SubmittedAt:    time.Now(),
		}
		if err := s.prospects.Create(p); err != nil {
			return created, err
		}
		s.syncNew(ctx, p)
		created = append(created, *p)
	}
	return created, nil
}

// syncNew pushes a freshly created prospect to the hosted store, or
// queues it when the push fails. The local row already exists either
// way. While the queue already knows the store is down, the insert is
// skipped entirely so an offline create does not wait out the HTTP
// timeout before queueing.
func (s *ProspectService) syncNew(ctx context.Context, p *model.Prospect) {
	if !s.queue.Online() {
		logger.Log.Info("remote store offline, queueing prospect directly",
			zap.String("prospect_id", p.ID))
		s.deferSync(ctx, p)
		return
	}

	remoteID, err := s.remote.InsertProspect(ctx, p)
	if err == nil {
		if err := s.prospects.MarkSynced(p.ID, remoteID); err != nil {
			logger.Log.Error("failed to record remote id", zap.String("prospect_id", p.ID), zap.Error(err))
			return
		}
		p.RemoteID = &remoteID
		p.PendingSync = false
		s.queue.SetOnline(ctx, true)
		return
	}

	logger.Log.Warn("remote insert failed, queueing prospect",
		zap.String("prospect_id", p.ID), zap.Error(err))
	s.deferSync(ctx, p)

	if errors.Is(err, util.ErrRemoteUnavailable) {
		s.queue.SetOnline(ctx, false)
		return
	}
	s.notifier.Notify(ctx, p.OwnerID, p.ID, model.NotificationSyncFailure,
		"Sync needs attention",
		fmt.Sprintf("%s was saved locally but the shared database refused it: %v", p.Name, err))
}

// deferSync flags the row pending and hands it to the durable queue.
func (s *ProspectService) deferSync(ctx context.Context, p *model.Prospect) {
	p.PendingSync = true
	if updErr := s.prospects.Update(p); updErr != nil {
		logger.Log.Error("failed to flag prospect pending sync", zap.Error(updErr))
	}
	if qErr := s.queue.Enqueue(ctx, p); qErr != nil {
		logger.Log.Error("failed to enqueue prospect for sync", zap.Error(qErr))
	}
}

func (s *ProspectService) Get(id string) (*model.Prospect, error) {
	return s.prospects.FindByID(id)
}

func (s *ProspectService) Update(ctx context.Context, id string, req UpdateProspectRequest) (*model.Prospect, error) {
	p, err := s.prospects.FindByID(id)
	if err != nil {
		return nil, err
	}

	patch := ProspectPatch{}
	if req.Age != nil {
		p.Age = req.Age
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.GuardianEmail != nil {
		p.GuardianEmail = req.GuardianEmail
	}
	if req.GuardianPhone != nil {
		p.GuardianPhone = req.GuardianPhone
	}
	if req.Club != nil {
		p.Club = req.Club
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
		patch.Notes = req.Notes
	}

	if err := s.prospects.Update(p); err != nil {
		return nil, err
	}

	if p.RemoteID != nil {
		if err := s.remote.PatchProspect(ctx, *p.RemoteID, patch); err != nil {
			logger.Log.Warn("remote detail patch failed", zap.String("prospect_id", id), zap.Error(err))
			if errors.Is(err, util.ErrRemoteUnavailable) {
				s.queue.SetOnline(ctx, false)
			}
		}
	}
	return p, nil
}

// Delete removes a prospect locally and best-effort remotely, and drops
// any still-pending queue entry so the drain never resurrects it.
func (s *ProspectService) Delete(ctx context.Context, id string) error {
	p, err := s.prospects.FindByID(id)
	if err != nil {
		return err
	}
	if err := s.prospects.Delete(id); err != nil {
		return err
	}

	if dErr := s.queue.Discard(ctx, id); dErr != nil && !errors.Is(dErr, util.ErrQueueEntryNotFound) {
		logger.Log.Warn("failed to drop queue entry for deleted prospect", zap.Error(dErr))
	}

	if p.RemoteID != nil {
		if err := s.remote.DeleteRow(ctx, *p.RemoteID); err != nil {
			logger.Log.Warn("remote delete failed", zap.String("prospect_id", id), zap.Error(err))
			if errors.Is(err, util.ErrRemoteUnavailable) {
				s.queue.SetOnline(ctx, false)
			}
		}
	}
	return nil
}
