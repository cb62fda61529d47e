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

// AssessmentPendingProgram is the sentinel written into the interested
// program when a promotion is triggered by an assessment submission
// rather than an explicit scout choice.
const AssessmentPendingProgram = "Assessment received - pending review"

// Notifier delivers in-app notifications. Delivery is fire and forget;
// a failed notification must never fail the mutation that caused it.
type Notifier interface {
	Notify(ctx context.Context, userID uint, prospectID string, kind model.NotificationKind, title, message string)
}

type transitionProspectStore interface {
	FindByID(id string) (*model.Prospect, error)
	Update(p *model.Prospect) error
}

type remotePatcher interface {
	PatchProspect(ctx context.Context, remoteID string, patch ProspectPatch) error
}

type connectivityReporter interface {
	SetOnline(ctx context.Context, online bool)
}

// TransitionService applies pipeline status changes and activity events.
// Local state is authoritative: the mutation and its side effects commit
// first, then the change is pushed to the hosted store best-effort.
type TransitionService struct {
	prospects transitionProspectStore
	notifier  Notifier
	remote    remotePatcher
	conn      connectivityReporter
}

func NewTransitionService(prospects transitionProspectStore, notifier Notifier, remote remotePatcher, conn connectivityReporter) *TransitionService {
	return &TransitionService{
		prospects: prospects,
		notifier:  notifier,
		remote:    remote,
		conn:      conn,
	}
}

// ApplyStatusChange moves a prospect to newStatus. Same-status changes
// are no-ops with no side effects. The extra argument carries the
// interested program or placement location for the statuses that take
// one. A celebration fires exactly once per entry into placed.
func (s *TransitionService) ApplyStatusChange(ctx context.Context, id string, newStatus model.Status, extra string) (*model.Prospect, error) {
	if !newStatus.Valid() {
		return nil, util.ErrInvalidStatus
	}

	p, err := s.prospects.FindByID(id)
	if err != nil {
		return nil, err
	}
	if p.Status == newStatus {
		return p, nil
	}

	old := p.Status
	p.Status = newStatus
	patch := ProspectPatch{Status: &newStatus}

	switch newStatus {
	case model.StatusInterested:
		if extra != "" {
			p.InterestedProgram = extra
			patch.InterestedProgram = &extra
		}
	case model.StatusPlaced:
		if extra != "" {
			p.PlacedLocation = extra
			patch.PlacedLocation = &extra
		}
	}

	if err := s.prospects.Update(p); err != nil {
		return nil, err
	}

	if newStatus == model.StatusPlaced {
		s.notifier.Notify(ctx, p.OwnerID, p.ID, model.NotificationCelebration,
			"Player placed",
			fmt.Sprintf("%s has been placed%s. Congratulations!", p.Name, placedSuffix(p.PlacedLocation)))
	}

	logger.Log.Info("prospect status changed",
		zap.String("prospect_id", p.ID),
		zap.String("from", string(old)),
		zap.String("to", string(newStatus)))

	s.pushPatch(ctx, p, patch)
	return p, nil
}

// HandleActivityEvent records a viewed or submitted event from the
// public assessment link. Activity status only ever moves forward, and a
// submission promotes early-stage prospects onto the board.
func (s *TransitionService) HandleActivityEvent(ctx context.Context, id string, action string) (*model.Prospect, error) {
	if action != "viewed" && action != "submitted" {
		return nil, util.ErrInvalidAction
	}

	p, err := s.prospects.FindByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p.LastActive = &now
	patch := ProspectPatch{LastActive: &now}

	target := model.ActivityViewed
	if action == "submitted" {
		target = model.ActivitySubmitted
	}
	if target.Rank() > p.ActivityStatus.Rank() {
		p.ActivityStatus = target
		patch.ActivityStatus = &target
	}

	if action == "submitted" && (p.Status == model.StatusProspect || p.Status == model.StatusLead) {
		old := p.Status
		promoted := model.StatusInterested
		p.Status = promoted
		p.InterestedProgram = AssessmentPendingProgram
		program := AssessmentPendingProgram
		patch.Status = &promoted
		patch.InterestedProgram = &program

		s.notifier.Notify(ctx, p.OwnerID, p.ID, model.NotificationPromotion,
			"Assessment submitted",
			fmt.Sprintf("%s submitted their assessment and moved from %s to %s.", p.Name, old.Label(), promoted.Label()))
	}

	if err := s.prospects.Update(p); err != nil {
		return nil, err
	}

	s.pushPatch(ctx, p, patch)
	return p, nil
}

// pushPatch forwards the already-committed change to the hosted store.
// Failures are logged, and connectivity failures flip the sync state
// offline; the local mutation stands either way.
func (s *TransitionService) pushPatch(ctx context.Context, p *model.Prospect, patch ProspectPatch) {
	if p.RemoteID == nil {
		return
	}
	if err := s.remote.PatchProspect(ctx, *p.RemoteID, patch); err != nil {
		logger.Log.Warn("remote patch failed",
			zap.String("prospect_id", p.ID),
			zap.Error(err))
		if errors.Is(err, util.ErrRemoteUnavailable) {
			s.conn.SetOnline(ctx, false)
		}
	}
}

func placedSuffix(location string) string {
	if location == "" {
		return ""
	}
	return " at " + location
}
