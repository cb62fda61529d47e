package service

import (
	"context"
	"strings"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/repository"
	"scout_crm_backend/internal/util"
	"scout_crm_backend/pkg/logger"

	"go.uber.org/zap"
)

const outreachSystemPrompt = "You are helping a soccer scout write short, warm outreach messages to young players " +
	"and their families. Keep the supplied draft's intent and length. Return only the rewritten message text."

// OutreachService drafts and records contact attempts. The history is
// append-only; a logged attempt is never edited after the fact.
type OutreachService struct {
	outreach  *repository.OutreachRepository
	prospects *repository.ProspectRepository
	ai        aiGenerator
}

func NewOutreachService(outreach *repository.OutreachRepository, prospects *repository.ProspectRepository, ai aiGenerator) *OutreachService {
	return &OutreachService{outreach: outreach, prospects: prospects, ai: ai}
}

// DraftMessage renders a template for the prospect and asks the model to
// personalize it. If the model is unavailable the plain rendered
// template is returned, so drafting works offline.
func (s *OutreachService) DraftMessage(ctx context.Context, prospectID, templateName, scoutName string) (string, *model.OutreachTemplate, error) {
	t, err := s.outreach.FindTemplate(templateName)
	if err != nil {
		return "", nil, err
	}
	p, err := s.prospects.FindByID(prospectID)
	if err != nil {
		return "", nil, err
	}

	base := RenderTemplate(t, p, scoutName)

	prompt := "Rewrite this message for " + p.Name + ", a " + p.Position + ".\n\n" + base
	personalized, err := s.ai.Generate(ctx, outreachSystemPrompt, prompt, "")
	if err != nil || strings.TrimSpace(personalized) == "" {
		if err != nil {
			logger.Log.Warn("outreach personalization failed, using template",
				zap.String("template", templateName), zap.Error(err))
		}
		return base, t, nil
	}
	return strings.TrimSpace(personalized), t, nil
}

// RenderTemplate substitutes the supported placeholders. Unknown
// placeholders are left as-is so a typo is visible in the draft.
func RenderTemplate(t *model.OutreachTemplate, p *model.Prospect, scoutName string) string {
	r := strings.NewReplacer(
		"{{name}}", p.Name,
		"{{position}}", p.Position,
		"{{scout}}", scoutName,
	)
	return r.Replace(t.Body)
}

// LogOutreach appends one contact attempt to the prospect's history.
func (s *OutreachService) LogOutreach(ctx context.Context, prospectID string, method model.OutreachMethod, templateName, note string) (*model.OutreachLog, error) {
	if !method.Valid() {
		return nil, util.ErrInvalidMethod
	}
	if _, err := s.prospects.FindByID(prospectID); err != nil {
		return nil, err
	}

	entry := &model.OutreachLog{
		ProspectID:   prospectID,
		Method:       method,
		TemplateName: templateName,
		Note:         note,
	}
	if err := s.outreach.AppendLog(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *OutreachService) History(prospectID string) ([]model.OutreachLog, error) {
	return s.outreach.ListLogs(prospectID)
}

func (s *OutreachService) Templates() ([]model.OutreachTemplate, error) {
	return s.outreach.ListTemplates()
}
