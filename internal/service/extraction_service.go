package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"
	"scout_crm_backend/pkg/logger"
	"scout_crm_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const extractionSystemPrompt = "You are a data extraction assistant for a soccer scouting team. " +
	"Extract player candidates from the supplied text or screenshot. " +
	"Respond with a JSON array only; each element has name, position, age, email, phone, club, notes. " +
	"Use null for unknown fields. Do not invent players."

const evaluationSystemPrompt = "You are a soccer scouting analyst. Evaluate the player described by the user. " +
	"Respond with a JSON object only, with fields: score (0-100 integer), scholarshipTier " +
	"(one of \"Tier 1\", \"Tier 2\", \"Tier 3\"), recommendedPathways (array of strings), " +
	"strengths (array of strings), weaknesses (array of strings), nextAction (string), summary (string)."

// Candidate is one player pulled out of pasted text or a screenshot,
// before it becomes a shadow prospect.
type Candidate struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Age      *int    `json:"age,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Club     *string `json:"club,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// ImportCounter enforces the daily bulk-import ceiling.
type ImportCounter interface {
	Charge(ctx context.Context, n int) error
}

// RedisImportCounter keys the counter by calendar day so the limit
// resets at midnight without a scheduler.
type RedisImportCounter struct {
	rdb   *redis.Client
	limit int
}

func NewRedisImportCounter(rdb *redis.Client, limit int) *RedisImportCounter {
	return &RedisImportCounter{rdb: rdb, limit: limit}
}

func (c *RedisImportCounter) Charge(ctx context.Context, n int) error {
	key := "scout_crm:import:" + time.Now().Format("2006-01-02")
	total, err := c.rdb.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return err
	}
	c.rdb.Expire(ctx, key, 48*time.Hour)
	if total > int64(c.limit) {
		c.rdb.DecrBy(ctx, key, int64(n))
		return util.ErrDailyImportLimit
	}
	return nil
}

type aiGenerator interface {
	Generate(ctx context.Context, system, prompt, imageB64 string) (string, error)
}

type shadowCreator interface {
	CreateShadowBatch(ctx context.Context, ownerID uint, candidates []Candidate) ([]model.Prospect, error)
}

type evaluationProspectStore interface {
	FindByID(id string) (*model.Prospect, error)
	Update(p *model.Prospect) error
}

// ExtractionService turns unstructured scouting material into prospects
// and produces AI evaluations. Model output is never trusted: everything
// is re-parsed and normalized before it touches storage.
type ExtractionService struct {
	ai        aiGenerator
	prospects evaluationProspectStore
	creator   shadowCreator
	counter   ImportCounter
}

func NewExtractionService(ai aiGenerator, prospects evaluationProspectStore, creator shadowCreator, counter ImportCounter) *ExtractionService {
	return &ExtractionService{ai: ai, prospects: prospects, creator: creator, counter: counter}
}

// ExtractCandidates asks the model for candidates in the given text or
// screenshot. A model failure or unparseable reply degrades to an empty
// list; the caller reports "nothing found" rather than an error page.
func (s *ExtractionService) ExtractCandidates(ctx context.Context, raw string, imageB64 string) []Candidate {
	prompt := "Extract every player candidate from the following material.\n\n" + raw
	if raw == "" {
		prompt = "Extract every player candidate from the attached screenshot."
	}

	text, err := s.ai.Generate(ctx, extractionSystemPrompt, prompt, imageB64)
	if err != nil {
		logger.Log.Warn("candidate extraction call failed", zap.Error(err))
		monitoring.ExtractionTotal.WithLabelValues("candidates", "error").Inc()
		return []Candidate{}
	}

	candidates := parseCandidates(text)
	if len(candidates) == 0 {
		monitoring.ExtractionTotal.WithLabelValues("candidates", "empty").Inc()
	} else {
		monitoring.ExtractionTotal.WithLabelValues("candidates", "success").Inc()
	}
	return candidates
}

// ImportCandidates extracts and stores candidates as shadow prospects,
// charging the daily import budget before anything is written.
func (s *ExtractionService) ImportCandidates(ctx context.Context, ownerID uint, raw string, imageB64 string) ([]model.Prospect, error) {
	candidates := s.ExtractCandidates(ctx, raw, imageB64)
	if len(candidates) == 0 {
		return []model.Prospect{}, nil
	}
	if err := s.counter.Charge(ctx, len(candidates)); err != nil {
		return nil, err
	}
	return s.creator.CreateShadowBatch(ctx, ownerID, candidates)
}

// EvaluateProspect generates and stores an evaluation. The prospect is
// re-read after the model call; if it changed in between, the result is
// discarded instead of clobbering newer data.
func (s *ExtractionService) EvaluateProspect(ctx context.Context, id string) (*model.Evaluation, error) {
	p, err := s.prospects.FindByID(id)
	if err != nil {
		return nil, err
	}
	snapshot := p.UpdatedAt

	text, genErr := s.ai.Generate(ctx, evaluationSystemPrompt, describeProspect(p), "")

	var eval *model.Evaluation
	if genErr != nil {
		logger.Log.Warn("evaluation call failed, storing fallback",
			zap.String("prospect_id", id), zap.Error(genErr))
		monitoring.ExtractionTotal.WithLabelValues("evaluation", "fallback").Inc()
		eval = fallbackEvaluation()
	} else {
		eval = parseEvaluation(text)
		monitoring.ExtractionTotal.WithLabelValues("evaluation", "success").Inc()
	}

	current, err := s.prospects.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !current.UpdatedAt.Equal(snapshot) {
		return nil, util.ErrStaleEvaluation
	}

	current.Evaluation = eval
	if err := s.prospects.Update(current); err != nil {
		return nil, err
	}
	return eval, nil
}

func describeProspect(p *model.Prospect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nPosition: %s\n", p.Name, p.Position)
	if p.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *p.Age)
	}
	if p.Club != nil {
		fmt.Fprintf(&b, "Club: %s\n", *p.Club)
	}
	if p.Notes != "" {
		fmt.Fprintf(&b, "Scout notes: %s\n", p.Notes)
	}
	return b.String()
}

// decodeJSONValue pulls the first JSON value out of model output that
// may be wrapped in markdown fences or surrounded by prose. Decoding
// starts at the first brace or bracket, whichever comes sooner, so an
// array is not mistaken for its first element; trailing chatter is
// ignored.
func decodeJSONValue(text string) (interface{}, bool) {
	idx := strings.IndexAny(text, "{[")
	if idx < 0 {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(text[idx:]))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

func parseCandidates(text string) []Candidate {
	v, ok := decodeJSONValue(text)
	if !ok {
		return []Candidate{}
	}
	items, ok := v.([]interface{})
	if !ok {
		return []Candidate{}
	}

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name := strings.TrimSpace(toString(obj["name"]))
		if name == "" {
			continue
		}
		c := Candidate{
			Name:     name,
			Position: strings.TrimSpace(toString(obj["position"])),
			Notes:    strings.TrimSpace(toString(obj["notes"])),
		}
		if c.Position == "" {
			c.Position = "Unknown"
		}
		if age, ok := toInt(obj["age"]); ok && age > 0 && age < 100 {
			c.Age = &age
		}
		if email := strings.TrimSpace(toString(obj["email"])); email != "" {
			c.Email = &email
		}
		if phone := strings.TrimSpace(toString(obj["phone"])); phone != "" {
			c.Phone = &phone
		}
		if club := strings.TrimSpace(toString(obj["club"])); club != "" {
			c.Club = &club
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// parseEvaluation never returns nil: missing or malformed fields fall
// back to neutral defaults so a sloppy model reply still yields a usable
// record.
func parseEvaluation(text string) *model.Evaluation {
	v, ok := decodeJSONValue(text)
	if !ok {
		return fallbackEvaluation()
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return fallbackEvaluation()
	}

	eval := &model.Evaluation{
		Score:               50,
		Tier:                model.Tier3,
		RecommendedPathways: toStringList(obj["recommendedPathways"]),
		Strengths:           toStringList(obj["strengths"]),
		Weaknesses:          toStringList(obj["weaknesses"]),
		NextAction:          strings.TrimSpace(toString(obj["nextAction"])),
		Summary:             strings.TrimSpace(toString(obj["summary"])),
	}
	if score, ok := toInt(obj["score"]); ok {
		eval.Score = clampScore(score)
	}
	tierRaw := toString(obj["scholarshipTier"])
	if tierRaw == "" {
		tierRaw = toString(obj["tier"])
	}
	eval.Tier = normalizeTier(tierRaw)
	return eval
}

func fallbackEvaluation() *model.Evaluation {
	return &model.Evaluation{
		Score:               50,
		Tier:                model.Tier3,
		RecommendedPathways: []string{},
		Strengths:           []string{},
		Weaknesses:          []string{},
		NextAction:          "Review manually",
		Summary:             "Automatic evaluation was unavailable. Review this player manually.",
	}
}

// normalizeTier maps free-form tier text onto the three canonical
// labels, defaulting to the lowest tier when the text matches none.
func normalizeTier(raw string) string {
	switch {
	case strings.Contains(raw, "1"):
		return model.Tier1
	case strings.Contains(raw, "2"):
		return model.Tier2
	default:
		return model.Tier3
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		var parsed int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &parsed); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

// toStringList coerces a model-supplied field into a string slice. A
// scalar or missing value becomes an empty slice, never nil.
func toStringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
