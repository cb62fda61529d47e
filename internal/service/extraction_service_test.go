package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	response string
	err      error
	// afterCall runs between the model call and the re-read, to simulate
	// concurrent edits.
	afterCall func()
}

func (a *fakeAI) Generate(ctx context.Context, system, prompt, imageB64 string) (string, error) {
	if a.afterCall != nil {
		defer a.afterCall()
	}
	if a.err != nil {
		return "", a.err
	}
	return a.response, nil
}

type fakeCounter struct {
	charged int
	err     error
}

func (c *fakeCounter) Charge(ctx context.Context, n int) error {
	if c.err != nil {
		return c.err
	}
	c.charged += n
	return nil
}

type fakeShadowCreator struct {
	received []Candidate
}

func (c *fakeShadowCreator) CreateShadowBatch(ctx context.Context, ownerID uint, candidates []Candidate) ([]model.Prospect, error) {
	c.received = append(c.received, candidates...)
	out := make([]model.Prospect, len(candidates))
	for i, cand := range candidates {
		out[i] = model.Prospect{Name: cand.Name, Status: model.StatusProspect}
	}
	return out, nil
}

func TestParseEvaluationFencedJSONWithProse(t *testing.T) {
	reply := "Sure! Here is the evaluation you asked for:\n" +
		"```json\n" +
		`{"score": 72, "scholarshipTier": "tier two", "strengths": "fast", "weaknesses": ["positioning"], "summary": "Promising winger."}` +
		"\n```\n" +
		"Let me know if you need anything else."

	eval := parseEvaluation(reply)
	require.NotNil(t, eval)

	assert.Equal(t, 72, eval.Score)
	assert.Equal(t, model.Tier2, eval.Tier)
	assert.Equal(t, []string{}, eval.Strengths, "non-array strengths collapse to empty, not nil")
	assert.Equal(t, []string{"positioning"}, eval.Weaknesses)
	assert.Equal(t, "Promising winger.", eval.Summary)
}

func TestParseEvaluationDefaults(t *testing.T) {
	eval := parseEvaluation(`{"summary":"thin reply"}`)
	require.NotNil(t, eval)
	assert.Equal(t, 50, eval.Score)
	assert.Equal(t, model.Tier3, eval.Tier, "missing tier falls to the lowest tier")
	assert.Equal(t, []string{}, eval.RecommendedPathways)
}

func TestParseEvaluationClampsScore(t *testing.T) {
	assert.Equal(t, 100, parseEvaluation(`{"score": 140}`).Score)
	assert.Equal(t, 0, parseEvaluation(`{"score": -3}`).Score)
	assert.Equal(t, 88, parseEvaluation(`{"score": "88"}`).Score, "numeric strings are accepted")
}

func TestParseEvaluationGarbageFallsBack(t *testing.T) {
	for _, reply := range []string{
		"",
		"I cannot evaluate this player.",
		`["not", "an", "object"]`,
		"{broken json",
	} {
		eval := parseEvaluation(reply)
		require.NotNil(t, eval, "reply %q", reply)
		assert.Equal(t, 50, eval.Score)
		assert.Equal(t, model.Tier3, eval.Tier)
	}
}

func TestNormalizeTier(t *testing.T) {
	assert.Equal(t, model.Tier1, normalizeTier("Tier 1"))
	assert.Equal(t, model.Tier1, normalizeTier("tier-1 (elite)"))
	assert.Equal(t, model.Tier2, normalizeTier("TIER 2"))
	assert.Equal(t, model.Tier3, normalizeTier("Tier 3"))
	assert.Equal(t, model.Tier3, normalizeTier("gold"))
	assert.Equal(t, model.Tier3, normalizeTier(""))
}

func TestParseCandidatesSkipsJunkRows(t *testing.T) {
	reply := "```json\n" + `[
		{"name": "Leo Costa", "position": "RW", "age": 15, "club": "AC Braga Youth"},
		{"name": "", "position": "CB"},
		{"position": "GK"},
		"just a string",
		{"name": "Sam Okoye", "age": "seventeen"}
	]` + "\n```"

	candidates := parseCandidates(reply)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Leo Costa", candidates[0].Name)
	require.NotNil(t, candidates[0].Age)
	assert.Equal(t, 15, *candidates[0].Age)
	require.NotNil(t, candidates[0].Club)
	assert.Equal(t, "AC Braga Youth", *candidates[0].Club)

	assert.Equal(t, "Sam Okoye", candidates[1].Name)
	assert.Nil(t, candidates[1].Age, "unparseable age is dropped")
	assert.Equal(t, "Unknown", candidates[1].Position)
}

func TestExtractCandidatesDegradesOnModelFailure(t *testing.T) {
	svc := NewExtractionService(&fakeAI{err: errors.New("rate limited")}, newFakeProspectStore(), &fakeShadowCreator{}, &fakeCounter{})
	candidates := svc.ExtractCandidates(context.Background(), "roster text", "")
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestImportCandidatesChargesBudgetAndCreatesShadows(t *testing.T) {
	ai := &fakeAI{response: `[{"name":"A","position":"ST"},{"name":"B","position":"CB"}]`}
	counter := &fakeCounter{}
	creator := &fakeShadowCreator{}
	svc := NewExtractionService(ai, newFakeProspectStore(), creator, counter)

	created, err := svc.ImportCandidates(context.Background(), 1, "two players", "")
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, 2, counter.charged)
	assert.Len(t, creator.received, 2)
}

func TestImportCandidatesHonorsDailyLimit(t *testing.T) {
	ai := &fakeAI{response: `[{"name":"A","position":"ST"}]`}
	creator := &fakeShadowCreator{}
	svc := NewExtractionService(ai, newFakeProspectStore(), creator, &fakeCounter{err: util.ErrDailyImportLimit})

	_, err := svc.ImportCandidates(context.Background(), 1, "a player", "")
	assert.ErrorIs(t, err, util.ErrDailyImportLimit)
	assert.Empty(t, creator.received, "nothing is created once the budget is exhausted")
}

func TestEvaluateProspectStoresResult(t *testing.T) {
	store := newFakeProspectStore(&model.Prospect{
		UUIDBase: model.UUIDBase{ID: "p1"},
		Name:     "Mia",
		Position: "CM",
		Status:   model.StatusInterested,
	})
	ai := &fakeAI{response: `{"score": 90, "scholarshipTier": "Tier 1", "summary": "Standout."}`}
	svc := NewExtractionService(ai, store, &fakeShadowCreator{}, &fakeCounter{})

	eval, err := svc.EvaluateProspect(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 90, eval.Score)
	assert.Equal(t, model.Tier1, eval.Tier)

	stored, _ := store.FindByID("p1")
	require.NotNil(t, stored.Evaluation)
	assert.Equal(t, 90, stored.Evaluation.Score)
}

func TestEvaluateProspectStoresFallbackOnModelFailure(t *testing.T) {
	store := newFakeProspectStore(&model.Prospect{
		UUIDBase: model.UUIDBase{ID: "p1"},
		Name:     "Mia",
		Position: "CM",
	})
	svc := NewExtractionService(&fakeAI{err: errors.New("timeout")}, store, &fakeShadowCreator{}, &fakeCounter{})

	eval, err := svc.EvaluateProspect(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 50, eval.Score)
	assert.Equal(t, model.Tier3, eval.Tier)
	assert.NotEmpty(t, eval.Summary)
}

func TestEvaluateProspectDiscardsStaleResult(t *testing.T) {
	store := newFakeProspectStore(&model.Prospect{
		UUIDBase: model.UUIDBase{ID: "p1", UpdatedAt: time.Now()},
		Name:     "Mia",
		Position: "CM",
		Notes:    "original",
	})
	ai := &fakeAI{
		response: `{"score": 95}`,
		afterCall: func() {
			// Concurrent edit while the model call was in flight.
			p, _ := store.FindByID("p1")
			p.Notes = "edited meanwhile"
			_ = store.Update(p)
		},
	}
	svc := NewExtractionService(ai, store, &fakeShadowCreator{}, &fakeCounter{})

	_, err := svc.EvaluateProspect(context.Background(), "p1")
	assert.ErrorIs(t, err, util.ErrStaleEvaluation)

	stored, _ := store.FindByID("p1")
	assert.Nil(t, stored.Evaluation, "stale evaluation must not be written")
	assert.Equal(t, "edited meanwhile", stored.Notes)
}
