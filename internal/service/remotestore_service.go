package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/util"
	"time"
)

// statusTokens maps internal pipeline statuses to the hosted store's
// tokens. The mapping is not identity (the store predates the current
// pipeline naming); this table is the single source of truth for
// round-tripping.
var statusTokens = map[model.Status]string{
	model.StatusProspect:    "prospect",
	model.StatusLead:        "lead",
	model.StatusContacted:   "contacted",
	model.StatusInterested:  "interested",
	model.StatusFinalReview: "review",
	model.StatusOffered:     "offer",
	model.StatusPlaced:      "placed",
	model.StatusArchived:    "archived",
}

var tokenStatuses = func() map[string]model.Status {
	m := make(map[string]model.Status, len(statusTokens))
	for s, t := range statusTokens {
		m[t] = s
	}
	return m
}()

func StatusToToken(s model.Status) string {
	return statusTokens[s]
}

// StatusFromToken tolerates legacy tokens from prior schema versions by
// defaulting to lead instead of failing.
func StatusFromToken(token string) model.Status {
	if s, ok := tokenStatuses[token]; ok {
		return s
	}
	return model.StatusLead
}

// ProspectRow is the hosted store's row shape. Optional fields are
// pointers so null and absent round-trip cleanly; the evaluation is
// flattened into a single JSON-encoded column.
type ProspectRow struct {
	ID                *string    `json:"id,omitempty"`
	OwnerID           uint       `json:"owner_id"`
	Name              string     `json:"name"`
	Position          string     `json:"position"`
	Age               *int       `json:"age,omitempty"`
	Email             *string    `json:"email,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	GuardianEmail     *string    `json:"guardian_email,omitempty"`
	GuardianPhone     *string    `json:"guardian_phone,omitempty"`
	Club              *string    `json:"club,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Status            string     `json:"status"`
	Evaluation        *string    `json:"evaluation,omitempty"`
	InterestedProgram *string    `json:"interested_program,omitempty"`
	PlacedLocation    *string    `json:"placed_location,omitempty"`
	ActivityStatus    string     `json:"activity_status"`
	LastActive        *time.Time `json:"last_active,omitempty"`
	SubmittedAt       time.Time  `json:"submitted_at"`
}

// ProspectPatch carries only the fields a caller wants to change. Nil
// fields are never sent, so concurrent server-side edits through other
// clients are not clobbered.
type ProspectPatch struct {
	Status            *model.Status
	InterestedProgram *string
	PlacedLocation    *string
	ActivityStatus    *model.ActivityStatus
	LastActive        *time.Time
	Notes             *string
	Evaluation        *model.Evaluation
}

// RejectionError is a definitive remote refusal (validation, auth,
// constraint violation) as opposed to a connectivity failure.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("remote store rejected request (status %d): %s", e.StatusCode, e.Message)
}

// RemoteStoreService talks to the hosted prospect store over its REST row
// API. All calls are bounded by the configured timeout.
type RemoteStoreService struct {
	cfg    config.RemoteStoreConfig
	client *http.Client
}

func NewRemoteStoreService(cfg config.RemoteStoreConfig) *RemoteStoreService {
	return &RemoteStoreService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func ToRow(p *model.Prospect, ownerID uint) (ProspectRow, error) {
	row := ProspectRow{
		OwnerID:        ownerID,
		Name:           p.Name,
		Position:       p.Position,
		Age:            p.Age,
		Email:          p.Email,
		Phone:          p.Phone,
		GuardianEmail:  p.GuardianEmail,
		GuardianPhone:  p.GuardianPhone,
		Club:           p.Club,
		Status:         StatusToToken(p.Status),
		ActivityStatus: string(p.ActivityStatus),
		LastActive:     p.LastActive,
		SubmittedAt:    p.SubmittedAt,
	}
	if p.RemoteID != nil {
		row.ID = p.RemoteID
	}
	if p.Notes != "" {
		notes := p.Notes
		row.Notes = &notes
	}
	if p.InterestedProgram != "" {
		v := p.InterestedProgram
		row.InterestedProgram = &v
	}
	if p.PlacedLocation != "" {
		v := p.PlacedLocation
		row.PlacedLocation = &v
	}
	if p.Evaluation != nil {
		encoded, err := json.Marshal(p.Evaluation)
		if err != nil {
			return ProspectRow{}, err
		}
		s := string(encoded)
		row.Evaluation = &s
	}
	return row, nil
}

func FromRow(row ProspectRow) *model.Prospect {
	p := &model.Prospect{
		OwnerID:        row.OwnerID,
		Name:           row.Name,
		Position:       row.Position,
		Age:            row.Age,
		Email:          row.Email,
		Phone:          row.Phone,
		GuardianEmail:  row.GuardianEmail,
		GuardianPhone:  row.GuardianPhone,
		Club:           row.Club,
		Status:         StatusFromToken(row.Status),
		ActivityStatus: model.ActivityStatus(row.ActivityStatus),
		LastActive:     row.LastActive,
		SubmittedAt:    row.SubmittedAt,
	}
	if p.ActivityStatus == "" {
		p.ActivityStatus = model.ActivityNone
	}
	if row.ID != nil {
		id := *row.ID
		p.RemoteID = &id
	}
	if row.Notes != nil {
		p.Notes = *row.Notes
	}
	if row.InterestedProgram != nil {
		p.InterestedProgram = *row.InterestedProgram
	}
	if row.PlacedLocation != nil {
		p.PlacedLocation = *row.PlacedLocation
	}
	if row.Evaluation != nil && *row.Evaluation != "" {
		var eval model.Evaluation
		if err := json.Unmarshal([]byte(*row.Evaluation), &eval); err == nil {
			p.Evaluation = &eval
		}
	}
	return p
}

func (p ProspectPatch) toRowPatch() (map[string]interface{}, error) {
	patch := map[string]interface{}{}
	if p.Status != nil {
		patch["status"] = StatusToToken(*p.Status)
	}
	if p.InterestedProgram != nil {
		patch["interested_program"] = *p.InterestedProgram
	}
	if p.PlacedLocation != nil {
		patch["placed_location"] = *p.PlacedLocation
	}
	if p.ActivityStatus != nil {
		patch["activity_status"] = string(*p.ActivityStatus)
	}
	if p.LastActive != nil {
		patch["last_active"] = *p.LastActive
	}
	if p.Notes != nil {
		patch["notes"] = *p.Notes
	}
	if p.Evaluation != nil {
		encoded, err := json.Marshal(p.Evaluation)
		if err != nil {
			return nil, err
		}
		patch["evaluation"] = string(encoded)
	}
	return patch, nil
}

func (s *RemoteStoreService) do(ctx context.Context, method, query string, body interface{}, out interface{}) error {
	if s.cfg.APIKey == "" {
		return util.ErrMissingStoreToken
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s", s.cfg.BaseURL, s.cfg.Table)
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("apikey", s.cfg.APIKey)
	if method == http.MethodPost {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: status %d", util.ErrRemoteUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &RejectionError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// InsertRow creates a row and returns the stored representation,
// including the id assigned by the hosted store.
func (s *RemoteStoreService) InsertRow(ctx context.Context, row ProspectRow) (ProspectRow, error) {
	var rows []ProspectRow
	if err := s.do(ctx, http.MethodPost, "", row, &rows); err != nil {
		return ProspectRow{}, err
	}
	if len(rows) == 0 {
		return ProspectRow{}, &RejectionError{StatusCode: 200, Message: "insert returned no representation"}
	}
	return rows[0], nil
}

func (s *RemoteStoreService) UpdateRow(ctx context.Context, remoteID string, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return nil
	}
	query := "id=eq." + url.QueryEscape(remoteID)
	return s.do(ctx, http.MethodPatch, query, patch, nil)
}

func (s *RemoteStoreService) SelectRows(ctx context.Context, ownerID uint) ([]ProspectRow, error) {
	var rows []ProspectRow
	query := fmt.Sprintf("owner_id=eq.%d", ownerID)
	if err := s.do(ctx, http.MethodGet, query, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *RemoteStoreService) DeleteRow(ctx context.Context, remoteID string) error {
	query := "id=eq." + url.QueryEscape(remoteID)
	return s.do(ctx, http.MethodDelete, query, nil, nil)
}

// Ping probes the store with a minimal select.
func (s *RemoteStoreService) Ping(ctx context.Context) error {
	var rows []ProspectRow
	return s.do(ctx, http.MethodGet, "limit=1", nil, &rows)
}

// InsertProspect maps and inserts a prospect, returning the remote id.
func (s *RemoteStoreService) InsertProspect(ctx context.Context, p *model.Prospect) (string, error) {
	row, err := ToRow(p, p.OwnerID)
	if err != nil {
		return "", err
	}
	stored, err := s.InsertRow(ctx, row)
	if err != nil {
		return "", err
	}
	if stored.ID == nil {
		return "", &RejectionError{StatusCode: 200, Message: "insert returned row without id"}
	}
	return *stored.ID, nil
}

// PatchProspect sends a sparse patch for the given remote row.
func (s *RemoteStoreService) PatchProspect(ctx context.Context, remoteID string, patch ProspectPatch) error {
	rowPatch, err := patch.toRowPatch()
	if err != nil {
		return err
	}
	return s.UpdateRow(ctx, remoteID, rowPatch)
}
