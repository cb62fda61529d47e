package model

import (
	"time"
)

// Status is the internal pipeline token for a prospect. Display labels and
// the remote store's tokens are mapped separately so the transition logic
// never depends on either representation.
type Status string

const (
	// StatusProspect is the shadow state: bulk-imported or AI-extracted
	// candidates that have not surfaced on the pipeline board yet.
	StatusProspect    Status = "prospect"
	StatusLead        Status = "lead"
	StatusContacted   Status = "contacted"
	StatusInterested  Status = "interested"
	StatusFinalReview Status = "final_review"
	StatusOffered     Status = "offered"
	StatusPlaced      Status = "placed"
	StatusArchived    Status = "archived"
)

// AllStatuses lists every status in pipeline order.
var AllStatuses = []Status{
	StatusProspect,
	StatusLead,
	StatusContacted,
	StatusInterested,
	StatusFinalReview,
	StatusOffered,
	StatusPlaced,
	StatusArchived,
}

var statusLabels = map[Status]string{
	StatusProspect:    "Prospect",
	StatusLead:        "Lead",
	StatusContacted:   "Contacted",
	StatusInterested:  "Interested",
	StatusFinalReview: "Final Review",
	StatusOffered:     "Offered",
	StatusPlaced:      "Placed",
	StatusArchived:    "Archived",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the user-facing name for the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ActivityStatus tracks engagement with an externally shared assessment
// link. It only ever advances: none -> viewed -> submitted.
type ActivityStatus string

const (
	ActivityNone      ActivityStatus = "none"
	ActivityViewed    ActivityStatus = "viewed"
	ActivitySubmitted ActivityStatus = "submitted"
)

var activityRank = map[ActivityStatus]int{
	ActivityNone:      0,
	ActivityViewed:    1,
	ActivitySubmitted: 2,
}

func (a ActivityStatus) Rank() int {
	return activityRank[a]
}

// Tier values for AI evaluations.
const (
	Tier1 = "Tier 1"
	Tier2 = "Tier 2"
	Tier3 = "Tier 3"
)

// Evaluation is the AI-generated assessment attached to a prospect. It is
// stored as a single JSON column; absence means evaluation is pending.
type Evaluation struct {
	Score               int      `json:"score"`
	Tier                string   `json:"tier"`
	RecommendedPathways []string `json:"recommendedPathways"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	NextAction          string   `json:"nextAction"`
	Summary             string   `json:"summary"`
}

// swagger:model Prospect
type Prospect struct {
	UUIDBase
	OwnerID  uint   `gorm:"index;not null" json:"ownerId"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Position string `gorm:"size:50;not null" json:"position"`

	Age           *int    `json:"age,omitempty"`
	Email         *string `gorm:"size:100" json:"email,omitempty"`
	Phone         *string `gorm:"size:40" json:"phone,omitempty"`
	GuardianEmail *string `gorm:"size:100" json:"guardianEmail,omitempty"`
	GuardianPhone *string `gorm:"size:40" json:"guardianPhone,omitempty"`
	Club          *string `gorm:"size:100" json:"club,omitempty"`
	Notes         string  `gorm:"type:text" json:"notes"`

	Status     Status      `gorm:"size:20;default:'lead';index" json:"status"`
	Evaluation *Evaluation `gorm:"serializer:json" json:"evaluation,omitempty"`

	// Only meaningful while status is interested / placed respectively;
	// stale values may linger after a later transition.
	InterestedProgram string `gorm:"size:255" json:"interestedProgram"`
	PlacedLocation    string `gorm:"size:255" json:"placedLocation"`

	ActivityStatus ActivityStatus `gorm:"size:10;default:'none'" json:"activityStatus"`
	LastActive     *time.Time     `json:"lastActive,omitempty"`

	SubmittedAt time.Time `gorm:"not null" json:"submittedAt"`

	// PendingSync marks prospects created while the remote store was
	// unreachable; RemoteID is set once the hosted store confirms the row.
	PendingSync bool    `gorm:"default:false;index" json:"pendingSync"`
	RemoteID    *string `gorm:"size:64;index" json:"remoteId,omitempty"`

	OutreachLogs []OutreachLog `gorm:"foreignKey:ProspectID" json:"outreachLogs,omitempty"`
}

func (Prospect) TableName() string {
	return "prospects"
}

// VisibleInPipeline reports whether the prospect appears on the primary
// board. Shadow-state rows surface only in the import review view. The
// predicate is pure and must be re-evaluated on every read.
func (p *Prospect) VisibleInPipeline() bool {
	return p.Status != StatusProspect
}
