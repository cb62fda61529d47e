package model

type OutreachMethod string

const (
	OutreachEmail     OutreachMethod = "email"
	OutreachWhatsApp  OutreachMethod = "whatsapp"
	OutreachClipboard OutreachMethod = "clipboard"
)

func (m OutreachMethod) Valid() bool {
	switch m {
	case OutreachEmail, OutreachWhatsApp, OutreachClipboard:
		return true
	}
	return false
}

// OutreachLog records a single contact attempt. Rows are append-only:
// nothing updates or deletes them after creation.
// swagger:model OutreachLog
type OutreachLog struct {
	UUIDBase
	ProspectID   string         `gorm:"size:36;index;not null" json:"prospectId"`
	Method       OutreachMethod `gorm:"size:20;not null" json:"method"`
	TemplateName string         `gorm:"size:100" json:"templateName"`
	Note         string         `gorm:"type:text" json:"note,omitempty"`
}

func (OutreachLog) TableName() string {
	return "outreach_logs"
}
