package model

// OutreachTemplate is a reusable message body for scout outreach. The body
// supports {{name}}, {{position}} and {{scout}} placeholders.
// swagger:model OutreachTemplate
type OutreachTemplate struct {
	BaseModel
	Name    string         `gorm:"size:100;unique;not null" json:"name"`
	Method  OutreachMethod `gorm:"size:20;not null" json:"method"`
	Subject string         `gorm:"size:255" json:"subject"`
	Body    string         `gorm:"type:text;not null" json:"body"`
	Enabled bool           `gorm:"default:true" json:"enabled"`
}

func (OutreachTemplate) TableName() string {
	return "outreach_templates"
}
