package model

type NotificationKind string

const (
	NotificationPromotion   NotificationKind = "promotion"
	NotificationCelebration NotificationKind = "celebration"
	NotificationSyncFailure NotificationKind = "sync_failure"
)

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID     uint             `gorm:"index;not null" json:"userId"`
	ProspectID string           `gorm:"size:36;index" json:"prospectId"`
	Kind       NotificationKind `gorm:"size:20;not null" json:"kind"`
	Title      string           `gorm:"size:255;not null" json:"title"`
	Message    string           `gorm:"type:text" json:"message"`
	Read       bool             `gorm:"default:false" json:"read"`
}

func (Notification) TableName() string {
	return "notifications"
}
