package models

import "time"

// UserUsage tracks per-user daily generation counters. The transport layer
// checks these before invoking the pipeline; the pipeline itself never reads
// them.
type UserUsage struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`
	Role   string `gorm:"default:'free'" json:"role"`

	EpisodesGenerated int `gorm:"default:0" json:"episodes_generated"`
	AICalls           int `gorm:"default:0" json:"ai_calls"`
	Keyframes         int `gorm:"default:0" json:"keyframes"`
	Animations        int `gorm:"default:0" json:"animations"`
	TimelineBuilds    int `gorm:"default:0" json:"timeline_builds"`

	LastReset time.Time `json:"last_reset"`
}

func (UserUsage) TableName() string {
	return "user_usage"
}
