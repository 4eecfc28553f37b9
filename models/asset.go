package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Asset types produced by the generation stages.
const (
	AssetKeyframe  = "keyframe"
	AssetAnimation = "animation"
	AssetVoice     = "voice"
	AssetSFX       = "sfx"
	AssetBGM       = "bgm"
	AssetEpisode   = "episode"
)

// JSONMap stores free-form generation metadata as a jsonb column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}
	return json.Unmarshal(b, m)
}

// Asset is the append-only record of one generated artifact. Regenerations
// create new rows; the most recent row by created_at wins.
type Asset struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProjectID uint   `gorm:"not null;index" json:"project_id"`
	SceneID   *uint  `gorm:"index" json:"scene_id,omitempty"`
	ShotID    *uint  `gorm:"index" json:"shot_id,omitempty"`
	Type      string `gorm:"not null;index" json:"type"`
	URL       string `json:"url"`
	Version   int    `gorm:"default:1" json:"version"`

	Metadata JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	Settings JSONMap `gorm:"type:jsonb" json:"generation_settings,omitempty"`

	TimelineIn  *float64 `json:"timeline_in,omitempty"`
	TimelineOut *float64 `json:"timeline_out,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Asset) TableName() string {
	return "director_assets"
}
