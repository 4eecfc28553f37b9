package models

type Scene struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StoryID     uint   `gorm:"not null;index" json:"story_id"`
	SceneNumber int    `gorm:"not null" json:"scene_number"`
	SceneID     string `gorm:"not null" json:"scene_id"` // e.g. "SCENE-01"
	Title       string `gorm:"not null" json:"title"`
	Summary     string `gorm:"type:text" json:"summary"`
	Location    string `json:"location"`
	TimeOfDay   string `json:"time_of_day"`

	Shots []Shot `gorm:"foreignKey:SceneID" json:"shots,omitempty"`
}

func (Scene) TableName() string {
	return "director_scenes"
}

// Shot rows for a scene are replaced wholesale each time the breakdown
// stage runs: a scene only ever holds shots from its latest breakdown.
type Shot struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	SceneID    uint   `gorm:"not null;index" json:"scene_id"`
	ShotNumber int    `gorm:"not null" json:"shot_number"`
	ShotID     string `gorm:"not null" json:"shot_id"` // e.g. "SHOT-01"
	Type       string `json:"type"`
	Camera     string `json:"camera"`
	Action     string `gorm:"type:text" json:"action"`
	Prompt     string `gorm:"type:text" json:"prompt"`
}

func (Shot) TableName() string {
	return "director_shots"
}
