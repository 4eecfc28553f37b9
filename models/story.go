package models

import (
	"time"
)

// Story is the root of one generation run: a concept+style+duration triple
// expanded into characters and scenes by the story stage.
type Story struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"project_id"`
	Title     string    `gorm:"not null" json:"title"`
	Logline   string    `gorm:"type:text" json:"logline"`
	Theme     string    `json:"theme"`
	Setting   string    `gorm:"type:text" json:"setting"`
	Style     string    `json:"style"`
	CreatedAt time.Time `json:"created_at"`

	Characters []Character `gorm:"foreignKey:StoryID" json:"characters,omitempty"`
	Scenes     []Scene     `gorm:"foreignKey:StoryID" json:"scenes,omitempty"`
}

func (Story) TableName() string {
	return "director_stories"
}

type Character struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StoryID     uint   `gorm:"not null;index" json:"story_id"`
	Name        string `gorm:"not null" json:"name"`
	Role        string `json:"role"`
	Description string `gorm:"type:text" json:"description"`
	Personality string `gorm:"type:text" json:"personality"`
	VisualStyle string `json:"visual_style"`
	VoiceStyle  string `json:"voice_style"`
}

func (Character) TableName() string {
	return "director_characters"
}
